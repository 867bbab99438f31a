package integrator

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/lights"
	"github.com/df07/go-bdpt/pkg/material"
)

// PathVertex is one node of a light or eye random walk.
//
// Directions follow the flow of light: IncomingDirection points toward the
// light side of the path and OutgoingDirection toward the eye side, both away
// from the surface. Densities are per projected solid angle. Specular
// vertices carry 1 in both directions so they cancel out of density ratios.
type PathVertex struct {
	Surface  geometry.Shape // nil only for the lens vertex
	Material material.Material

	Position          core.Vec3
	IncomingDirection core.Vec3
	OutgoingDirection core.Vec3
	GeometricNormal   core.Vec3 // Faces the side the walk arrived from
	ShadingNormal     core.Vec3
	Tangent           core.Vec3
	Binormal          core.Vec3
	IsBackSide        bool
	IsSpecular        bool

	Throughput              core.Vec3 // Accumulated weight arriving at this vertex
	BsdfTimesInverseDensity core.Vec3 // Scatter weight applied when leaving this vertex

	ForwardDensity float64 // Density with which this vertex's walk chose its next direction
	ReverseDensity float64 // Density of choosing the opposite way along the same two directions

	IncomingCosShading   float64
	OutgoingCosGeometric float64
	GeometricFactor      float64 // cos·cos/d² linking this vertex to its predecessor in the walk

	AreaDensity float64 // Area density with which this vertex's own walk produced it
}

// shading returns the local frame the vertex's material scatters in
func (v *PathVertex) shading() material.Shading {
	return material.Shading{
		Frame:    core.Frame{Tangent: v.Tangent, Binormal: v.Binormal, Normal: v.ShadingNormal},
		BackSide: v.IsBackSide,
	}
}

// setSurface copies the hit geometry and builds the shading basis
func (v *PathVertex) setSurface(si *geometry.SurfaceInteraction) {
	frame := core.NewFrame(si.ShadingNormal)
	v.Surface = si.Shape
	v.Material = si.Material
	v.Position = si.Point
	v.GeometricNormal = si.GeometricNormal
	v.ShadingNormal = si.ShadingNormal
	v.Tangent = frame.Tangent
	v.Binormal = frame.Binormal
	v.IsBackSide = !si.FrontFace
	v.IsSpecular = si.Material != nil && si.Material.Kind().IsSpecular()
}

// lightSeedVertex places vertex 0 of a light walk at a sampled emitter point.
// The throughput is the emitted power of a light with the whole set's area.
func lightSeedVertex(p lights.SurfacePoint, lightArea float64) PathVertex {
	frame := core.NewFrame(p.Normal)
	return PathVertex{
		Surface:                 p.Surface,
		Material:                p.Material,
		Position:                p.Point,
		GeometricNormal:         p.Normal,
		ShadingNormal:           p.Normal,
		Tangent:                 frame.Tangent,
		Binormal:                frame.Binormal,
		Throughput:              p.Radiance.Multiply(math.Pi * lightArea),
		BsdfTimesInverseDensity: core.Splat(1),
		ForwardDensity:          emissionDensity,
		ReverseDensity:          1,
		IncomingCosShading:      1,
		GeometricFactor:         1,
		AreaDensity:             1 / lightArea,
	}
}

// emitToward sets the seed's emission direction, chosen cosine-weighted around its normal
func (v *PathVertex) emitToward(direction core.Vec3, cosTheta float64) {
	v.OutgoingDirection = direction
	v.OutgoingCosGeometric = cosTheta
}

// lensVertex is vertex 0 of an eye walk
func lensVertex(camera *geometry.Camera, direction core.Vec3) PathVertex {
	forward := camera.Forward()
	frame := core.NewFrame(forward)
	cosTheta := direction.Dot(forward)
	return PathVertex{
		Position:                camera.Position(),
		IncomingDirection:       direction,
		GeometricNormal:         forward,
		ShadingNormal:           forward,
		Tangent:                 frame.Tangent,
		Binormal:                frame.Binormal,
		Throughput:              core.Splat(1),
		BsdfTimesInverseDensity: core.Splat(1),
		ForwardDensity:          camera.SensorConstFactor() / fourthPower(cosTheta),
		ReverseDensity:          1,
		IncomingCosShading:      cosTheta,
		OutgoingCosGeometric:    1,
		GeometricFactor:         1,
		AreaDensity:             1,
	}
}

// arriveFromLight fills in a light-walk vertex hit at distance dist from prev.
// It reports false when the hit is behind the shading normal.
func (v *PathVertex) arriveFromLight(prev *PathVertex, si *geometry.SurfaceInteraction, dist float64) bool {
	v.setSurface(si)
	v.IncomingDirection = prev.OutgoingDirection.Negate()
	v.IncomingCosShading = v.IncomingDirection.Dot(v.ShadingNormal)
	if v.IncomingCosShading <= 0 {
		return false
	}

	v.Throughput = prev.Throughput.MultiplyVec(prev.BsdfTimesInverseDensity)
	v.GeometricFactor = prev.OutgoingCosGeometric * v.IncomingCosShading / (dist * dist)
	v.AreaDensity = prev.ForwardDensity * v.GeometricFactor
	return true
}

// arriveFromEye fills in an eye-walk vertex hit at distance dist from prev.
// It reports false when the hit is behind the shading normal.
func (v *PathVertex) arriveFromEye(prev *PathVertex, si *geometry.SurfaceInteraction, dist float64) bool {
	v.setSurface(si)
	v.OutgoingDirection = prev.IncomingDirection.Negate()
	if v.OutgoingDirection.Dot(v.ShadingNormal) <= 0 {
		return false
	}

	v.Throughput = prev.Throughput.MultiplyVec(prev.BsdfTimesInverseDensity)
	v.OutgoingCosGeometric = v.OutgoingDirection.Dot(v.GeometricNormal)
	v.GeometricFactor = v.OutgoingCosGeometric * prev.IncomingCosShading / (dist * dist)
	v.AreaDensity = prev.ForwardDensity * v.GeometricFactor
	return true
}

// scatterTowardEye records a light-walk continuation. It reports false when
// a reflection leaves below the geometric surface.
func (v *PathVertex) scatterTowardEye(res material.ScatterResult) bool {
	cosGeometric := res.Direction.Dot(v.GeometricNormal)
	if !res.Transmitted && cosGeometric <= 0 {
		return false
	}
	v.OutgoingDirection = res.Direction
	v.OutgoingCosGeometric = math.Abs(cosGeometric)
	v.BsdfTimesInverseDensity = res.Weight
	v.ForwardDensity = res.Density
	v.ReverseDensity = res.ReverseDensity
	return true
}

// scatterTowardLight records an eye-walk continuation. It reports false when
// a reflection leaves below the geometric surface.
func (v *PathVertex) scatterTowardLight(res material.ScatterResult) bool {
	if !res.Transmitted && res.Direction.Dot(v.GeometricNormal) <= 0 {
		return false
	}
	v.IncomingDirection = res.Direction
	v.IncomingCosShading = math.Abs(res.Direction.Dot(v.ShadingNormal))
	v.BsdfTimesInverseDensity = res.Weight
	v.ForwardDensity = res.Density
	v.ReverseDensity = res.ReverseDensity
	return true
}

// Subpath is a pre-sized walk buffer. Only the first Len vertices are valid.
type Subpath struct {
	vertices []PathVertex
	n        int
}

// NewSubpath allocates a subpath that can hold capacity vertices
func NewSubpath(capacity int) *Subpath {
	return &Subpath{vertices: make([]PathVertex, capacity)}
}

// Reset discards every vertex
func (p *Subpath) Reset() { p.n = 0 }

// Len returns the number of valid vertices
func (p *Subpath) Len() int { return p.n }

// Cap returns the maximum number of vertices
func (p *Subpath) Cap() int { return len(p.vertices) }

// Full reports whether no more vertices fit
func (p *Subpath) Full() bool { return p.n >= len(p.vertices) }

// Vertices returns the valid prefix of the walk
func (p *Subpath) Vertices() []PathVertex { return p.vertices[:p.n] }

// next returns the slot for the next vertex without committing it
func (p *Subpath) next() *PathVertex {
	v := &p.vertices[p.n]
	*v = PathVertex{}
	return v
}

// commit makes the slot returned by next part of the walk
func (p *Subpath) commit() { p.n++ }

// truncate shortens the walk to n vertices
func (p *Subpath) truncate(n int) {
	if n < p.n {
		p.n = n
	}
}

func fourthPower(x float64) float64 {
	x2 := x * x
	return x2 * x2
}
