package integrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// PathTracer is a unidirectional path tracer with next event estimation.
// Light sampling and BSDF sampling are combined with the power heuristic.
//
// It covers the same paths as BDPT at equal MaxDepth: an emitter may be hit
// as the MaxDepth-th surface, and lights are sampled from the first
// MaxDepth-1 surfaces.
type PathTracer struct {
	config core.SamplingConfig
	logger *slog.Logger
}

// NewPathTracer validates the sampling config and creates the estimator.
// A nil logger discards output.
func NewPathTracer(config core.SamplingConfig, logger *slog.Logger) (*PathTracer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PathTracer{config: config, logger: core.LoggerOrNop(logger)}, nil
}

// MaxDepth returns the maximum number of surface vertices on a path
func (pt *PathTracer) MaxDepth() int { return pt.config.MaxDepth }

// NewWorkspace allocates a workspace. The path tracer keeps no subpaths.
func (pt *PathTracer) NewWorkspace() *Workspace { return NewWorkspace(0, 0) }

// CheckWorkspace accepts any non-nil workspace
func (pt *PathTracer) CheckWorkspace(ws *Workspace) error {
	if ws == nil {
		return fmt.Errorf("%w: nil workspace", ErrWorkspaceTooSmall)
	}
	return nil
}

// SamplePixel traces one camera path through the continuous pixel coordinate
// (x, y). The result never carries splats.
func (pt *PathTracer) SamplePixel(scene Scene, x, y float64, sampler core.Sampler, ws *Workspace) Result {
	var stats SampleStats
	ws.splats = ws.splats[:0]

	camera := scene.Camera()
	ray := core.NewRay(camera.Position(), camera.PrimaryRayDirection(x, y))
	stats.EyeVertices = 1

	var color core.Vec3
	throughput := core.Splat(1)

	// the lens behaves like a specular vertex: nothing else can reach the first hit
	specularBounce := true
	var bsdfDensity, cosPrevious float64

	for depth := 1; depth <= pt.config.MaxDepth; depth++ {
		si, hit := scene.Intersect(ray, rayEpsilon, math.Inf(1))
		if !hit || si.Material == nil {
			break
		}

		wo := ray.Direction.Negate()
		if wo.Dot(si.ShadingNormal) <= 0 {
			break
		}
		stats.EyeVertices++

		if si.Material.Kind() == material.KindLight {
			color = color.Add(pt.emitted(scene, si, ray, throughput, specularBounce, bsdfDensity, cosPrevious))
			break
		}
		if depth == pt.config.MaxDepth {
			break
		}

		shading := material.Shading{Frame: core.NewFrame(si.ShadingNormal), BackSide: !si.FrontFace}
		if si.Material.Kind().IsSpecular() {
			stats.SpecularSkipped++
		} else {
			color = color.Add(throughput.MultiplyVec(pt.sampleLight(scene, si, wo, shading, sampler, &stats)))
		}

		res, ok := si.Material.Sample(wo, shading, material.Radiance, sampler)
		if !ok || (!res.Transmitted && res.Direction.Dot(si.GeometricNormal) <= 0) {
			break
		}
		throughput = throughput.MultiplyVec(res.Weight)
		specularBounce = res.Specular
		bsdfDensity = res.Density
		cosPrevious = math.Abs(res.Direction.Dot(si.ShadingNormal))
		ray = core.NewRay(si.Point, res.Direction)
	}

	if pt.logger.Enabled(context.Background(), slog.LevelDebug) {
		pt.logger.Debug("pixel sample",
			"x", x, "y", y,
			"eyeVertices", stats.EyeVertices,
			"connections", stats.Connections)
	}

	return Result{Color: color, Splats: ws.splats, Stats: stats}
}

// emitted returns the MIS-weighted emission of a light surface reached by
// BSDF sampling. bsdfDensity and cosPrevious describe the scatter that
// produced ray.
func (pt *PathTracer) emitted(scene Scene, si *geometry.SurfaceInteraction, ray core.Ray, throughput core.Vec3, specularBounce bool, bsdfDensity, cosPrevious float64) core.Vec3 {
	emitter, ok := si.Material.(material.Emitter)
	if !ok || !si.FrontFace {
		return core.Vec3{}
	}
	radiance := throughput.MultiplyVec(emitter.Emission())

	set := scene.Lights()
	if specularBounce || set == nil {
		return radiance
	}

	cosLight := -ray.Direction.Dot(si.GeometricNormal)
	if cosLight <= 0 || cosPrevious <= 0 {
		return core.Vec3{}
	}
	lightDensity := si.T * si.T / (cosLight * set.Area() * cosPrevious)
	return radiance.Multiply(core.PowerHeuristic(1, bsdfDensity, 1, lightDensity))
}

// sampleLight picks a point on the light set and returns its MIS-weighted
// direct contribution to the vertex at si, before throughput
func (pt *PathTracer) sampleLight(scene Scene, si *geometry.SurfaceInteraction, wo core.Vec3, shading material.Shading, sampler core.Sampler, stats *SampleStats) core.Vec3 {
	set := scene.Lights()
	if set == nil {
		return core.Vec3{}
	}

	u := sampler.Get2D()
	point := set.SampleSurfacePoint(u.X, u.Y)

	delta := point.Point.Subtract(si.Point)
	distance := delta.Length()
	if distance <= 0 {
		return core.Vec3{}
	}
	wi := delta.Multiply(1 / distance)

	cosLight := -wi.Dot(point.Normal)
	cosSurface := wi.Dot(si.ShadingNormal)
	if cosLight <= 0 || cosSurface <= 0 || wi.Dot(si.GeometricNormal) <= 0 {
		return core.Vec3{}
	}

	f := si.Material.Evaluate(wo, wi, shading, material.Radiance)
	if f.IsZero() {
		return core.Vec3{}
	}
	if !visible(scene, si.Point, wi, distance, point.Surface, stats) {
		return core.Vec3{}
	}

	// light density per projected solid angle at si
	lightDensity := distance * distance / (cosLight * set.Area() * cosSurface)
	weight := core.PowerHeuristic(1, lightDensity, 1, si.Material.PDF(wo, wi, shading))
	stats.Connections++

	return f.MultiplyVec(point.Radiance).Multiply(cosSurface * cosLight * set.Area() / (distance * distance) * weight)
}
