package integrator

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// visibilityTolerance is the relative slack allowed between the expected
// and the traced distance to a connection endpoint
const visibilityTolerance = 1e-6

// connection is the geometry of the edge joining a light endpoint to an eye endpoint
type connection struct {
	direction core.Vec3 // Unit vector from the light endpoint toward the eye endpoint
	distance  float64
	geometric float64 // Geometric cosine at the light end times shading cosine at the eye end, over d²
	cosEye    float64 // Shading cosine at the eye endpoint
}

// newConnection checks the four cosines of the edge between lv and ev.
// It reports false when either endpoint faces away from the other.
func newConnection(lv, ev *PathVertex) (connection, bool) {
	delta := ev.Position.Subtract(lv.Position)
	distance := delta.Length()
	if distance <= 0 {
		return connection{}, false
	}
	dir := delta.Multiply(1 / distance)

	cosLightGeometric := dir.Dot(lv.GeometricNormal)
	cosLightShading := dir.Dot(lv.ShadingNormal)
	cosEyeGeometric := -dir.Dot(ev.GeometricNormal)
	cosEyeShading := -dir.Dot(ev.ShadingNormal)
	if cosLightGeometric <= 0 || cosLightShading <= 0 || cosEyeGeometric <= 0 || cosEyeShading <= 0 {
		return connection{}, false
	}

	return connection{
		direction: dir,
		distance:  distance,
		geometric: cosEyeShading * cosLightGeometric / (distance * distance),
		cosEye:    cosEyeShading,
	}, true
}

// visible traces from origin along direction and reports whether the
// closest hit is target at the expected distance
func visible(scene Scene, origin core.Vec3, direction core.Vec3, distance float64, target geometry.Shape, stats *SampleStats) bool {
	stats.VisibilityTests++
	slack := visibilityTolerance*distance + rayEpsilon
	si, hit := scene.Intersect(core.NewRay(origin, direction), rayEpsilon, distance+slack)
	if !hit || si.Shape != target || math.Abs(si.T-distance) > slack {
		stats.Occluded++
		return false
	}
	return true
}

// connectToCamera evaluates the t=1 strategy for every light vertex past the
// seed and appends the resulting splats
func (b *BDPT) connectToCamera(scene Scene, light *Subpath, splats []Splat, stats *SampleStats) []Splat {
	camera := scene.Camera()
	lensPosition := camera.Position()
	lens := lensVertex(camera, camera.Forward())
	vertices := light.Vertices()

	for s := 2; s <= len(vertices); s++ {
		lv := &vertices[s-1]
		if lv.IsSpecular {
			stats.SpecularSkipped++
			continue
		}

		c, ok := newConnection(lv, &lens)
		if !ok {
			continue
		}

		toLight := c.direction.Negate()
		film, ok := camera.FilmPosition(toLight)
		if !ok {
			stats.OutsideFilm++
			continue
		}

		if !visible(scene, lensPosition, toLight, c.distance, lv.Surface, stats) {
			continue
		}

		f := lv.Material.Evaluate(c.direction, lv.IncomingDirection, lv.shading(), material.Importance)
		if f.IsZero() {
			continue
		}

		cos4 := fourthPower(c.cosEye)
		importance := camera.FluxToRadianceCoefficient() / cos4
		weight := lightTracingWeight(vertices[:s], c, camera.SensorConstFactor()/cos4)

		px, py := camera.PixelAt(film)
		color := lv.Throughput.MultiplyVec(f).Multiply(c.geometric * importance * weight)
		splats = append(splats, Splat{X: px, Y: py, Color: color})
		stats.Connections++
	}
	return splats
}

// connectSubpaths evaluates every s>=1, t>=2 connection within the depth limit
func (b *BDPT) connectSubpaths(scene Scene, light, eye *Subpath, stats *SampleStats) core.Vec3 {
	var total core.Vec3
	lightVertices := light.Vertices()
	eyeVertices := eye.Vertices()
	maxVertices := b.config.MaxDepth + 1

	for t := 2; t <= len(eyeVertices); t++ {
		ev := &eyeVertices[t-1]
		if ev.IsSpecular {
			stats.SpecularSkipped++
			continue
		}

		for s := 1; s <= len(lightVertices) && s+t <= maxVertices; s++ {
			lv := &lightVertices[s-1]
			if lv.IsSpecular {
				stats.SpecularSkipped++
				continue
			}

			c, ok := newConnection(lv, ev)
			if !ok {
				continue
			}

			fLight := core.Splat(emissionDensity)
			if s > 1 {
				fLight = lv.Material.Evaluate(c.direction, lv.IncomingDirection, lv.shading(), material.Importance)
			}
			fEye := ev.Material.Evaluate(ev.OutgoingDirection, c.direction.Negate(), ev.shading(), material.Radiance)
			if fLight.IsZero() || fEye.IsZero() {
				continue
			}

			if !visible(scene, lv.Position, c.direction, c.distance, ev.Surface, stats) {
				continue
			}

			weight := connectionWeight(lightVertices[:s], eyeVertices[:t], c)
			contribution := lv.Throughput.MultiplyVec(fLight).MultiplyVec(fEye).MultiplyVec(ev.Throughput).
				Multiply(c.geometric * weight)
			total = total.Add(contribution)
			stats.Connections++
		}
	}
	return total
}
