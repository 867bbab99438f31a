package lights

import (
	"errors"
	"sort"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// ErrNoLights is returned when a light set is built without any emitter
var ErrNoLights = errors.New("light set has no emitters")

// SurfacePoint is a position sampled on an emitter
type SurfacePoint struct {
	Point    core.Vec3
	Normal   core.Vec3 // Emitting side
	Radiance core.Vec3
	Surface  geometry.Shape    // Identity used for visibility tests
	Material material.Material // The emitter's material
}

// Set treats several quad lights as one emitter. Points are chosen with
// probability proportional to area, so the area density is 1/Area()
// everywhere on the set.
type Set struct {
	lights []*QuadLight
	cdf    []float64 // cumulative area, normalized to end at 1
	area   float64
}

// NewSet builds a light set from one or more quad lights
func NewSet(quadLights ...*QuadLight) (*Set, error) {
	if len(quadLights) == 0 {
		return nil, ErrNoLights
	}

	s := &Set{lights: quadLights, cdf: make([]float64, len(quadLights))}
	for i, l := range quadLights {
		s.area += l.Area()
		s.cdf[i] = s.area
	}
	if s.area <= 0 {
		return nil, ErrNoLights
	}
	for i := range s.cdf {
		s.cdf[i] /= s.area
	}
	return s, nil
}

// Area returns the total emitting area
func (s *Set) Area() float64 {
	return s.area
}

// Lights returns the emitters in the set
func (s *Set) Lights() []*QuadLight {
	return s.lights
}

// EmittedPower returns the combined flux of every emitter
func (s *Set) EmittedPower() core.Vec3 {
	var total core.Vec3
	for _, l := range s.lights {
		total = total.Add(l.EmittedPower())
	}
	return total
}

// SampleSurfacePoint picks an emitter by area with u1, then reuses the
// remainder of u1 together with u2 to place the point on it
func (s *Set) SampleSurfacePoint(u1, u2 float64) SurfacePoint {
	i := sort.SearchFloat64s(s.cdf, u1)
	if i >= len(s.lights) {
		i = len(s.lights) - 1
	}
	lo := 0.0
	if i > 0 {
		lo = s.cdf[i-1]
	}
	remapped := (u1 - lo) / (s.cdf[i] - lo)
	remapped = min(max(remapped, 0), 1)
	return s.lights[i].SampleSurfacePoint(remapped, u2)
}
