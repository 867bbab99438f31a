package lights

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// QuadLight is a one-sided rectangular area light emitting along the quad normal
type QuadLight struct {
	*geometry.Quad // Embed quad for hit testing
	emissive       *material.Emissive
}

// NewQuadLight creates a quad light with constant radiance over its front hemisphere
func NewQuadLight(corner, u, v core.Vec3, radiance core.Vec3) *QuadLight {
	emissive := material.NewEmissive(radiance)
	return &QuadLight{
		Quad:     geometry.NewQuad(corner, u, v, emissive),
		emissive: emissive,
	}
}

// Radiance returns the emitted radiance
func (ql *QuadLight) Radiance() core.Vec3 {
	return ql.emissive.Radiance
}

// EmittedPower returns the total flux leaving the front face: π·Le·A
func (ql *QuadLight) EmittedPower() core.Vec3 {
	return ql.emissive.Radiance.Multiply(math.Pi * ql.Area())
}

// SampleSurfacePoint maps (u1, u2) uniformly onto the quad
func (ql *QuadLight) SampleSurfacePoint(u1, u2 float64) SurfacePoint {
	return SurfacePoint{
		Point:    ql.PointAt(u1, u2),
		Normal:   ql.Normal,
		Radiance: ql.emissive.Radiance,
		Surface:  ql.Quad,
		Material: ql.emissive,
	}
}
