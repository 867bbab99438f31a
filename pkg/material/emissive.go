package material

import (
	"github.com/df07/go-bdpt/pkg/core"
)

// Emissive represents a light-emitting material. It never scatters.
type Emissive struct {
	Radiance core.Vec3 // Emitted radiance, constant over the front hemisphere
}

// NewEmissive creates a new emissive material
func NewEmissive(radiance core.Vec3) *Emissive {
	return &Emissive{Radiance: radiance}
}

func (e *Emissive) Kind() Kind { return KindLight }

// Emission returns the emitted radiance
func (e *Emissive) Emission() core.Vec3 { return e.Radiance }

func (e *Emissive) Sample(from core.Vec3, shading Shading, mode TransportMode, sampler core.Sampler) (ScatterResult, bool) {
	return ScatterResult{}, false
}

func (e *Emissive) Evaluate(wo, wi core.Vec3, shading Shading, mode TransportMode) core.Vec3 {
	return core.Vec3{}
}

func (e *Emissive) PDF(from, to core.Vec3, shading Shading) float64 {
	return 0
}
