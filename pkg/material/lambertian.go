package material

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

func (l *Lambertian) Kind() Kind { return KindDiffuse }

// Sample draws a cosine-weighted direction, so the weight reduces to the albedo
func (l *Lambertian) Sample(from core.Vec3, shading Shading, mode TransportMode, sampler core.Sampler) (ScatterResult, bool) {
	if shading.Frame.CosTheta(from) <= 0 {
		return ScatterResult{}, false
	}

	direction, cosTheta := core.SampleCosineHemisphere(shading.Frame, sampler.Get2D())
	if cosTheta <= 0 {
		return ScatterResult{}, false
	}

	return ScatterResult{
		Direction:      direction,
		Weight:         l.Albedo,
		Density:        1 / math.Pi,
		ReverseDensity: 1 / math.Pi,
	}, true
}

// Evaluate returns albedo/π when both directions are above the surface
func (l *Lambertian) Evaluate(wo, wi core.Vec3, shading Shading, mode TransportMode) core.Vec3 {
	if shading.Frame.CosTheta(wo) <= 0 || shading.Frame.CosTheta(wi) <= 0 {
		return core.Vec3{}
	}
	return l.Albedo.Multiply(1 / math.Pi)
}

// PDF returns 1/π for any pair of directions in the upper hemisphere
func (l *Lambertian) PDF(from, to core.Vec3, shading Shading) float64 {
	if shading.Frame.CosTheta(from) <= 0 || shading.Frame.CosTheta(to) <= 0 {
		return 0
	}
	return 1 / math.Pi
}
