package material

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex}
}

func (d *Dielectric) Kind() Kind { return KindGlass }

// Sample chooses reflection or refraction with probability equal to the
// Schlick reflectance, so the Fresnel term cancels out of the weight.
// Radiance crossing the interface is scaled by (ηi/ηt)².
func (d *Dielectric) Sample(from core.Vec3, shading Shading, mode TransportMode, sampler core.Sampler) (ScatterResult, bool) {
	n := shading.Frame.Normal
	cosTheta := math.Min(from.Dot(n), 1.0)
	if cosTheta <= 0 {
		return ScatterResult{}, false
	}

	// ηi/ηt, with the arrival side as the incident medium
	refractionRatio := 1.0 / d.RefractiveIndex
	if shading.BackSide {
		refractionRatio = d.RefractiveIndex
	}

	result := ScatterResult{
		Weight:         core.Splat(1),
		Density:        1,
		ReverseDensity: 1,
		Specular:       true,
	}

	incident := from.Negate()
	if fresnel(cosTheta, refractionRatio) > sampler.Get1D() {
		result.Direction = reflectVector(incident, n)
		return result, true
	}

	result.Direction = refractVector(incident, n, refractionRatio)
	result.Transmitted = true
	if mode == Radiance {
		result.Weight = core.Splat(refractionRatio * refractionRatio)
	}
	return result, true
}

func (d *Dielectric) Evaluate(wo, wi core.Vec3, shading Shading, mode TransportMode) core.Vec3 {
	return core.Vec3{}
}

func (d *Dielectric) PDF(from, to core.Vec3, shading Shading) float64 {
	return 0
}

// refractVector refracts the unit vector uv through a surface with normal n using Snell's law
func refractVector(uv, n core.Vec3, etaiOverEtat float64) core.Vec3 {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	perp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	parallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - perp.LengthSquared())))
	return perp.Add(parallel).Normalize()
}

// fresnel returns the probability of reflecting a walk that arrives with
// cosine cosTheta, or 1 under total internal reflection. Schlick is evaluated
// with the cosine on the less dense side, so both directions across the
// interface reflect with the same probability.
func fresnel(cosTheta, refractionRatio float64) float64 {
	if refractionRatio > 1 {
		cos2 := 1 - refractionRatio*refractionRatio*(1-cosTheta*cosTheta)
		if cos2 <= 0 {
			return 1
		}
		cosTheta = math.Sqrt(cos2)
	}
	return Reflectance(cosTheta, refractionRatio)
}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
