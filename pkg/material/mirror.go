package material

import (
	"github.com/df07/go-bdpt/pkg/core"
)

// Mirror is a perfect specular reflector
type Mirror struct {
	Reflectance core.Vec3
}

// NewMirror creates a new mirror material
func NewMirror(reflectance core.Vec3) *Mirror {
	return &Mirror{Reflectance: reflectance}
}

func (m *Mirror) Kind() Kind { return KindMirror }

func (m *Mirror) Sample(from core.Vec3, shading Shading, mode TransportMode, sampler core.Sampler) (ScatterResult, bool) {
	n := shading.Frame.Normal
	if from.Dot(n) <= 0 {
		return ScatterResult{}, false
	}
	return ScatterResult{
		Direction:      reflectVector(from.Negate(), n),
		Weight:         m.Reflectance,
		Density:        1,
		ReverseDensity: 1,
		Specular:       true,
	}, true
}

func (m *Mirror) Evaluate(wo, wi core.Vec3, shading Shading, mode TransportMode) core.Vec3 {
	return core.Vec3{}
}

func (m *Mirror) PDF(from, to core.Vec3, shading Shading) float64 {
	return 0
}

// reflectVector reflects v about a surface with normal n: r = v - 2(v·n)n
func reflectVector(v, n core.Vec3) core.Vec3 {
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}
