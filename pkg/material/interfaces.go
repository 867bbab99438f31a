package material

import (
	"github.com/df07/go-bdpt/pkg/core"
)

// Kind classifies a material for the random walks. Mirror and Glass are
// delta (specular) surfaces that cannot be used as connection endpoints.
type Kind int

const (
	KindDiffuse Kind = iota
	KindMirror
	KindGlass
	KindLight
)

// String returns a short name for the kind
func (k Kind) String() string {
	switch k {
	case KindDiffuse:
		return "diffuse"
	case KindMirror:
		return "mirror"
	case KindGlass:
		return "glass"
	case KindLight:
		return "light"
	}
	return "unknown"
}

// IsSpecular reports whether the kind scatters through a delta distribution
func (k Kind) IsSpecular() bool {
	return k == KindMirror || k == KindGlass
}

// TransportMode says which quantity a walk carries
type TransportMode int

const (
	// Radiance is carried by walks that start at the eye
	Radiance TransportMode = iota
	// Importance is carried by walks that start at a light
	Importance
)

// Shading is the local surface description a material scatters in.
// Frame.Normal faces the side the walk arrived from; BackSide is true when
// that side is opposite the surface's outward normal.
type Shading struct {
	Frame    core.Frame
	BackSide bool
}

// ScatterResult describes one sampled continuation direction.
// Densities are per projected solid angle; delta lobes report 1.
type ScatterResult struct {
	Direction      core.Vec3 // Sampled direction, pointing away from the surface
	Weight         core.Vec3 // BSDF x |cos| / density
	Density        float64   // Density of sampling Direction given the arrival direction
	ReverseDensity float64   // Density of sampling the arrival direction given Direction
	Specular       bool
	Transmitted    bool // Direction is on the opposite side of Frame.Normal
}

// Material is the BSDF contract used by both random walks
type Material interface {
	Kind() Kind

	// Sample picks a direction to continue a walk that arrived along from,
	// a unit vector pointing away from the surface. It reports false when
	// the walk is absorbed.
	Sample(from core.Vec3, shading Shading, mode TransportMode, sampler core.Sampler) (ScatterResult, bool)

	// Evaluate returns the BSDF value for light arriving from wi and leaving
	// toward wo. Both point away from the surface. Delta lobes evaluate to zero.
	Evaluate(wo, wi core.Vec3, shading Shading, mode TransportMode) core.Vec3

	// PDF returns the projected solid angle density with which Sample, having
	// arrived along from, would choose to.
	PDF(from, to core.Vec3, shading Shading) float64
}

// Emitter is implemented by materials that emit light from their front face
type Emitter interface {
	Emission() core.Vec3
}
