package core

import (
	"math"
	"math/rand"
)

// Sampler provides the random numbers consumed by the random walks.
// Swap it out for deterministic testing or a different sample pattern.
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Frame is an orthonormal basis with Normal as its local z axis
type Frame struct {
	Tangent  Vec3
	Binormal Vec3
	Normal   Vec3
}

// NewFrame builds an orthonormal basis around a unit normal
func NewFrame(normal Vec3) Frame {
	var helper Vec3
	if math.Abs(normal.X) > 0.1 {
		helper = NewVec3(0, 1, 0)
	} else {
		helper = NewVec3(1, 0, 0)
	}
	tangent := helper.Cross(normal).Normalize()
	binormal := normal.Cross(tangent)
	return Frame{Tangent: tangent, Binormal: binormal, Normal: normal}
}

// ToWorld maps local coordinates (x along Tangent, y along Binormal, z along Normal) to world space
func (f Frame) ToWorld(local Vec3) Vec3 {
	return f.Tangent.Multiply(local.X).Add(f.Binormal.Multiply(local.Y)).Add(f.Normal.Multiply(local.Z))
}

// CosTheta returns the cosine between a world direction and the frame normal
func (f Frame) CosTheta(direction Vec3) float64 {
	return direction.Dot(f.Normal)
}

// SampleCosineHemisphere generates a cosine-weighted direction in the hemisphere around
// frame.Normal and returns it with the cosine to the normal. The density per projected
// solid angle is 1/π.
func SampleCosineHemisphere(frame Frame, sample Vec2) (Vec3, float64) {
	phi := 2.0 * math.Pi * sample.X
	r := math.Sqrt(sample.Y)
	cosTheta := math.Sqrt(math.Max(0, 1.0-sample.Y))

	local := NewVec3(r*math.Cos(phi), r*math.Sin(phi), cosTheta)
	return frame.ToWorld(local), cosTheta
}

// PowerHeuristic returns the MIS weight (β=2) of nf samples from density fPdf
// against ng samples from density gPdf
func PowerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f*f+g*g == 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}
