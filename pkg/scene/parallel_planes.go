package scene

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// ParallelPlanes describes a square emitter facing down onto a large diffuse
// receiver. The receiver is the only reflecting surface, so the radiance it
// sends back has a closed form.
type ParallelPlanes struct {
	Albedo        float64 // Receiver reflectance
	Radiance      float64 // Emitter radiance
	LightHalfSize float64 // Half side of the square emitter
	Height        float64 // Distance between the planes
	ReceiverSize  float64 // Side of the square receiver
}

// DefaultParallelPlanes returns the configuration used by the built-in scene
func DefaultParallelPlanes() ParallelPlanes {
	return ParallelPlanes{
		Albedo:        0.8,
		Radiance:      1,
		LightHalfSize: 0.25,
		Height:        1,
		ReceiverSize:  4,
	}
}

// cornerFormFactor is the differential form factor from a point to a parallel
// a×b rectangle at distance h, with the point under one corner
func cornerFormFactor(a, b, h float64) float64 {
	ra := math.Sqrt(a*a + h*h)
	rb := math.Sqrt(b*b + h*h)
	return (a/ra*math.Atan(b/ra) + b/rb*math.Atan(a/rb)) / (2 * math.Pi)
}

// ExpectedRadiance is the radiance leaving the receiver point directly under
// the emitter center: albedo · Le · F, with F the point-to-emitter form factor
func (p ParallelPlanes) ExpectedRadiance() float64 {
	f := 4 * cornerFormFactor(p.LightHalfSize, p.LightHalfSize, p.Height)
	return p.Albedo * p.Radiance * f
}

// NewParallelPlanesScene creates the two-plane scene with a narrow camera
// looking at the receiver point under the emitter center
func NewParallelPlanesScene(p ParallelPlanes) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center: core.NewVec3(0, 0.9*p.Height, 1.5*p.Height),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   4,
	}

	samplingConfig := core.SamplingConfig{
		Width:           15,
		Height:          15,
		SamplesPerPixel: 256,
		MaxDepth:        4,
	}

	s := NewScene("parallel-planes", cameraConfig, samplingConfig)
	receiver := NewGroundQuad(core.Vec3{}, p.ReceiverSize, material.NewLambertian(core.Splat(p.Albedo)))
	s.AddShapes(receiver)

	side := 2 * p.LightHalfSize
	// (side,0,0) × (0,0,side) = (0,-side²,0): emits downward
	s.AddQuadLight(
		core.NewVec3(-p.LightHalfSize, p.Height, -p.LightHalfSize),
		core.NewVec3(side, 0, 0),
		core.NewVec3(0, 0, side),
		core.Splat(p.Radiance),
	)
	return s
}
