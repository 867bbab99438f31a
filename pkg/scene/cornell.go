package scene

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// Cornell box dimensions (standard 555x555x555 units)
const cornellSize = 555.0

// cornellBox creates the five walls and the ceiling light. The camera looks
// down +Z, so the red wall at x=555 appears on the left.
func cornellBox(name string) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center: core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt: core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:     core.NewVec3(0, 1, 0),
		VFov:   40.0,
	}

	samplingConfig := core.SamplingConfig{
		Width:           256,
		Height:          256,
		SamplesPerPixel: 64,
		MaxDepth:        8,
	}

	s := NewScene(name, cameraConfig, samplingConfig)

	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	// Floor (white) - XZ plane at y=0
	floor := geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, cornellSize), // u vector (Z direction)
		core.NewVec3(cornellSize, 0, 0), // v vector (X direction)
		white,
	)

	// Ceiling (white) - XZ plane at y=cornellSize
	ceiling := geometry.NewQuad(
		core.NewVec3(0, cornellSize, 0),
		core.NewVec3(cornellSize, 0, 0),
		core.NewVec3(0, 0, cornellSize),
		white,
	)

	// Back wall (white) - XY plane at z=cornellSize
	backWall := geometry.NewQuad(
		core.NewVec3(0, 0, cornellSize),
		core.NewVec3(0, cornellSize, 0),
		core.NewVec3(cornellSize, 0, 0),
		white,
	)

	// Left wall as seen from the camera (red) - YZ plane at x=cornellSize
	leftWall := geometry.NewQuad(
		core.NewVec3(cornellSize, 0, 0),
		core.NewVec3(0, 0, cornellSize),
		core.NewVec3(0, cornellSize, 0),
		red,
	)

	// Right wall (green) - YZ plane at x=0
	rightWall := geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, cornellSize, 0),
		core.NewVec3(0, 0, cornellSize),
		green,
	)

	s.AddShapes(floor, ceiling, backWall, leftWall, rightWall)

	// Ceiling light (smaller quad in the center of the ceiling), emitting downward
	lightSize := 130.0
	lightOffset := (cornellSize - lightSize) / 2.0
	s.AddQuadLight(
		core.NewVec3(lightOffset, cornellSize-1, lightOffset), // corner (slightly below ceiling)
		core.NewVec3(lightSize, 0, 0),                         // u vector (X direction)
		core.NewVec3(0, 0, lightSize),                         // v vector (Z direction)
		core.NewVec3(15.0, 15.0, 15.0),
	)

	return s
}

func degrees(d float64) float64 {
	return d * math.Pi / 180
}

// NewCornellScene creates a classic Cornell box with two diffuse boxes
func NewCornellScene() *Scene {
	s := cornellBox("cornell")
	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))

	shortBox := geometry.NewBox(
		core.NewVec3(370, 82.5, 169),
		core.NewVec3(82.5, 82.5, 82.5),
		core.NewVec3(0, degrees(-18), 0),
		white,
	)
	tallBox := geometry.NewBox(
		core.NewVec3(185, 165, 351),
		core.NewVec3(82.5, 165, 82.5),
		core.NewVec3(0, degrees(15), 0),
		white,
	)
	s.AddShapes(shortBox, tallBox)
	return s
}

// NewCornellSpecularScene replaces the diffuse boxes with a mirror sphere
// and a glass sphere
func NewCornellSpecularScene() *Scene {
	s := cornellBox("cornell-specular")

	mirrorSphere := geometry.NewSphere(
		core.NewVec3(185, 82.5, 169),
		82.5,
		material.NewMirror(core.NewVec3(0.9, 0.9, 0.9)),
	)
	glassSphere := geometry.NewSphere(
		core.NewVec3(370, 90, 351),
		90,
		material.NewDielectric(1.5),
	)
	s.AddShapes(mirrorSphere, glassSphere)
	s.SamplingConfig.MaxDepth = 12
	return s
}
