package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/lights"
	"github.com/df07/go-bdpt/pkg/material"
)

// ErrNoLight is returned by Preprocess when the scene has no emitter
var ErrNoLight = errors.New("scene has no light")

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	CameraConfig   geometry.CameraConfig // Width and Height are taken from SamplingConfig
	SamplingConfig core.SamplingConfig   // Recommended settings, overridable before Preprocess
	Shapes         []geometry.Shape      // Non-emitting objects in the scene
	QuadLights     []*lights.QuadLight   // Emitters, also intersected as geometry

	camera   *geometry.Camera
	bvh      *geometry.BVH
	lightSet *lights.Set
}

// NewScene creates an empty scene
func NewScene(name string, cameraConfig geometry.CameraConfig, samplingConfig core.SamplingConfig) *Scene {
	return &Scene{
		Name:           name,
		CameraConfig:   cameraConfig,
		SamplingConfig: samplingConfig,
	}
}

// NewGroundQuad creates a horizontal square centered at center with its normal pointing up
func NewGroundQuad(center core.Vec3, size float64, mat material.Material) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// (0,0,size) × (size,0,0) = (0,size²,0)
	u := core.NewVec3(0, 0, size)
	v := core.NewVec3(size, 0, 0)
	return geometry.NewQuad(corner, u, v, mat)
}

// AddShapes adds non-emitting objects
func (s *Scene) AddShapes(shapes ...geometry.Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

// AddQuadLight adds a one-sided rectangular area light emitting along u × v
func (s *Scene) AddQuadLight(corner, u, v core.Vec3, emission core.Vec3) *lights.QuadLight {
	light := lights.NewQuadLight(corner, u, v, emission)
	s.QuadLights = append(s.QuadLights, light)
	return light
}

// Preprocess validates the sampling config and builds the camera, the BVH
// and the light set. It must be called again after changing the scene.
func (s *Scene) Preprocess() error {
	if err := s.SamplingConfig.Validate(); err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	if len(s.QuadLights) == 0 {
		return fmt.Errorf("scene %q: %w", s.Name, ErrNoLight)
	}

	set, err := lights.NewSet(s.QuadLights...)
	if err != nil {
		return fmt.Errorf("scene %q: %w: %w", s.Name, ErrNoLight, err)
	}

	cameraConfig := s.CameraConfig
	cameraConfig.Width = s.SamplingConfig.Width
	cameraConfig.Height = s.SamplingConfig.Height

	shapes := make([]geometry.Shape, 0, len(s.Shapes)+len(s.QuadLights))
	shapes = append(shapes, s.Shapes...)
	for _, l := range s.QuadLights {
		shapes = append(shapes, l)
	}

	s.camera = geometry.NewCamera(cameraConfig)
	s.bvh = geometry.NewBVH(shapes)
	s.lightSet = set
	return nil
}

// Intersect returns the closest hit in (tMin, tMax). The scene must be preprocessed.
func (s *Scene) Intersect(ray core.Ray, tMin, tMax float64) (*geometry.SurfaceInteraction, bool) {
	return s.bvh.Hit(ray, tMin, tMax)
}

// Camera returns the camera built by Preprocess
func (s *Scene) Camera() *geometry.Camera {
	return s.camera
}

// Lights returns the light set built by Preprocess
func (s *Scene) Lights() *lights.Set {
	return s.lightSet
}

// PrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) PrimitiveCount() int {
	count := len(s.QuadLights)
	for _, shape := range s.Shapes {
		count += countPrimitives(shape)
	}
	return count
}

// countPrimitives counts primitives in a single shape, handling composite objects
func countPrimitives(shape geometry.Shape) int {
	switch obj := shape.(type) {
	case *geometry.TriangleMesh:
		return obj.TriangleCount()
	case *geometry.Box:
		return len(obj.Faces())
	default:
		return 1
	}
}
