package scene

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/integrator"
	"github.com/df07/go-bdpt/pkg/material"
)

// Scene satisfies the estimator's scene contract
var _ integrator.Scene = (*Scene)(nil)

func TestBuiltInScenesPreprocess(t *testing.T) {
	for _, name := range []string{"cornell", "cornell-specular", "parallel-planes"} {
		t.Run(name, func(t *testing.T) {
			s, err := Build(name, Options{})
			if err != nil {
				t.Fatalf("Failed to build scene: %v", err)
			}
			if err := s.Preprocess(); err != nil {
				t.Fatalf("Failed to preprocess: %v", err)
			}
			if s.Lights() == nil || s.Lights().Area() <= 0 {
				t.Error("Expected a light set with positive area")
			}
			if s.Camera().Width() != s.SamplingConfig.Width || s.Camera().Height() != s.SamplingConfig.Height {
				t.Errorf("Expected camera %dx%d, got %dx%d", s.SamplingConfig.Width, s.SamplingConfig.Height,
					s.Camera().Width(), s.Camera().Height())
			}

			// the center ray must hit something
			ray := core.NewRay(s.Camera().Position(), s.Camera().PrimaryRayDirection(
				float64(s.SamplingConfig.Width)/2, float64(s.SamplingConfig.Height)/2))
			if _, ok := s.Intersect(ray, 1e-4, math.Inf(1)); !ok {
				t.Error("Expected the center ray to hit the scene")
			}
		})
	}
}

func TestCornellScene_CeilingLightFacesDown(t *testing.T) {
	s := NewCornellScene()
	if len(s.QuadLights) != 1 {
		t.Fatalf("Expected 1 light, got %d", len(s.QuadLights))
	}
	n := s.QuadLights[0].Normal
	if n.Subtract(core.NewVec3(0, -1, 0)).Length() > 1e-12 {
		t.Errorf("Expected light normal (0,-1,0), got %v", n)
	}
	if math.Abs(s.QuadLights[0].Area()-130*130) > 1e-9 {
		t.Errorf("Expected light area %f, got %f", 130.0*130.0, s.QuadLights[0].Area())
	}
	// five walls plus two boxes of six faces, plus the light
	if got := s.PrimitiveCount(); got != 5+12+1 {
		t.Errorf("Expected 18 primitives, got %d", got)
	}
}

func TestCornellSpecularScene_Spheres(t *testing.T) {
	s := NewCornellSpecularScene()
	// five walls plus two spheres, plus the light
	if got := s.PrimitiveCount(); got != 5+2+1 {
		t.Errorf("Expected 8 primitives, got %d", got)
	}
	kinds := map[material.Kind]int{}
	for _, shape := range s.Shapes {
		if sphere, ok := shape.(*geometry.Sphere); ok {
			kinds[sphere.Material.Kind()]++
		}
	}
	if kinds[material.KindMirror] != 1 || kinds[material.KindGlass] != 1 {
		t.Errorf("Expected one mirror and one glass sphere, got %v", kinds)
	}
}

func TestPreprocess_Errors(t *testing.T) {
	tests := []struct {
		name    string
		scene   func() *Scene
		wantErr error
	}{
		{
			name: "No light",
			scene: func() *Scene {
				s := NewScene("dark", geometry.CameraConfig{LookAt: core.NewVec3(0, 0, -1), Up: core.NewVec3(0, 1, 0), VFov: 40},
					core.DefaultSamplingConfig())
				s.AddShapes(NewGroundQuad(core.Vec3{}, 2, nil))
				return s
			},
			wantErr: ErrNoLight,
		},
		{
			name: "Invalid config",
			scene: func() *Scene {
				s := NewCornellScene()
				s.SamplingConfig.MaxDepth = 0
				return s
			},
			wantErr: core.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene().Preprocess()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewGroundQuad_FacesUp(t *testing.T) {
	q := NewGroundQuad(core.NewVec3(1, 2, 3), 4, nil)
	if q.Normal.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-12 {
		t.Errorf("Expected normal (0,1,0), got %v", q.Normal)
	}
	if math.Abs(q.Area()-16) > 1e-12 {
		t.Errorf("Expected area 16, got %f", q.Area())
	}
}

func TestParallelPlanes_ExpectedRadiance(t *testing.T) {
	p := DefaultParallelPlanes()

	// Known value of the unit-distance 0.5×0.5 square form factor
	f := 4 * cornerFormFactor(0.25, 0.25, 1)
	if math.Abs(f-0.0735) > 5e-4 {
		t.Errorf("Expected form factor near 0.0735, got %f", f)
	}
	if math.Abs(p.ExpectedRadiance()-0.8*f) > 1e-12 {
		t.Errorf("Expected radiance %f, got %f", 0.8*f, p.ExpectedRadiance())
	}

	// A very large emitter approaches the full hemisphere
	wide := 4 * cornerFormFactor(1e4, 1e4, 1)
	if math.Abs(wide-1) > 1e-3 {
		t.Errorf("Expected form factor near 1 for an infinite emitter, got %f", wide)
	}
}

func TestRegistry(t *testing.T) {
	scenes := List()
	if len(scenes) != 4 {
		t.Fatalf("Expected 4 registered scenes, got %d", len(scenes))
	}
	for i := 1; i < len(scenes); i++ {
		if scenes[i-1].Name >= scenes[i].Name {
			t.Errorf("Expected scenes sorted by name, got %q before %q", scenes[i-1].Name, scenes[i].Name)
		}
	}

	if _, err := Build("nope", Options{}); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
	if _, err := Build("mesh", Options{}); !errors.Is(err, ErrMeshRequired) {
		t.Errorf("Expected ErrMeshRequired, got %v", err)
	}
}

func TestMeshScene_FromPLY(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 2
property list uchar int vertex_indices
end_header
-1 0 -1
1 0 -1
1 2 -1
-1 2 -1
3 0 1 2
3 0 2 3
`
	path := filepath.Join(t.TempDir(), "panel.ply")
	if err := os.WriteFile(path, []byte(ply), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Build("mesh", Options{MeshPath: path})
	if err != nil {
		t.Fatalf("Failed to build mesh scene: %v", err)
	}
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Failed to preprocess: %v", err)
	}

	mesh, ok := s.Shapes[len(s.Shapes)-1].(*geometry.TriangleMesh)
	if !ok {
		t.Fatalf("Expected the last shape to be the mesh, got %T", s.Shapes[len(s.Shapes)-1])
	}
	box := mesh.BoundingBox()
	if math.Abs(box.Max.Y-meshFitSize) > 1e-3 || math.Abs(box.Min.Y) > 1e-3 {
		t.Errorf("Expected the mesh to stand on the floor with height %f, got %v", meshFitSize, box)
	}
}
