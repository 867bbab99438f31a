package core

import (
	"math"
	"testing"
)

func TestNewFrame_Orthonormal(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 0, 0),
		NewVec3(0, 0, -1),
		NewVec3(1, 1, 1).Normalize(),
	}

	for _, n := range normals {
		f := NewFrame(n)
		if math.Abs(f.Tangent.Length()-1) > 1e-9 || math.Abs(f.Binormal.Length()-1) > 1e-9 {
			t.Errorf("Expected unit basis vectors for normal %v", n)
		}
		if math.Abs(f.Tangent.Dot(f.Normal)) > 1e-9 || math.Abs(f.Binormal.Dot(f.Normal)) > 1e-9 ||
			math.Abs(f.Tangent.Dot(f.Binormal)) > 1e-9 {
			t.Errorf("Expected orthogonal basis for normal %v", n)
		}
	}
}

func TestSampleCosineHemisphere(t *testing.T) {
	sampler := NewSeededSampler(42)
	frame := NewFrame(NewVec3(0, 0, 1))

	const n = 20000
	sumCos := 0.0
	for i := 0; i < n; i++ {
		dir, cosTheta := SampleCosineHemisphere(frame, sampler.Get2D())
		if math.Abs(dir.Length()-1) > 1e-9 {
			t.Fatalf("Expected unit direction, got length %f", dir.Length())
		}
		if cosTheta < 0 || math.Abs(cosTheta-dir.Z) > 1e-9 {
			t.Fatalf("Expected returned cosine %f to match direction z %f", cosTheta, dir.Z)
		}
		sumCos += cosTheta
	}

	// E[cos] under a cosine-weighted hemisphere is 2/3
	mean := sumCos / n
	if math.Abs(mean-2.0/3.0) > 0.01 {
		t.Errorf("Expected mean cosine near 2/3, got %f", mean)
	}
}

func TestAABB_Hit(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		expected bool
	}{
		{"Through center", NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 1)), true},
		{"Miss above", NewRay(NewVec3(0, 2, -5), NewVec3(0, 0, 1)), false},
		{"Pointing away", NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, -1)), false},
		{"Parallel inside slab", NewRay(NewVec3(0.5, 0, -5), NewVec3(0, 0, 1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Hit(tt.ray, 0.001, math.Inf(1)); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSamplingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SamplingConfig)
		wantErr bool
	}{
		{"Default is valid", func(c *SamplingConfig) {}, false},
		{"Zero width", func(c *SamplingConfig) { c.Width = 0 }, true},
		{"Zero samples", func(c *SamplingConfig) { c.SamplesPerPixel = 0 }, true},
		{"Zero depth", func(c *SamplingConfig) { c.MaxDepth = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSamplingConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPowerHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		nf       int
		fPdf     float64
		ng       int
		gPdf     float64
		expected float64
	}{
		{"Equal PDFs", 1, 0.5, 1, 0.5, 0.5},
		{"First PDF zero", 1, 0, 1, 0.5, 0},
		{"Second PDF zero", 1, 0.5, 1, 0, 1},
		{"Both zero", 1, 0, 1, 0, 0},
		{"Two to one", 1, 2, 1, 1, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PowerHeuristic(tt.nf, tt.fPdf, tt.ng, tt.gPdf)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("PowerHeuristic: got %f, expected %f", result, tt.expected)
			}
		})
	}
}
