package renderer

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/integrator"
)

func TestFramebuffer_RadianceCombinesSamplesAndSplats(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.Pixel(1, 2).AddSample(core.NewVec3(1, 2, 3))
	fb.Pixel(1, 2).AddSample(core.NewVec3(1, 0, 1))
	fb.AddSplat(1, 2, core.NewVec3(2, 2, 2))
	fb.AddSplat(-1, 0, core.NewVec3(9, 9, 9)) // outside, dropped
	fb.AddSplat(4, 0, core.NewVec3(9, 9, 9))  // outside, dropped

	if got := fb.Radiance(1, 2); !got.IsZero() {
		t.Errorf("Expected zero radiance before any pass completes, got %v", got)
	}

	fb.CompletePass(2)
	expected := core.NewVec3(2, 2, 3)
	if got := fb.Radiance(1, 2); got.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if got := fb.Radiance(0, 0); !got.IsZero() {
		t.Errorf("Expected untouched pixel to stay black, got %v", got)
	}
	if fb.SamplesPerPixel() != 2 {
		t.Errorf("Expected 2 samples per pixel, got %d", fb.SamplesPerPixel())
	}
}

func TestFramebuffer_Image(t *testing.T) {
	fb := NewFramebuffer(3, 1)
	fb.Pixel(0, 0).AddSample(core.Vec3{})
	fb.Pixel(1, 0).AddSample(core.NewVec3(1, 1, 1))
	fb.Pixel(2, 0).AddSample(core.NewVec3(5, 0.5, math.NaN()))
	fb.CompletePass(1)

	img := fb.Image()
	if img.Bounds() != image.Rect(0, 0, 3, 1) {
		t.Fatalf("Expected 3x1 image, got %v", img.Bounds())
	}

	tests := []struct {
		name    string
		x       int
		r, g, b uint8
	}{
		{"Black", 0, 0, 0, 0},
		{"White", 1, 255, 255, 255},
		{"NaN is black", 2, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := img.RGBAAt(tt.x, 0)
			if absDiff(c.R, tt.r) > 1 || absDiff(c.G, tt.g) > 1 || absDiff(c.B, tt.b) > 1 || c.A != 255 {
				t.Errorf("Expected (%d,%d,%d,255), got %v", tt.r, tt.g, tt.b, c)
			}
		})
	}

	// sRGB brightens mid tones
	fb2 := NewFramebuffer(1, 1)
	fb2.Pixel(0, 0).AddSample(core.Splat(0.5))
	fb2.CompletePass(1)
	if c := fb2.Image().RGBAAt(0, 0); c.R < 185 || c.R > 190 {
		t.Errorf("Expected linear 0.5 to encode near 188, got %d", c.R)
	}
	if c := fb2.Image64().RGBA64At(0, 0); c.R < 185*257 || c.R > 190*257 || c.A != 0xffff {
		t.Errorf("Expected linear 0.5 to encode near %d, got %v", 188*257, c)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestPixelStats_Variance(t *testing.T) {
	var ps PixelStats
	if ps.Variance() != 0 {
		t.Errorf("Expected zero variance without samples, got %f", ps.Variance())
	}
	ps.AddSample(core.Splat(1))
	ps.AddSample(core.Splat(3))
	if math.Abs(ps.Variance()-2) > 1e-9 {
		t.Errorf("Expected variance 2, got %f", ps.Variance())
	}
	if ps.SampleCount != 2 {
		t.Errorf("Expected 2 samples, got %d", ps.SampleCount)
	}
}

func TestSplatBuffer(t *testing.T) {
	sb := NewSplatBuffer(1)
	sb.Add(integrator.Splat{X: 1, Y: 2, Color: core.Splat(1)}, integrator.Splat{X: 3, Y: 4, Color: core.Splat(2)})
	if sb.Len() != 2 {
		t.Fatalf("Expected 2 splats, got %d", sb.Len())
	}
	if sb.Splats()[1].X != 3 {
		t.Errorf("Expected splats in insertion order, got %v", sb.Splats())
	}
	sb.Reset()
	if sb.Len() != 0 {
		t.Errorf("Expected an empty buffer after Reset, got %d", sb.Len())
	}
}

// TestDeferredMerge_MatchesDirectAccumulation renders one tile through the
// tile renderer and again by adding every splat the moment it is produced
func TestDeferredMerge_MatchesDirectAccumulation(t *testing.T) {
	const size, samples = 8, 4
	s := newCornellTestScene(t, size, 4)
	bdpt, err := integrator.NewBDPT(s.SamplingConfig, nil)
	if err != nil {
		t.Fatalf("Failed to create estimator: %v", err)
	}

	tile := NewTile(0, image.Rect(0, 0, size, size))
	tr, err := NewTileRenderer(s, bdpt)
	if err != nil {
		t.Fatalf("Failed to create tile renderer: %v", err)
	}
	deferred := NewFramebuffer(size, size)
	result, err := tr.RenderTile(context.Background(), tile, samples)
	if err != nil {
		t.Fatalf("Failed to render tile: %v", err)
	}
	if result.Splats.Len() == 0 {
		t.Fatal("Expected the tile to produce splats")
	}
	if result.Samples != size*size*samples {
		t.Errorf("Expected %d samples, got %d", size*size*samples, result.Samples)
	}
	if deferred.Pixel(0, 0).SampleCount != 0 {
		t.Fatal("Expected the tile to leave the framebuffer untouched before merging")
	}
	deferred.MergePixels(tile.Bounds, tile.Pixels)
	deferred.Merge(result.Splats)
	deferred.CompletePass(samples)

	// Tile 0 draws from the same seed
	sampler := core.NewSeededSampler(42)
	ws := bdpt.NewWorkspace()
	direct := NewFramebuffer(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			for range samples {
				jitter := sampler.Get2D()
				r := bdpt.SamplePixel(s, float64(x)+jitter.X, float64(y)+jitter.Y, sampler, ws)
				direct.Pixel(x, y).AddSample(r.Color)
				for _, splat := range r.Splats {
					direct.AddSplat(splat.X, splat.Y, splat.Color)
				}
			}
		}
	}
	direct.CompletePass(samples)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			a, b := deferred.Radiance(x, y), direct.Radiance(x, y)
			if a.Subtract(b).Length() > 1e-12*(1+b.Length()) {
				t.Errorf("Pixel (%d,%d): deferred %v, direct %v", x, y, a, b)
			}
		}
	}
}

func TestRenderTile_Cancelled(t *testing.T) {
	s := newCornellTestScene(t, 4, 2)
	bdpt, err := integrator.NewBDPT(s.SamplingConfig, nil)
	if err != nil {
		t.Fatalf("Failed to create estimator: %v", err)
	}
	tr, err := NewTileRenderer(s, bdpt)
	if err != nil {
		t.Fatalf("Failed to create tile renderer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.RenderTile(ctx, NewTile(0, image.Rect(0, 0, 4, 4)), 1); err == nil {
		t.Error("Expected an error from a cancelled context")
	}
}
