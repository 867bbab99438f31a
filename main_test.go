package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		opts        renderOptions
		expectError bool
	}{
		{"cornell scene", renderOptions{scene: "cornell"}, false},
		{"cornell-specular scene", renderOptions{scene: "cornell-specular"}, false},
		{"parallel-planes scene", renderOptions{scene: "parallel-planes"}, false},
		{"overrides", renderOptions{scene: "cornell", width: 32, height: 16, spp: 3, maxDepth: 2}, false},

		{"unknown scene", renderOptions{scene: "nonexistent"}, true},
		{"empty scene name", renderOptions{scene: ""}, true},
		{"mesh scene without mesh", renderOptions{scene: "mesh"}, true},
		{"missing mesh file", renderOptions{scene: "mesh", mesh: "nonexistent.glb"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(tt.opts)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %+v, but got none", tt.opts)
				}
				if s != nil {
					t.Errorf("Expected nil scene for %+v, got %T", tt.opts, s)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for %+v: %v", tt.opts, err)
			}
			if s.Camera() == nil {
				t.Fatal("Expected a preprocessed scene")
			}
			if tt.opts.width > 0 && s.SamplingConfig.Width != tt.opts.width {
				t.Errorf("Expected width %d, got %d", tt.opts.width, s.SamplingConfig.Width)
			}
			if tt.opts.height > 0 && s.Camera().Height() != tt.opts.height {
				t.Errorf("Expected camera height %d, got %d", tt.opts.height, s.Camera().Height())
			}
			if tt.opts.spp > 0 && s.SamplingConfig.SamplesPerPixel != tt.opts.spp {
				t.Errorf("Expected %d spp, got %d", tt.opts.spp, s.SamplingConfig.SamplesPerPixel)
			}
			if tt.opts.maxDepth > 0 && s.SamplingConfig.MaxDepth != tt.opts.maxDepth {
				t.Errorf("Expected max depth %d, got %d", tt.opts.maxDepth, s.SamplingConfig.MaxDepth)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	tests := []struct {
		name     string
		opts     renderOptions
		expected string
	}{
		{"explicit path", renderOptions{scene: "cornell", out: "custom.png"}, "custom.png"},
		{"png default", renderOptions{scene: "cornell"}, filepath.Join("output", "cornell", "render_20240506_070809.png")},
		{"tiff default", renderOptions{scene: "parallel-planes", tiff: true}, filepath.Join("output", "parallel-planes", "render_20240506_070809.tiff")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := outputPath(tt.opts, now)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if path != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, path)
			}
			if tt.opts.out == "" {
				if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
					t.Errorf("Expected output directory %q to exist", filepath.Dir(path))
				}
			}
		})
	}
}

func TestProgressiveConfigFromFlags(t *testing.T) {
	tests := []struct {
		name           string
		passes         int
		spp            int
		expectedPasses int
	}{
		{"passes below spp", 4, 64, 4},
		{"passes above spp", 10, 3, 3},
		{"zero passes", 0, 8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := progressiveConfig(renderOptions{passes: tt.passes, tileSize: 16, workers: 3, integrator: "path-tracing"}, tt.spp)
			if config.MaxPasses != tt.expectedPasses {
				t.Errorf("Expected %d passes, got %d", tt.expectedPasses, config.MaxPasses)
			}
			if config.MaxSamplesPerPixel != tt.spp || config.TileSize != 16 || config.NumWorkers != 3 || config.Integrator != "path-tracing" {
				t.Errorf("Unexpected config %+v", config)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("Expected a valid config, got %v", err)
			}
		})
	}
}

func TestScenesCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"scenes"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, name := range []string{"cornell", "cornell-specular", "mesh", "parallel-planes"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("Expected scene %q in output, got:\n%s", name, out.String())
		}
	}
	if !strings.Contains(out.String(), "needs --mesh") {
		t.Errorf("Expected the mesh scene to mention --mesh, got:\n%s", out.String())
	}
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cornell.png")

	var logs bytes.Buffer
	root := newRootCmd()
	root.SetErr(&logs)
	root.SetArgs([]string{"render", "--scene", "cornell", "--width", "8", "--height", "8",
		"--spp", "2", "--max-depth", "3", "--passes", "2", "--tile-size", "4", "--scale", "2", "--out", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected an output file: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("Expected a 16x16 scaled image, got %v", img.Bounds())
	}
	if !strings.Contains(logs.String(), "render saved") {
		t.Errorf("Expected a render saved log line, got:\n%s", logs.String())
	}
}

func TestRenderCommand_UnknownIntegrator(t *testing.T) {
	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"render", "--scene", "cornell", "--width", "4", "--height", "4", "--spp", "1",
		"--integrator", "photon-mapping", "--out", filepath.Join(t.TempDir(), "x.png")})
	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown integrator") {
		t.Errorf("Expected an unknown integrator error, got %v", err)
	}
}
