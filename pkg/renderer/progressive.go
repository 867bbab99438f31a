package renderer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/integrator"
)

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int // Size of each tile (64x64 recommended)
	InitialSamples     int // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int // Maximum total samples per pixel
	MaxPasses          int // Maximum number of passes
	NumWorkers         int    // Number of parallel workers (0 = use CPU count)
	Integrator         string // Estimator name passed to integrator.New ("" = bdpt)
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           64,
		InitialSamples:     1,
		MaxSamplesPerPixel: 50,
		MaxPasses:          7,
		NumWorkers:         0, // Auto-detect CPU count
		Integrator:         integrator.NameBDPT,
	}
}

// Validate reports the first contract violation in the config
func (c ProgressiveConfig) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d must be positive", core.ErrInvalidConfig, c.TileSize)
	case c.MaxPasses <= 0:
		return fmt.Errorf("%w: max passes %d must be positive", core.ErrInvalidConfig, c.MaxPasses)
	case c.InitialSamples <= 0:
		return fmt.Errorf("%w: initial samples %d must be positive", core.ErrInvalidConfig, c.InitialSamples)
	case c.MaxSamplesPerPixel < c.InitialSamples:
		return fmt.Errorf("%w: max samples %d below initial samples %d",
			core.ErrInvalidConfig, c.MaxSamplesPerPixel, c.InitialSamples)
	}
	return nil
}

// ProgressiveRaytracer renders an image in passes of increasing sample count.
// Every pass gives every pixel the same number of samples, so the light
// tracing splats stay normalized by a single per-pixel count.
type ProgressiveRaytracer struct {
	scene       integrator.Scene
	width       int
	height      int
	config      ProgressiveConfig
	tiles       []*Tile
	framebuffer *Framebuffer
	workerPool  *WorkerPool
	logger      *slog.Logger
	metrics     *Metrics
	currentPass int
	stats       RenderStats
}

// NewProgressiveRaytracer creates a progressive renderer for a preprocessed
// scene. The camera must have been built for the sampling config's image size.
// A nil logger discards output and nil metrics record nothing.
func NewProgressiveRaytracer(scene integrator.Scene, sampling core.SamplingConfig, config ProgressiveConfig,
	logger *slog.Logger, metrics *Metrics) (*ProgressiveRaytracer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	estimator, err := integrator.New(config.Integrator, sampling, logger)
	if err != nil {
		return nil, err
	}
	camera := scene.Camera()
	if camera.Width() != sampling.Width || camera.Height() != sampling.Height {
		return nil, fmt.Errorf("%w: camera is %dx%d but the image is %dx%d", core.ErrInvalidConfig,
			camera.Width(), camera.Height(), sampling.Width, sampling.Height)
	}

	workerPool, err := NewWorkerPool(scene, estimator, config.NumWorkers)
	if err != nil {
		return nil, err
	}

	return &ProgressiveRaytracer{
		scene:       scene,
		width:       sampling.Width,
		height:      sampling.Height,
		config:      config,
		tiles:       NewTileGrid(sampling.Width, sampling.Height, config.TileSize),
		framebuffer: NewFramebuffer(sampling.Width, sampling.Height),
		workerPool:  workerPool,
		logger:      core.LoggerOrNop(logger),
		metrics:     metrics,
		stats:       RenderStats{TotalPixels: sampling.Width * sampling.Height},
	}, nil
}

// Framebuffer returns the accumulated estimate
func (pr *ProgressiveRaytracer) Framebuffer() *Framebuffer {
	return pr.framebuffer
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// First pass is a quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// The final pass takes whatever is left
	if passNumber == pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return targetSamples
}

// RenderPass renders one progressive pass. Tiles render in parallel and their
// own samples and splats are merged in tile order once every tile has
// finished. A failed pass leaves the framebuffer as it was.
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int) (*image.RGBA, RenderStats, error) {
	pr.currentPass = passNumber
	targetSamples := pr.getSamplesForPass(passNumber)
	samples := targetSamples - pr.framebuffer.SamplesPerPixel()
	if samples <= 0 {
		return pr.framebuffer.Image(), pr.stats, nil
	}

	pr.logger.Info("rendering pass",
		"pass", passNumber,
		"targetSamples", targetSamples,
		"samples", samples,
		"integrator", pr.config.Integrator,
		"workers", pr.workerPool.NumWorkers(),
		"tiles", len(pr.tiles))

	start := time.Now()
	results, err := pr.workerPool.RenderPass(ctx, pr.tiles, samples)
	if err != nil {
		return nil, RenderStats{}, fmt.Errorf("pass %d: %w", passNumber, err)
	}

	var pass RenderStats
	for i, result := range results {
		pr.framebuffer.MergePixels(pr.tiles[i].Bounds, pr.tiles[i].Pixels)
		pr.framebuffer.Merge(result.Splats)
		pr.tiles[i].PassesCompleted++
		pass.add(result)
	}
	pr.framebuffer.CompletePass(samples)
	pr.metrics.observePass(pass.TotalSamples, pass.Splats, pass.Sampling, time.Since(start))

	pr.stats.TotalSamples += pass.TotalSamples
	pr.stats.Splats += pass.Splats
	pr.stats.Sampling.Add(pass.Sampling)
	pr.stats.SamplesPerPixel = pr.framebuffer.SamplesPerPixel()
	pr.stats.MeanLuminance = pr.framebuffer.MeanLuminance()

	return pr.framebuffer.Image(), pr.stats, nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	Duration   time.Duration
	IsLast     bool
}

// RenderProgressive renders every pass in the background. Each completed pass
// is sent on the first channel. A failure or cancellation is sent on the
// error channel. Both channels are closed when rendering stops.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		pr.logger.Info("starting progressive rendering",
			"passes", pr.config.MaxPasses,
			"maxSamples", pr.config.MaxSamplesPerPixel,
			"size", fmt.Sprintf("%dx%d", pr.width, pr.height))

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			if err := ctx.Err(); err != nil {
				pr.logger.Info("rendering cancelled", "pass", pass)
				errChan <- err
				return
			}

			start := time.Now()
			img, stats, err := pr.RenderPass(ctx, pass)
			if err != nil {
				errChan <- err
				return
			}
			duration := time.Since(start)

			pr.logger.Info("pass completed",
				"pass", pass,
				"duration", duration,
				"samplesPerPixel", stats.SamplesPerPixel,
				"splats", stats.Splats,
				"meanLuminance", stats.MeanLuminance)

			isLast := pass == pr.config.MaxPasses || stats.SamplesPerPixel >= pr.config.MaxSamplesPerPixel
			result := PassResult{
				PassNumber: pass,
				Image:      img,
				Stats:      stats,
				Duration:   duration,
				IsLast:     isLast,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if isLast {
				return
			}
		}
	}()

	return passChan, errChan
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int             // Unique tile identifier
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int             // Number of passes completed for this tile
	Random          *rand.Rand      // Tile-specific random generator for deterministic results
	Pixels          []PixelStats    // Own samples of the pass in progress, row-major over Bounds
	Splats          *SplatBuffer    // Splats of the pass in progress
}

// NewTile creates a new tile with the specified bounds
func NewTile(id int, bounds image.Rectangle) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
		Random: rand.New(rand.NewSource(int64(id + 42))), // +42 to avoid seed 0
		Pixels: make([]PixelStats, bounds.Dx()*bounds.Dy()),
		Splats: NewSplatBuffer(bounds.Dx() * bounds.Dy()),
	}
}

// pixel returns the pass-local statistics of image pixel (x, y)
func (t *Tile) pixel(x, y int) *PixelStats {
	return &t.Pixels[(y-t.Bounds.Min.Y)*t.Bounds.Dx()+(x-t.Bounds.Min.X)]
}

// reset clears the pass-local samples and splats
func (t *Tile) reset() {
	clear(t.Pixels)
	t.Splats.Reset()
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1)))
			tileID++
		}
	}

	return tiles
}
