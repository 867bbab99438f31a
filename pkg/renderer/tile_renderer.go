package renderer

import (
	"context"
	"fmt"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/integrator"
)

// TileResult contains the result from rendering a tile
type TileResult struct {
	TileID  int
	Samples int          // Camera samples taken in the tile
	Splats  *SplatBuffer // Splats produced by the tile, merged after the pass
	Stats   integrator.SampleStats
}

// TileRenderer renders the pixels of one tile at a time with its own
// estimator workspace. A tile renderer must not be shared between goroutines.
type TileRenderer struct {
	scene      integrator.Scene
	integrator integrator.Integrator
	workspace  *integrator.Workspace
}

// NewTileRenderer creates a tile renderer with a workspace sized for the estimator
func NewTileRenderer(scene integrator.Scene, estimator integrator.Integrator) (*TileRenderer, error) {
	ws := estimator.NewWorkspace()
	if err := estimator.CheckWorkspace(ws); err != nil {
		return nil, err
	}
	return &TileRenderer{scene: scene, integrator: estimator, workspace: ws}, nil
}

// RenderTile takes samples jittered camera samples in every pixel of the tile.
// Own samples and splats both stay in the tile until the caller merges them,
// so an interrupted tile leaves the framebuffer untouched.
func (tr *TileRenderer) RenderTile(ctx context.Context, tile *Tile, samples int) (TileResult, error) {
	sampler := core.NewRandomSampler(tile.Random)
	tile.reset()
	result := TileResult{TileID: tile.ID, Splats: tile.Splats}

	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("tile %d: %w", tile.ID, err)
		}
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			pixel := tile.pixel(x, y)
			for range samples {
				jitter := sampler.Get2D()
				sample := tr.integrator.SamplePixel(tr.scene, float64(x)+jitter.X, float64(y)+jitter.Y, sampler, tr.workspace)
				pixel.AddSample(sample.Color)
				tile.Splats.Add(sample.Splats...)
				result.Stats.Add(sample.Stats)
			}
			result.Samples += samples
		}
	}

	return result, nil
}
