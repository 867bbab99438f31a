package renderer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-bdpt/pkg/integrator"
)

// WorkerPool renders the tiles of a pass in parallel. Each worker owns a
// TileRenderer and with it an estimator workspace.
type WorkerPool struct {
	renderers  chan *TileRenderer
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// A non-positive count uses one worker per CPU.
func NewWorkerPool(scene integrator.Scene, estimator integrator.Integrator, numWorkers int) (*WorkerPool, error) {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		renderers:  make(chan *TileRenderer, numWorkers),
		numWorkers: numWorkers,
	}
	for range numWorkers {
		tr, err := NewTileRenderer(scene, estimator)
		if err != nil {
			return nil, err
		}
		wp.renderers <- tr
	}
	return wp, nil
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// RenderPass renders every tile with samples samples per pixel and returns
// the tile results indexed like tiles. The first error cancels the rest.
func (wp *WorkerPool) RenderPass(ctx context.Context, tiles []*Tile, samples int) ([]TileResult, error) {
	results := make([]TileResult, len(tiles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)
	for i, tile := range tiles {
		g.Go(func() error {
			tr := <-wp.renderers
			defer func() { wp.renderers <- tr }()

			result, err := tr.RenderTile(ctx, tile, samples)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
