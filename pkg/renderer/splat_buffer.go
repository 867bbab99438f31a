package renderer

import (
	"github.com/df07/go-bdpt/pkg/integrator"
)

// SplatBuffer collects the light tracing splats of one tile. It is written by
// a single worker and merged into the framebuffer after the tile completes.
type SplatBuffer struct {
	splats []integrator.Splat
}

// NewSplatBuffer creates a buffer with room for capacity splats
func NewSplatBuffer(capacity int) *SplatBuffer {
	return &SplatBuffer{splats: make([]integrator.Splat, 0, capacity)}
}

// Add appends splats to the buffer. The slice is copied.
func (sb *SplatBuffer) Add(splats ...integrator.Splat) {
	sb.splats = append(sb.splats, splats...)
}

// Splats returns the buffered splats in the order they were added
func (sb *SplatBuffer) Splats() []integrator.Splat {
	return sb.splats
}

// Len returns the number of buffered splats
func (sb *SplatBuffer) Len() int {
	return len(sb.splats)
}

// Reset empties the buffer and keeps its storage
func (sb *SplatBuffer) Reset() {
	sb.splats = sb.splats[:0]
}
