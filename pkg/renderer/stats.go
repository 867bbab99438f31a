package renderer

import (
	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/integrator"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels     int     // Total number of pixels rendered
	TotalSamples    int     // Total number of samples taken
	SamplesPerPixel int     // Samples every pixel has received so far
	Splats          int     // Light tracing splats merged so far
	MeanLuminance   float64 // Mean luminance of the current image
	Sampling        integrator.SampleStats
}

// add accumulates the counters of a tile into s
func (s *RenderStats) add(tile TileResult) {
	s.TotalSamples += tile.Samples
	s.Splats += tile.Splats.Len()
	s.Sampling.Add(tile.Stats)
}

// PixelStats tracks the camera-side samples of a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for own samples
	LuminanceAccum   float64   // Luminance accumulator
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// Merge adds the samples accumulated in other
func (ps *PixelStats) Merge(other PixelStats) {
	ps.ColorAccum = ps.ColorAccum.Add(other.ColorAccum)
	ps.LuminanceAccum += other.LuminanceAccum
	ps.LuminanceSqAccum += other.LuminanceSqAccum
	ps.SampleCount += other.SampleCount
}

// Variance returns the sample variance of the luminance of the own samples
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount < 2 {
		return 0
	}
	n := float64(ps.SampleCount)
	mean := ps.LuminanceAccum / n
	return max(0, (ps.LuminanceSqAccum/n-mean*mean)*n/(n-1))
}
