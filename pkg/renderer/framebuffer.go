package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/df07/go-bdpt/pkg/core"
)

// Framebuffer accumulates the eye-side samples each pixel takes for itself and
// the light tracing splats that land on it. Both are divided by the number of
// samples every pixel has received, so all pixels must be rendered with the
// same sample count before the image is read.
type Framebuffer struct {
	width, height   int
	pixels          []PixelStats
	splats          []core.Vec3
	samplesPerPixel int
}

// NewFramebuffer creates an empty framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pixels: make([]PixelStats, width*height),
		splats: make([]core.Vec3, width*height),
	}
}

// Width returns the image width in pixels
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the image height in pixels
func (fb *Framebuffer) Height() int { return fb.height }

// Bounds returns the image rectangle
func (fb *Framebuffer) Bounds() image.Rectangle { return image.Rect(0, 0, fb.width, fb.height) }

// Pixel returns the own-sample statistics of a pixel
func (fb *Framebuffer) Pixel(x, y int) *PixelStats {
	return &fb.pixels[y*fb.width+x]
}

// MergePixels adds pass-local own samples laid out row-major over bounds,
// which must lie inside the image. It must not run concurrently with another
// merge or with Radiance.
func (fb *Framebuffer) MergePixels(bounds image.Rectangle, pixels []PixelStats) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := (y - bounds.Min.Y) * bounds.Dx()
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			fb.pixels[y*fb.width+x].Merge(pixels[row+x-bounds.Min.X])
		}
	}
}

// AddSplat adds a light tracing contribution to a pixel. Splats outside the
// image are dropped.
func (fb *Framebuffer) AddSplat(x, y int, c core.Vec3) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	fb.splats[y*fb.width+x] = fb.splats[y*fb.width+x].Add(c)
}

// Merge adds every splat of a buffer. It must not run concurrently with
// another Merge or with Radiance.
func (fb *Framebuffer) Merge(sb *SplatBuffer) {
	for _, s := range sb.Splats() {
		fb.AddSplat(s.X, s.Y, s.Color)
	}
}

// CompletePass records that every pixel received samples more samples
func (fb *Framebuffer) CompletePass(samples int) {
	fb.samplesPerPixel += samples
}

// SamplesPerPixel returns the number of samples every pixel has received
func (fb *Framebuffer) SamplesPerPixel() int { return fb.samplesPerPixel }

// Radiance returns the current estimate of a pixel in linear RGB
func (fb *Framebuffer) Radiance(x, y int) core.Vec3 {
	if fb.samplesPerPixel == 0 {
		return core.Vec3{}
	}
	i := y*fb.width + x
	return fb.pixels[i].ColorAccum.Add(fb.splats[i]).Multiply(1 / float64(fb.samplesPerPixel))
}

// MeanLuminance returns the average luminance over the image
func (fb *Framebuffer) MeanLuminance() float64 {
	var sum float64
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			sum += fb.Radiance(x, y).Luminance()
		}
	}
	return sum / float64(fb.width*fb.height)
}

// srgb encodes a linear radiance value, clamped to [0, 1]
func srgb(c core.Vec3) colorful.Color {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
		return colorful.Color{}
	}
	return colorful.LinearRgb(c.X, c.Y, c.Z).Clamped()
}

// Image returns the current estimate as an 8-bit sRGB image
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			r, g, b := srgb(fb.Radiance(x, y)).RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// Image64 returns the current estimate as a 16-bit sRGB image
func (fb *Framebuffer) Image64() *image.RGBA64 {
	img := image.NewRGBA64(fb.Bounds())
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			r, g, b, _ := srgb(fb.Radiance(x, y)).RGBA()
			img.SetRGBA64(x, y, color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff})
		}
	}
	return img
}
