package renderer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func testImage() *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 2))
	img.SetRGBA64(0, 0, color.RGBA64{R: 0xffff, A: 0xffff})
	img.SetRGBA64(1, 0, color.RGBA64{G: 0x1234, A: 0xffff})
	img.SetRGBA64(0, 1, color.RGBA64{B: 0xffff, A: 0xffff})
	img.SetRGBA64(1, 1, color.RGBA64{R: 0x8000, G: 0x8000, B: 0x8000, A: 0xffff})
	return img
}

func decodeFile(t *testing.T, path string, decode func(*os.File) (image.Image, error)) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()
	img, err := decode(f)
	if err != nil {
		t.Fatalf("Failed to decode %s: %v", path, err)
	}
	return img
}

func TestSaveTIFF_Keeps16Bits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.tiff")
	if err := SaveTIFF(path, testImage()); err != nil {
		t.Fatalf("Failed to save TIFF: %v", err)
	}

	img := decodeFile(t, path, func(f *os.File) (image.Image, error) { return tiff.Decode(f) })
	_, g, _, _ := img.At(1, 0).RGBA()
	if g != 0x1234 {
		t.Errorf("Expected 16-bit green 0x1234, got %#x", g)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.png")
	if err := SavePNG(path, testImage()); err != nil {
		t.Fatalf("Failed to save PNG: %v", err)
	}

	img := decodeFile(t, path, func(f *os.File) (image.Image, error) { return png.Decode(f) })
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("Expected 2x2 image, got %v", img.Bounds())
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
		t.Errorf("Expected red pixel, got %#x", r)
	}

	if err := SavePNG(filepath.Join(t.TempDir(), "missing", "render.png"), testImage()); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestScale(t *testing.T) {
	src := testImage()
	if Scale(src, 1) != image.Image(src) {
		t.Error("Expected factor 1 to return the source image")
	}

	scaled := Scale(src, 3)
	if scaled.Bounds() != image.Rect(0, 0, 6, 6) {
		t.Fatalf("Expected 6x6 image, got %v", scaled.Bounds())
	}
	// every pixel of a 3x3 block copies its source pixel
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if scaled.At(x, y) != src.At(x/3, y/3) {
				t.Errorf("Pixel (%d,%d): expected %v, got %v", x, y, src.At(x/3, y/3), scaled.At(x, y))
			}
		}
	}
}
