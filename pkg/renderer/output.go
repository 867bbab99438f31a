package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// SavePNG writes an image as PNG
func SavePNG(path string, img image.Image) error {
	return save(path, img, png.Encode)
}

// SaveTIFF writes an image as a deflate-compressed TIFF. An *image.RGBA64
// keeps 16 bits per channel.
func SaveTIFF(path string, img image.Image) error {
	return save(path, img, func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	})
}

func save(path string, img image.Image, encode func(io.Writer, image.Image) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return file.Close()
}

// Scale enlarges an image by an integer factor with nearest neighbor
// sampling, which keeps the per-pixel noise visible
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA64(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
