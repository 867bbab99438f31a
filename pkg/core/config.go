package core

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a configuration violates its contract
var ErrInvalidConfig = errors.New("invalid configuration")

// SamplingConfig holds the image and random walk settings for a render
type SamplingConfig struct {
	Width           int // Image width in pixels
	Height          int // Image height in pixels
	SamplesPerPixel int // Samples per pixel for one full render
	MaxDepth        int // Maximum number of surface vertices in either subpath
}

// DefaultSamplingConfig returns the settings used when a scene does not provide its own
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           256,
		Height:          256,
		SamplesPerPixel: 64,
		MaxDepth:        6,
	}
}

// Validate reports the first contract violation in the config
func (c SamplingConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	case c.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples per pixel %d must be positive", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxDepth < 1:
		return fmt.Errorf("%w: max depth %d must be at least 1", ErrInvalidConfig, c.MaxDepth)
	}
	return nil
}
