package geometry

import (
	"math"

	"github.com/df07/go-bdpt/pkg/core"
)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Center core.Vec3 // Pinhole position
	LookAt core.Vec3 // Point the camera looks at
	Up     core.Vec3 // Approximate up direction
	VFov   float64   // Vertical field of view in degrees
	Width  int       // Image width in pixels
	Height int       // Image height in pixels
}

// Camera is a pinhole camera with an image plane at unit distance along Forward.
// Film coordinates run over [0,1)², with v = 0 at the top row.
type Camera struct {
	config     CameraConfig
	forward    core.Vec3
	right      core.Vec3
	up         core.Vec3
	halfWidth  float64 // image plane half extents at unit distance
	halfHeight float64
	filmArea   float64
}

// NewCamera creates a pinhole camera from the config
func NewCamera(config CameraConfig) *Camera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	right := forward.Cross(config.Up).Normalize()
	up := right.Cross(forward)

	halfHeight := math.Tan(config.VFov * math.Pi / 360)
	halfWidth := halfHeight * float64(config.Width) / float64(config.Height)

	return &Camera{
		config:     config,
		forward:    forward,
		right:      right,
		up:         up,
		halfWidth:  halfWidth,
		halfHeight: halfHeight,
		filmArea:   4 * halfWidth * halfHeight,
	}
}

// Position returns the pinhole position
func (c *Camera) Position() core.Vec3 { return c.config.Center }

// Forward returns the unit viewing direction, used as the lens normal
func (c *Camera) Forward() core.Vec3 { return c.forward }

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.config.Width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.config.Height }

// PrimaryRayDirection returns the unit direction through the continuous pixel
// coordinate (x, y), with x in [0, Width) and y in [0, Height) from the top row
func (c *Camera) PrimaryRayDirection(x, y float64) core.Vec3 {
	u := 2*x/float64(c.config.Width) - 1
	v := 1 - 2*y/float64(c.config.Height)
	return c.forward.
		Add(c.right.Multiply(u * c.halfWidth)).
		Add(c.up.Multiply(v * c.halfHeight)).
		Normalize()
}

// FilmPosition projects a world-space direction from the pinhole onto the film.
// It reports false when the direction does not land inside the image.
func (c *Camera) FilmPosition(direction core.Vec3) (core.Vec2, bool) {
	depth := direction.Dot(c.forward)
	if depth <= 0 {
		return core.Vec2{}, false
	}

	x := direction.Dot(c.right) / depth
	y := direction.Dot(c.up) / depth
	u := 0.5 * (x/c.halfWidth + 1)
	v := 0.5 * (1 - y/c.halfHeight)
	if u < 0 || u >= 1 || v < 0 || v >= 1 {
		return core.Vec2{}, false
	}
	return core.NewVec2(u, v), true
}

// PixelAt maps a film position to integer pixel coordinates
func (c *Camera) PixelAt(film core.Vec2) (int, int) {
	x := min(int(film.X*float64(c.config.Width)), c.config.Width-1)
	y := min(int(film.Y*float64(c.config.Height)), c.config.Height-1)
	return x, y
}

// SensorConstFactor is the constant part of the primary ray density per
// projected solid angle: p = SensorConstFactor / cos⁴θ
func (c *Camera) SensorConstFactor() float64 {
	return 1 / c.filmArea
}

// FluxToRadianceCoefficient is the constant part of the sensor importance
// used to turn a light-tracing splat into radiance: We = coefficient / cos⁴θ
func (c *Camera) FluxToRadianceCoefficient() float64 {
	return 1 / c.filmArea
}
