package integrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/lights"
)

var (
	// ErrWorkspaceTooSmall is returned when a workspace cannot hold the configured walk depth
	ErrWorkspaceTooSmall = errors.New("workspace too small for max depth")
	// ErrUnknownIntegrator is returned by New for an unrecognised name
	ErrUnknownIntegrator = errors.New("unknown integrator")
)

// Integrator names accepted by New
const (
	NameBDPT        = "bdpt"
	NamePathTracing = "path-tracing"
)

// Both estimators satisfy Integrator
var (
	_ Integrator = (*BDPT)(nil)
	_ Integrator = (*PathTracer)(nil)
)

// Integrator estimates one pixel sample at a time. An Integrator may be
// shared between goroutines as long as each one owns its Workspace.
type Integrator interface {
	NewWorkspace() *Workspace
	CheckWorkspace(ws *Workspace) error
	SamplePixel(scene Scene, x, y float64, sampler core.Sampler, ws *Workspace) Result
}

// New creates the integrator registered under name. An empty name selects BDPT.
func New(name string, config core.SamplingConfig, logger *slog.Logger) (Integrator, error) {
	switch name {
	case "", NameBDPT:
		b, err := NewBDPT(config, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case NamePathTracing:
		pt, err := NewPathTracer(config, logger)
		if err != nil {
			return nil, err
		}
		return pt, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
}

// Scene is what the random walks need from the world
type Scene interface {
	// Intersect returns the closest hit along a unit-direction ray in (tMin, tMax)
	Intersect(ray core.Ray, tMin, tMax float64) (*geometry.SurfaceInteraction, bool)
	Camera() *geometry.Camera
	Lights() *lights.Set
}

// Splat is a light-tracing contribution addressed to a pixel other than the one being sampled
type Splat struct {
	X, Y  int
	Color core.Vec3
}

// SampleStats counts what happened while estimating one sample
type SampleStats struct {
	LightVertices   int
	EyeVertices     int
	LightRehits     int // Light walks stopped by hitting an emitter
	Connections     int // Connections that passed every test and contributed
	VisibilityTests int
	Occluded        int
	OutsideFilm     int
	SpecularSkipped int
	Splats          int
}

// Add accumulates other into s
func (s *SampleStats) Add(other SampleStats) {
	s.LightVertices += other.LightVertices
	s.EyeVertices += other.EyeVertices
	s.LightRehits += other.LightRehits
	s.Connections += other.Connections
	s.VisibilityTests += other.VisibilityTests
	s.Occluded += other.Occluded
	s.OutsideFilm += other.OutsideFilm
	s.SpecularSkipped += other.SpecularSkipped
	s.Splats += other.Splats
}

// Workspace holds the per-worker scratch buffers of the estimator.
// A workspace must not be shared between goroutines.
type Workspace struct {
	light  *Subpath
	eye    *Subpath
	splats []Splat
}

// NewWorkspace allocates walk buffers for the given subpath capacities
func NewWorkspace(lightCapacity, eyeCapacity int) *Workspace {
	return &Workspace{
		light: NewSubpath(lightCapacity),
		eye:   NewSubpath(eyeCapacity),
	}
}

// LightSubpath returns the light walk of the most recent sample
func (ws *Workspace) LightSubpath() *Subpath { return ws.light }

// EyeSubpath returns the eye walk of the most recent sample
func (ws *Workspace) EyeSubpath() *Subpath { return ws.eye }

// Result is the outcome of one pixel sample. Splats alias the workspace
// and stay valid until the next call with the same workspace.
type Result struct {
	Color  core.Vec3
	Splats []Splat
	Stats  SampleStats
}

// BDPT is a bidirectional path tracer with power-heuristic multiple
// importance sampling over every connection strategy.
type BDPT struct {
	config core.SamplingConfig
	logger *slog.Logger
}

// NewBDPT validates the sampling config and creates the estimator.
// A nil logger discards output.
func NewBDPT(config core.SamplingConfig, logger *slog.Logger) (*BDPT, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &BDPT{config: config, logger: core.LoggerOrNop(logger)}, nil
}

// MaxDepth returns the maximum number of surface vertices in either walk
func (b *BDPT) MaxDepth() int { return b.config.MaxDepth }

// lightCapacity is the light walk length: the emitter point plus MaxDepth-1 bounces
func (b *BDPT) lightCapacity() int { return b.config.MaxDepth }

// eyeCapacity is the eye walk length: the lens plus MaxDepth surface vertices
func (b *BDPT) eyeCapacity() int { return b.config.MaxDepth + 1 }

// NewWorkspace allocates a workspace sized for this estimator
func (b *BDPT) NewWorkspace() *Workspace {
	return NewWorkspace(b.lightCapacity(), b.eyeCapacity())
}

// CheckWorkspace reports whether ws can hold walks of the configured depth
func (b *BDPT) CheckWorkspace(ws *Workspace) error {
	if ws == nil {
		return fmt.Errorf("%w: nil workspace", ErrWorkspaceTooSmall)
	}
	if ws.light.Cap() < b.lightCapacity() || ws.eye.Cap() < b.eyeCapacity() {
		return fmt.Errorf("%w: have %d light and %d eye slots, need %d and %d",
			ErrWorkspaceTooSmall, ws.light.Cap(), ws.eye.Cap(), b.lightCapacity(), b.eyeCapacity())
	}
	return nil
}

// SamplePixel estimates the radiance through the continuous pixel coordinate
// (x, y). It builds a fresh light walk and eye walk, evaluates every
// connection strategy, and returns the pixel contribution together with the
// light-tracing splats addressed to other pixels.
//
// The workspace must have passed CheckWorkspace.
func (b *BDPT) SamplePixel(scene Scene, x, y float64, sampler core.Sampler, ws *Workspace) Result {
	var stats SampleStats
	ws.splats = ws.splats[:0]

	b.buildLightSubpath(scene, sampler, ws.light, &stats)
	ws.splats = b.connectToCamera(scene, ws.light, ws.splats, &stats)

	color := b.buildEyeSubpath(scene, x, y, sampler, ws.eye, &stats)
	color = color.Add(b.connectSubpaths(scene, ws.light, ws.eye, &stats))

	stats.LightVertices = ws.light.Len()
	stats.EyeVertices = ws.eye.Len()
	stats.Splats = len(ws.splats)

	if b.logger.Enabled(context.Background(), slog.LevelDebug) {
		b.logger.Debug("pixel sample",
			"x", x, "y", y,
			"lightVertices", stats.LightVertices,
			"eyeVertices", stats.EyeVertices,
			"connections", stats.Connections,
			"splats", stats.Splats)
	}

	return Result{Color: color, Splats: ws.splats, Stats: stats}
}
