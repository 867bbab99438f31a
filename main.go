package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/df07/go-bdpt/pkg/integrator"
	"github.com/df07/go-bdpt/pkg/renderer"
	"github.com/df07/go-bdpt/pkg/scene"
)

// renderOptions holds the render command flags. Zero values keep the scene's
// own settings.
type renderOptions struct {
	scene       string
	mesh        string
	out         string
	width       int
	height      int
	spp         int
	maxDepth    int
	integrator  string
	passes      int
	workers     int
	tileSize    int
	scale       int
	tiff        bool
	verbose     bool
	metricsAddr string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bdpt",
		Short:         "Bidirectional path tracer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newScenesCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to an image file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
			return runRender(cmd.Context(), opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.scene, "scene", "cornell", "Scene name (see 'bdpt scenes')")
	flags.StringVar(&opts.mesh, "mesh", "", "Mesh file (.gltf, .glb or .ply) for the mesh scene")
	flags.StringVarP(&opts.out, "out", "o", "", "Output file (default output/<scene>/render_<timestamp>.png)")
	flags.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	flags.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	flags.IntVar(&opts.spp, "spp", 0, "Samples per pixel (0 = scene default)")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum surface vertices per subpath (0 = scene default)")
	flags.StringVar(&opts.integrator, "integrator", integrator.NameBDPT, "Estimator: bdpt or path-tracing")
	flags.IntVar(&opts.passes, "passes", 4, "Number of progressive passes")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel workers (0 = CPU count)")
	flags.IntVar(&opts.tileSize, "tile-size", 64, "Tile size in pixels")
	flags.IntVar(&opts.scale, "scale", 1, "Enlarge the saved image by this integer factor")
	flags.BoolVar(&opts.tiff, "tiff", false, "Write a 16-bit TIFF instead of PNG")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while rendering")
	return cmd
}

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List the built-in scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, info := range scene.List() {
				desc := info.Description
				if info.NeedsMesh {
					desc += " (needs --mesh)"
				}
				fmt.Fprintf(w, "%s\t%s\n", info.Name, desc)
			}
			return w.Flush()
		},
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// createScene builds the named scene, applies the flag overrides and
// preprocesses it
func createScene(opts renderOptions) (*scene.Scene, error) {
	s, err := scene.Build(opts.scene, scene.Options{MeshPath: opts.mesh})
	if err != nil {
		return nil, err
	}

	if opts.width > 0 {
		s.SamplingConfig.Width = opts.width
	}
	if opts.height > 0 {
		s.SamplingConfig.Height = opts.height
	}
	if opts.spp > 0 {
		s.SamplingConfig.SamplesPerPixel = opts.spp
	}
	if opts.maxDepth > 0 {
		s.SamplingConfig.MaxDepth = opts.maxDepth
	}

	if err := s.Preprocess(); err != nil {
		return nil, err
	}
	return s, nil
}

// outputPath returns the file to write, creating output/<scene> when no
// explicit path was given
func outputPath(opts renderOptions, now time.Time) (string, error) {
	if opts.out != "" {
		return opts.out, nil
	}
	ext := ".png"
	if opts.tiff {
		ext = ".tiff"
	}
	dir := filepath.Join("output", strings.ReplaceAll(opts.scene, string(filepath.Separator), "_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("render_%s%s", now.Format("20060102_150405"), ext)), nil
}

// progressiveConfig derives the pass schedule from the scene's sample budget
func progressiveConfig(opts renderOptions, samplesPerPixel int) renderer.ProgressiveConfig {
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamplesPerPixel = samplesPerPixel
	config.MaxPasses = max(1, min(opts.passes, samplesPerPixel))
	config.NumWorkers = opts.workers
	config.Integrator = opts.integrator
	if opts.tileSize > 0 {
		config.TileSize = opts.tileSize
	}
	return config
}

func runRender(ctx context.Context, opts renderOptions, logger *slog.Logger) error {
	s, err := createScene(opts)
	if err != nil {
		return err
	}
	logger.Info("scene ready",
		"scene", s.Name,
		"primitives", s.PrimitiveCount(),
		"size", fmt.Sprintf("%dx%d", s.SamplingConfig.Width, s.SamplingConfig.Height),
		"spp", s.SamplingConfig.SamplesPerPixel,
		"maxDepth", s.SamplingConfig.MaxDepth,
		"integrator", opts.integrator)

	reg := prometheus.NewRegistry()
	metrics := renderer.NewMetrics(reg)
	if opts.metricsAddr != "" {
		stopMetrics := serveMetrics(opts.metricsAddr, reg, logger)
		defer stopMetrics()
	}

	pr, err := renderer.NewProgressiveRaytracer(s, s.SamplingConfig, progressiveConfig(opts, s.SamplingConfig.SamplesPerPixel), logger, metrics)
	if err != nil {
		return err
	}

	start := time.Now()
	passChan, errChan := pr.RenderProgressive(ctx)
	var last renderer.PassResult
	for result := range passChan {
		last = result
	}
	if err := <-errChan; err != nil {
		return err
	}

	stats := last.Stats
	logger.Info("render completed",
		"duration", time.Since(start),
		"samplesPerPixel", stats.SamplesPerPixel,
		"connections", stats.Sampling.Connections,
		"splats", stats.Splats,
		"lightRehits", stats.Sampling.LightRehits,
		"occluded", stats.Sampling.Occluded)

	path, err := outputPath(opts, time.Now())
	if err != nil {
		return err
	}

	fb := pr.Framebuffer()
	if opts.tiff {
		err = renderer.SaveTIFF(path, renderer.Scale(fb.Image64(), opts.scale))
	} else {
		err = renderer.SavePNG(path, renderer.Scale(fb.Image(), opts.scale))
	}
	if err != nil {
		return err
	}

	logger.Info("render saved", "path", path)
	return nil
}

// serveMetrics exposes reg over HTTP and returns a function that shuts the server down
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
