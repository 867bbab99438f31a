package renderer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/df07/go-bdpt/pkg/integrator"
)

// Rejection reasons reported by the connections counter
const (
	reasonOccluded    = "occluded"
	reasonOutsideFilm = "outside_film"
	reasonSpecular    = "specular"
)

// Metrics exports render progress as Prometheus metrics. A nil *Metrics
// records nothing.
type Metrics struct {
	passes       prometheus.Counter
	samples      prometheus.Counter
	splats       prometheus.Counter
	connections  prometheus.Counter
	lightRehits  prometheus.Counter
	rejected     *prometheus.CounterVec
	passDuration prometheus.Histogram
}

// NewMetrics registers the render metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		passes: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdpt_passes_total",
			Help: "Completed progressive passes",
		}),
		samples: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdpt_samples_total",
			Help: "Camera samples taken",
		}),
		splats: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdpt_splats_total",
			Help: "Light tracing contributions merged into the framebuffer",
		}),
		connections: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdpt_connections_total",
			Help: "Subpath connections that contributed",
		}),
		lightRehits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdpt_light_rehits_total",
			Help: "Light walks stopped by hitting an emitter",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bdpt_connections_rejected_total",
			Help: "Subpath connections rejected by reason",
		}, []string{"reason"}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bdpt_pass_duration_seconds",
			Help:    "Wall time of one progressive pass",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
	}
}

// observePass records one completed pass
func (m *Metrics) observePass(samples, splats int, stats integrator.SampleStats, duration time.Duration) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.samples.Add(float64(samples))
	m.splats.Add(float64(splats))
	m.connections.Add(float64(stats.Connections))
	m.lightRehits.Add(float64(stats.LightRehits))
	m.rejected.WithLabelValues(reasonOccluded).Add(float64(stats.Occluded))
	m.rejected.WithLabelValues(reasonOutsideFilm).Add(float64(stats.OutsideFilm))
	m.rejected.WithLabelValues(reasonSpecular).Add(float64(stats.SpecularSkipped))
	m.passDuration.Observe(duration.Seconds())
}
