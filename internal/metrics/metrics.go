// Package metrics exports stage lifecycle calls as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/blockpipe/internal/pipeline"
)

const namespace = "blockpipe"

// Recorder implements pipeline.Recorder on a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     prometheus.Counter
}

var _ pipeline.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder. Go runtime and process collectors are
// registered alongside the stage metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_calls_total",
			Help:      "Lifecycle calls per module, phase and outcome.",
		}, []string{"module", "phase", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of lifecycle calls per module and phase.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}, []string{"module", "phase"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_evaluations_total",
			Help:      "Completed top-level pipeline evaluations.",
		}),
	}
	r.registry.MustRegister(
		r.calls,
		r.duration,
		r.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe implements pipeline.Recorder.
func (r *Recorder) Observe(module string, phase pipeline.Phase, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.calls.WithLabelValues(module, string(phase), status).Inc()
	r.duration.WithLabelValues(module, string(phase)).Observe(elapsed.Seconds())
}

// Evaluated counts one full evaluation of the root pipeline.
func (r *Recorder) Evaluated() {
	r.runs.Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
