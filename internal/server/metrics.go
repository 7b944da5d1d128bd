package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alnah/go-photocal"
)

// Metrics holds the service collectors on a private registry, so several
// servers (tests included) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	states        *prometheus.CounterVec
	degraded      prometheus.Counter
	fieldsStaged  prometheus.Counter
	fieldsSkipped *prometheus.CounterVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photocal_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photocal_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "photocal_make_in_flight",
				Help: "Number of calendar builds in progress",
			},
		),
		states: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photocal_pipeline_states_total",
				Help: "Total number of pipeline state entries by state",
			},
			[]string{"state"},
		),
		degraded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "photocal_degraded_exports_total",
				Help: "Total number of exports that failed and returned an empty document",
			},
		),
		fieldsStaged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "photocal_fields_staged_total",
				Help: "Total number of upload fields written to staging",
			},
		),
		fieldsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photocal_fields_skipped_total",
				Help: "Total number of upload fields skipped by reason",
			},
			[]string{"reason"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveState counts a pipeline state entry.
func (m *Metrics) ObserveState(_ context.Context, s photocal.State) {
	m.states.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) observeRequest(route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeResult(res *photocal.Result) {
	if res.Degraded {
		m.degraded.Inc()
	}
	m.fieldsStaged.Add(float64(res.Stats.Accepted))
	for reason, n := range map[string]int{
		"no_file":      res.Stats.SkippedNoFile,
		"empty":        res.Stats.SkippedEmpty,
		"invalid_name": res.Stats.SkippedInvalidName,
		"read_failure": res.Stats.ReadFailures,
	} {
		if n > 0 {
			m.fieldsSkipped.WithLabelValues(reason).Add(float64(n))
		}
	}
}
