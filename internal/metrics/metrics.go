// Package metrics holds the Prometheus collectors of the navigation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicenav"

const (
	StageTranscode  = "transcode"
	StageTranscribe = "transcribe"
	StageGeocode    = "geocode"
	StageRoute      = "route"
)

type Metrics struct {
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	RouteSteps      prometheus.Histogram
	EventsPublished *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
}

// New registers all collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so registrations never collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline stage failures by error kind",
		}, []string{"stage", "kind"}),
		RouteSteps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_steps",
			Help:      "Number of steps in returned walking routes",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Navigation events published by sink and outcome",
		}, []string{"sink", "outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code",
		}, []string{"route", "status"}),
	}
}

// ObserveStage records the duration of one stage and, on failure, its kind.
func (m *Metrics) ObserveStage(stage string, seconds float64, errKind string) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
	if errKind != "" {
		m.StageErrors.WithLabelValues(stage, errKind).Inc()
	}
}

func (m *Metrics) ObserveRoute(steps int) {
	if m == nil {
		return
	}
	m.RouteSteps.Observe(float64(steps))
}

func (m *Metrics) RecordPublish(sink string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(sink, outcome).Inc()
}

func (m *Metrics) RecordRequest(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
}
