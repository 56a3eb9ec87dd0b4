// Package metrics holds the Prometheus collectors the server reports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterSchedulePlacement *prometheus.CounterVec
	CounterWorkoutsCompleted prometheus.Counter
	CounterAuthorCalls       *prometheus.CounterVec

	// gauges
	GaugeRequests       prometheus.Gauge
	GaugeActiveSessions prometheus.GaugeFunc

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistAuthorDuration  prometheus.Histogram
}

// NewRegistry returns a registry with build, Go runtime and process
// collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewTestManager returns a Manager on a private registry.
func NewTestManager() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("kinetic", "test", reg, func() float64 { return 0 }), reg
}

// NewManager registers every collector on reg. activeSessions is sampled
// on each scrape.
func NewManager(namespace, subsystem string, reg prometheus.Registerer, activeSessions func() float64) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		CounterSchedulePlacement: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "schedule_placements_total",
			Help:      "Schedule placements by outcome",
		}, []string{"outcome"}),
		CounterWorkoutsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_completed_total",
			Help:      "Workouts committed to history",
		}),
		CounterAuthorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "author_calls_total",
			Help:      "Program authoring calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests being served",
		}),
		GaugeActiveSessions: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Workout sessions currently in progress",
		}, activeSessions),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
		}, []string{"route"}),
		HistAuthorDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "author_duration_seconds",
			Help:      "Duration of program authoring calls in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}
}
