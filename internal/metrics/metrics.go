// Package metrics exposes timer runtime counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "every_time"

type Recorder interface {
	IncTimerStarts()
	IncTimerStops()
	IncSessionsRecorded()
	IncCalendarEventFailures()
	SetActiveTimers(count int)
	ObservePersistenceDuration(duration time.Duration)
}

type Provider struct {
	registry *prometheus.Registry

	timerStarts           prometheus.Counter
	timerStops            prometheus.Counter
	sessionsRecorded      prometheus.Counter
	calendarEventFailures prometheus.Counter
	activeTimers          prometheus.Gauge
	persistenceDuration   prometheus.Histogram
}

func (p *Provider) IncTimerStarts() {
	p.timerStarts.Inc()
}

func (p *Provider) IncTimerStops() {
	p.timerStops.Inc()
}

func (p *Provider) IncSessionsRecorded() {
	p.sessionsRecorded.Inc()
}

func (p *Provider) IncCalendarEventFailures() {
	p.calendarEventFailures.Inc()
}

func (p *Provider) SetActiveTimers(count int) {
	p.activeTimers.Set(float64(count))
}

func (p *Provider) ObservePersistenceDuration(duration time.Duration) {
	p.persistenceDuration.Observe(duration.Seconds())
}

// Handler serves the provider's registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// NewRecorder returns a Prometheus backed recorder when enabled, a no-op
// one otherwise.
func NewRecorder(enabled bool) Recorder {
	if !enabled {
		return &noopRecorder{}
	}
	return NewProvider(prometheus.NewRegistry())
}

// NewProvider registers the runtime metrics, plus Go and process
// collectors, on reg.
func NewProvider(reg *prometheus.Registry) *Provider {
	factory := promauto.With(reg)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		registry: reg,

		timerStarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_starts_total",
			Help:      "Total number of timers started",
		}),

		timerStops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_stops_total",
			Help:      "Total number of timers stopped",
		}),

		sessionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_recorded_total",
			Help:      "Total number of sessions appended to history",
		}),

		calendarEventFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_event_failures_total",
			Help:      "Total number of calendar events that could not be created",
		}),

		activeTimers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_timers",
			Help:      "Number of timers currently running",
		}),

		persistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persistence_duration_seconds",
			Help:      "Duration of active timer persistence in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns the metrics endpoint for r, or 404 when metrics are off.
func Handler(r Recorder) http.Handler {
	if p, ok := r.(*Provider); ok {
		return p.Handler()
	}
	return http.NotFoundHandler()
}

// noopRecorder is used when metrics are disabled.
type noopRecorder struct{}

func (n *noopRecorder) IncTimerStarts()                            {}
func (n *noopRecorder) IncTimerStops()                             {}
func (n *noopRecorder) IncSessionsRecorded()                       {}
func (n *noopRecorder) IncCalendarEventFailures()                  {}
func (n *noopRecorder) SetActiveTimers(_ int)                      {}
func (n *noopRecorder) ObservePersistenceDuration(_ time.Duration) {}
