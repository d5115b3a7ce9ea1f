package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderWhenDisabled(t *testing.T) {
	r := NewRecorder(false)
	_, ok := r.(*noopRecorder)
	assert.True(t, ok, "should return noopRecorder when disabled")

	r.IncTimerStarts()
	r.IncTimerStops()
	r.IncSessionsRecorded()
	r.IncCalendarEventFailures()
	r.SetActiveTimers(3)
	r.ObservePersistenceDuration(time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(r).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProviderRecords(t *testing.T) {
	p := NewProvider(prometheus.NewRegistry())

	p.IncTimerStarts()
	p.IncTimerStarts()
	p.IncTimerStops()
	p.IncSessionsRecorded()
	p.IncCalendarEventFailures()
	p.SetActiveTimers(1)
	p.ObservePersistenceDuration(5 * time.Millisecond)

	body := scrape(t, p)
	assert.Contains(t, body, "every_time_timer_starts_total 2")
	assert.Contains(t, body, "every_time_timer_stops_total 1")
	assert.Contains(t, body, "every_time_sessions_recorded_total 1")
	assert.Contains(t, body, "every_time_calendar_event_failures_total 1")
	assert.Contains(t, body, "every_time_active_timers 1")
	assert.Contains(t, body, "every_time_persistence_duration_seconds_count 1")
}

func scrape(t *testing.T, r Recorder) string {
	rec := httptest.NewRecorder()
	Handler(r).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestProviderHandler(t *testing.T) {
	p := NewProvider(prometheus.NewRegistry())
	p.IncTimerStarts()

	body := scrape(t, p)
	assert.Contains(t, body, "every_time_timer_starts_total 1")
	assert.Contains(t, body, "every_time_persistence_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestEnabledRecordersAreIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(true)
		NewRecorder(true)
	})
}
