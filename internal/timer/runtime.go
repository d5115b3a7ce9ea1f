package timer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/connerkward/every-time/internal/calendar"
	"github.com/connerkward/every-time/internal/logger"
	"github.com/connerkward/every-time/internal/metrics"
	"github.com/connerkward/every-time/internal/store"
)

// DefaultAutosaveInterval bounds how much running time an unclean exit can lose.
const DefaultAutosaveInterval = 30 * time.Second

type Action string

const (
	ActionStarted Action = "started"
	ActionStopped Action = "stopped"
)

// Result describes what a start or stop did.
type Result struct {
	Action          Action
	Name            string
	Start           time.Time
	End             time.Time
	DurationMinutes int

	// Recorded is set when the stop appended a session.
	Recorded bool

	// EventErr holds the calendar failure of a stop, if any. The stop itself
	// still succeeded.
	EventErr error
}

type Options struct {
	AutosaveInterval time.Duration
	Now              func() time.Time
	Metrics          metrics.Recorder
}

// activeEntry is a running timer. raw is the start exactly as stored.
type activeEntry struct {
	start time.Time
	raw   string
}

// Runtime drives the set of running timers kept under
// store.KeyActiveTimers. The store is the source of truth: every transition
// and every periodic save re-reads it inside one store update, so processes
// sharing the store never overwrite each other's starts and stops. active
// mirrors the last state read or written, under mu.
type Runtime struct {
	registry *Registry
	history  *History
	calendar calendar.Client
	store    store.Store
	metrics  metrics.Recorder
	now      func() time.Time
	interval time.Duration

	mu      sync.Mutex
	active  map[string]activeEntry
	cron    *cron.Cron
	running bool
	closed  bool
}

func NewRuntime(registry *Registry, history *History, client calendar.Client, st store.Store, opts Options) *Runtime {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRecorder(false)
	}

	return &Runtime{
		registry: registry,
		history:  history,
		calendar: client,
		store:    st,
		metrics:  opts.Metrics,
		now:      opts.Now,
		interval: opts.AutosaveInterval,
		active:   make(map[string]activeEntry),
	}
}

// Restore rebuilds the active set from the persisted record. Entries for
// unknown timers or with unreadable timestamps are dropped.
func (r *Runtime) Restore() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, err := loadActive(r.store)
	if err != nil {
		return err
	}
	r.setActiveLocked(active)
	logger.Debug("restored active timers", "count", len(active))
	return nil
}

// Initialize restores the active set and starts periodic persistence.
func (r *Runtime) Initialize() error {
	if err := r.Restore(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || r.closed {
		return nil
	}

	r.cron = cron.New()
	r.cron.Schedule(cron.Every(r.interval), cron.FuncJob(r.autosave))
	r.cron.Start()
	r.running = true

	logger.Debug("periodic persistence started", "interval", r.interval.String())
	return nil
}

func (r *Runtime) autosave() {
	if err := r.Persist(); err != nil {
		logger.Error("Failed to persist active timers", "error", err)
	}
}

// Persist writes the whole active set back to the store, after picking up
// any start or stop another process made since the last read.
func (r *Runtime) Persist() error {
	_, err := r.transition(func(map[string]activeEntry) (Result, error) {
		return Result{}, nil
	})
	return err
}

// Shutdown stops periodic persistence and writes the active set one last time.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.running = false
	r.closed = true
	r.mu.Unlock()

	if c != nil {
		c.Stop()
	}

	if err := r.Persist(); err != nil {
		return err
	}
	if err := r.store.Flush(); err != nil {
		return fmt.Errorf("failed to flush store: %w", err)
	}
	logger.Debug("runtime shut down", "active", len(r.Active()))
	return nil
}

// StartStop starts name when idle and stops it when running.
func (r *Runtime) StartStop(ctx context.Context, name string) (Result, error) {
	t, ok := r.registry.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrTimerNotFound, name)
	}

	res, err := r.transition(func(active map[string]activeEntry) (Result, error) {
		if entry, running := active[name]; running {
			return r.stopLocked(active, name, entry), nil
		}
		return r.startLocked(active, name), nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("timer %s not toggled: %w", name, err)
	}
	r.observe(res)
	if res.Action == ActionStopped {
		return r.record(ctx, t, res)
	}
	return res, nil
}

// Start begins timing name. Starting a running timer keeps its original
// start time.
func (r *Runtime) Start(name string) (Result, error) {
	if _, ok := r.registry.Get(name); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrTimerNotFound, name)
	}

	var started bool
	res, err := r.transition(func(active map[string]activeEntry) (Result, error) {
		if entry, running := active[name]; running {
			return Result{Action: ActionStarted, Name: name, Start: entry.start}, nil
		}
		started = true
		return r.startLocked(active, name), nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("timer %s not started: %w", name, err)
	}
	if started {
		r.observe(res)
	}
	return res, nil
}

// Stop ends a running timer. Runs of at least half a minute are written to
// the calendar and to history; a calendar failure is reported in
// Result.EventErr and does not prevent the session from being recorded.
func (r *Runtime) Stop(ctx context.Context, name string) (Result, error) {
	t, ok := r.registry.Get(name)
	if !ok {
		t = Timer{Name: name}
	}

	res, err := r.transition(func(active map[string]activeEntry) (Result, error) {
		entry, running := active[name]
		if !running {
			return Result{}, fmt.Errorf("%w: %s", ErrTimerNotActive, name)
		}
		return r.stopLocked(active, name, entry), nil
	})
	if err != nil {
		if errors.Is(err, ErrTimerNotActive) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("timer %s not stopped: %w", name, err)
	}
	r.observe(res)
	return r.record(ctx, t, res)
}

// transition applies change to the active set as currently stored and
// writes the result in the same store update. The mirror only moves on once
// the write succeeded.
func (r *Runtime) transition(change func(active map[string]activeEntry) (Result, error)) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := time.Now()
	var (
		res  Result
		next map[string]activeEntry
	)
	err := r.store.Update(func(tx store.Tx) error {
		active, err := loadActive(tx)
		if err != nil {
			return err
		}
		if res, err = change(active); err != nil {
			return err
		}
		if err := tx.Set(store.KeyActiveTimers, snapshot(active)); err != nil {
			return fmt.Errorf("failed to save active timers: %w", err)
		}
		next = active
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	r.metrics.ObservePersistenceDuration(time.Since(started))
	r.setActiveLocked(next)
	return res, nil
}

func (r *Runtime) startLocked(active map[string]activeEntry, name string) Result {
	start := r.now().UTC().Truncate(time.Millisecond)
	active[name] = activeEntry{start: start, raw: formatISO(start)}
	return Result{Action: ActionStarted, Name: name, Start: start}
}

func (r *Runtime) stopLocked(active map[string]activeEntry, name string, entry activeEntry) Result {
	end := r.now().UTC().Truncate(time.Millisecond)
	delete(active, name)

	res := Result{
		Action:          ActionStopped,
		Name:            name,
		Start:           entry.start,
		End:             end,
		DurationMinutes: durationMinutes(entry.start, end),
	}
	return res
}

// observe counts and logs a committed start or stop.
func (r *Runtime) observe(res Result) {
	switch res.Action {
	case ActionStarted:
		r.metrics.IncTimerStarts()
		logger.Info("timer started", "timer", res.Name, "start", formatISO(res.Start))
	case ActionStopped:
		r.metrics.IncTimerStops()
		logger.Info("timer stopped", "timer", res.Name, "minutes", res.DurationMinutes)
	}
}

// record writes the calendar event and the session of a completed stop.
func (r *Runtime) record(ctx context.Context, t Timer, res Result) (Result, error) {
	if res.DurationMinutes <= 0 {
		return res, nil
	}

	res.EventErr = r.createEvent(ctx, t, res.Start, res.End)

	session := Session{
		Name:            res.Name,
		CalendarID:      t.CalendarID,
		Start:           res.Start,
		End:             res.End,
		DurationMinutes: res.DurationMinutes,
	}
	if err := r.history.Append(session); err != nil {
		return res, fmt.Errorf("timer %s stopped but session not recorded: %w", res.Name, err)
	}
	res.Recorded = true
	r.metrics.IncSessionsRecorded()

	return res, nil
}

func (r *Runtime) createEvent(ctx context.Context, t Timer, start, end time.Time) error {
	if r.calendar == nil {
		return errors.New("no calendar client configured")
	}

	err := r.calendar.CreateEvent(ctx, calendar.Event{
		CalendarID: t.CalendarID,
		Summary:    t.Name,
		Start:      start,
		End:        end,
	})
	if err != nil {
		r.metrics.IncCalendarEventFailures()
		logger.Warn("calendar event not created, session kept locally", "timer", t.Name, "error", err)
	}
	return err
}

// DeleteTimer removes a definition, stopping it first when it is running.
// It reports false when no such timer exists.
func (r *Runtime) DeleteTimer(ctx context.Context, name string) (bool, error) {
	if _, ok := r.registry.Get(name); !ok {
		return false, nil
	}

	if r.IsActive(name) {
		if _, err := r.Stop(ctx, name); err != nil && !errors.Is(err, ErrTimerNotActive) {
			return false, err
		}
	}
	return r.registry.Remove(name)
}

// Timers lists every definition.
func (r *Runtime) Timers() []Timer {
	return r.registry.List()
}

// Active maps each running timer to its ISO-8601 start time.
func (r *Runtime) Active() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	return snapshot(r.active)
}

func (r *Runtime) IsActive(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	_, ok := r.active[name]
	return ok
}

// StartTime returns when name was started, if it is running.
func (r *Runtime) StartTime(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	entry, ok := r.active[name]
	return entry.start, ok
}

// Sessions returns the recorded history, oldest first.
func (r *Runtime) Sessions() []Session {
	return r.history.List()
}

func (r *Runtime) refreshLocked() {
	active, err := loadActive(r.store)
	if err != nil {
		logger.Warn("using last known active timers", "error", err)
		return
	}
	r.setActiveLocked(active)
}

func (r *Runtime) setActiveLocked(active map[string]activeEntry) {
	r.active = active
	r.metrics.SetActiveTimers(len(active))
}

// loadActive decodes the stored active set. Entries naming timers that are
// not defined or carrying unreadable start times are dropped.
func loadActive(tx store.Tx) (map[string]activeEntry, error) {
	var persisted map[string]string
	if _, err := tx.Get(store.KeyActiveTimers, &persisted); err != nil {
		return nil, fmt.Errorf("failed to load active timers: %w", err)
	}
	timers, err := loadTimers(tx)
	if err != nil {
		return nil, err
	}

	active := make(map[string]activeEntry, len(persisted))
	for name, raw := range persisted {
		if indexOf(timers, name) < 0 {
			logger.Warn("dropping active entry for unknown timer", "timer", name)
			continue
		}
		start, err := parseISO(raw)
		if err != nil {
			logger.Warn("dropping active entry with bad start time", "timer", name, "value", raw, "error", err)
			continue
		}
		active[name] = activeEntry{start: start, raw: raw}
	}
	return active, nil
}

func snapshot(active map[string]activeEntry) map[string]string {
	out := make(map[string]string, len(active))
	for name, entry := range active {
		out[name] = entry.raw
	}
	return out
}

func durationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}
