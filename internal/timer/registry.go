// Package timer holds timer definitions and drives their start and stop
// transitions.
package timer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/connerkward/every-time/internal/logger"
	"github.com/connerkward/every-time/internal/store"
)

// Timer is a task label bound to the calendar its sessions are written to.
type Timer struct {
	Name       string `json:"name"`
	CalendarID string `json:"calendarId"`
}

// Registry keeps the timer definitions, in insertion order, under
// store.KeyTimers. Every read goes back to the store so definitions saved by
// another process show up; the last good read is served if the store fails.
type Registry struct {
	store store.Store

	mu     sync.Mutex
	timers []Timer
}

func NewRegistry(st store.Store) (*Registry, error) {
	timers, err := loadTimers(st)
	if err != nil {
		return nil, err
	}

	logger.Debug("loaded timer definitions", "count", len(timers))
	return &Registry{store: st, timers: timers}, nil
}

// List returns every definition in store order.
func (r *Registry) List() []Timer {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	return slices.Clone(r.timers)
}

// Get looks a definition up by name.
func (r *Registry) Get(name string) (Timer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	if i := indexOf(r.timers, name); i >= 0 {
		return r.timers[i], true
	}
	return Timer{}, false
}

// Add appends a new definition. It fails with ErrDuplicateTimer when name
// is taken.
func (r *Registry) Add(name, calendarID string) error {
	t, err := newTimer(name, calendarID)
	if err != nil {
		return err
	}

	_, err = r.update(func(timers []Timer) ([]Timer, bool, error) {
		if indexOf(timers, t.Name) >= 0 {
			return nil, false, fmt.Errorf("%w: %s", ErrDuplicateTimer, t.Name)
		}
		return append(timers, t), true, nil
	})
	return err
}

// Upsert replaces the calendar of an existing definition or appends a new one.
func (r *Registry) Upsert(name, calendarID string) error {
	t, err := newTimer(name, calendarID)
	if err != nil {
		return err
	}

	_, err = r.update(func(timers []Timer) ([]Timer, bool, error) {
		if i := indexOf(timers, t.Name); i >= 0 {
			timers[i] = t
			return timers, true, nil
		}
		return append(timers, t), true, nil
	})
	return err
}

// Remove drops a definition and reports whether it existed. It does not
// touch running state; use Runtime.DeleteTimer for timers that may be running.
func (r *Registry) Remove(name string) (bool, error) {
	return r.update(func(timers []Timer) ([]Timer, bool, error) {
		i := indexOf(timers, name)
		if i < 0 {
			return nil, false, nil
		}
		return slices.Delete(timers, i, i+1), true, nil
	})
}

// update applies change to the stored definitions inside one store update.
// change reports whether anything needs writing. A failed write leaves both
// the store and the registry as they were.
func (r *Registry) update(change func([]Timer) ([]Timer, bool, error)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current, next []Timer
	var changed bool
	err := r.store.Update(func(tx store.Tx) error {
		var err error
		if current, err = loadTimers(tx); err != nil {
			return err
		}
		next, changed, err = change(slices.Clone(current))
		if err != nil || !changed {
			return err
		}
		if err := tx.Set(store.KeyTimers, next); err != nil {
			return fmt.Errorf("failed to save timers: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		r.timers = next
	} else {
		r.timers = current
	}
	return changed, nil
}

func (r *Registry) refreshLocked() {
	timers, err := loadTimers(r.store)
	if err != nil {
		logger.Warn("using last known timer definitions", "error", err)
		return
	}
	r.timers = timers
}

func loadTimers(tx store.Tx) ([]Timer, error) {
	var timers []Timer
	if _, err := tx.Get(store.KeyTimers, &timers); err != nil {
		return nil, fmt.Errorf("failed to load timers: %w", err)
	}
	return timers, nil
}

func indexOf(timers []Timer, name string) int {
	return slices.IndexFunc(timers, func(t Timer) bool { return t.Name == name })
}

func newTimer(name, calendarID string) (Timer, error) {
	name = strings.TrimSpace(name)
	calendarID = strings.TrimSpace(calendarID)
	if name == "" || calendarID == "" {
		return Timer{}, ErrInvalidTimer
	}
	return Timer{Name: name, CalendarID: calendarID}, nil
}
