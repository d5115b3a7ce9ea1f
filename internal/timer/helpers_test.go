package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/connerkward/every-time/internal/calendar"
	"github.com/connerkward/every-time/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 15, 4, 5, 123456789, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeCalendar struct {
	mu     sync.Mutex
	events []calendar.Event
	err    error
}

func (f *fakeCalendar) ListCalendars(context.Context) ([]calendar.Calendar, error) {
	return []calendar.Calendar{{ID: "work", DisplayName: "Work", AccessRole: "owner"}}, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, event calendar.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeCalendar) Events() []calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]calendar.Event(nil), f.events...)
}

var errStoreDown = errors.New("store unavailable")

// flakyStore fails writes to the keys listed in failing and counts writes.
// A failed write aborts the whole update it belongs to.
type flakyStore struct {
	store.Store

	mu      sync.Mutex
	failing map[string]bool
	writes  map[string]int
}

func newFlakyStore(inner store.Store) *flakyStore {
	return &flakyStore{Store: inner, failing: map[string]bool{}, writes: map[string]int{}}
}

func (s *flakyStore) Set(key string, value any) error {
	return s.Update(func(tx store.Tx) error {
		return tx.Set(key, value)
	})
}

func (s *flakyStore) Update(fn func(tx store.Tx) error) error {
	return s.Store.Update(func(tx store.Tx) error {
		return fn(&flakyTx{Tx: tx, store: s})
	})
}

func (s *flakyStore) recordWrite(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes[key]++
	if s.failing[key] {
		return errStoreDown
	}
	return nil
}

type flakyTx struct {
	store.Tx
	store *flakyStore
}

func (t *flakyTx) Set(key string, value any) error {
	if err := t.store.recordWrite(key); err != nil {
		return err
	}
	return t.Tx.Set(key, value)
}

func (s *flakyStore) setFailing(key string, fail bool) {
	s.mu.Lock()
	s.failing[key] = fail
	s.mu.Unlock()
}

func (s *flakyStore) writeCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}
