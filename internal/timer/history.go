package timer

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/connerkward/every-time/internal/logger"
	"github.com/connerkward/every-time/internal/store"
)

// MaxHistoryLimit is the most sessions history ever keeps. It is also the
// default.
const (
	MaxHistoryLimit     = 100
	DefaultHistoryLimit = MaxHistoryLimit
)

// isoLayout is the persisted timestamp format: UTC, millisecond precision.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func formatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func parseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Session is one completed run of a timer.
type Session struct {
	Name            string
	CalendarID      string
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

type sessionRecord struct {
	Name            string `json:"name"`
	CalendarID      string `json:"calendarId"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

func (s Session) record() sessionRecord {
	return sessionRecord{
		Name:            s.Name,
		CalendarID:      s.CalendarID,
		StartTime:       formatISO(s.Start),
		EndTime:         formatISO(s.End),
		DurationMinutes: s.DurationMinutes,
	}
}

func (rec sessionRecord) session() (Session, error) {
	start, err := parseISO(rec.StartTime)
	if err != nil {
		return Session{}, fmt.Errorf("bad start time: %w", err)
	}
	end, err := parseISO(rec.EndTime)
	if err != nil {
		return Session{}, fmt.Errorf("bad end time: %w", err)
	}
	return Session{
		Name:            rec.Name,
		CalendarID:      rec.CalendarID,
		Start:           start,
		End:             end,
		DurationMinutes: rec.DurationMinutes,
	}, nil
}

// History is the bounded, oldest-first list of recorded sessions kept under
// store.KeyTimerSessions. Stored records are rewritten verbatim; only
// unreadable ones are dropped.
type History struct {
	store store.Store
	limit int

	mu       sync.Mutex
	sessions []Session
}

// NewHistory loads persisted sessions. limit is capped at MaxHistoryLimit.
func NewHistory(st store.Store, limit int) (*History, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	h := &History{store: st, limit: limit}
	records, err := h.load(st)
	if err != nil {
		return nil, err
	}
	h.sessions = decodeSessions(records)
	return h, nil
}

// Append records s, evicting the oldest sessions beyond the limit. Sessions
// appended by other processes sharing the store are kept.
func (h *History) Append(s Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var next []sessionRecord
	err := h.store.Update(func(tx store.Tx) error {
		records, err := h.load(tx)
		if err != nil {
			return err
		}
		next = trim(append(records, s.record()), h.limit)
		if err := tx.Set(store.KeyTimerSessions, next); err != nil {
			return fmt.Errorf("failed to save session history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.sessions = decodeSessions(next)
	return nil
}

// List returns the sessions, oldest first.
func (h *History) List() []Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.load(h.store)
	if err != nil {
		logger.Warn("using last known session history", "error", err)
	} else {
		h.sessions = decodeSessions(records)
	}
	return slices.Clone(h.sessions)
}

// load reads the stored records, dropping unreadable ones and any beyond
// the limit.
func (h *History) load(tx store.Tx) ([]sessionRecord, error) {
	var records []sessionRecord
	if _, err := tx.Get(store.KeyTimerSessions, &records); err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	valid := make([]sessionRecord, 0, len(records))
	for _, rec := range records {
		if _, err := rec.session(); err != nil {
			logger.Warn("skipping unreadable session", "timer", rec.Name, "error", err)
			continue
		}
		valid = append(valid, rec)
	}
	return trim(valid, h.limit), nil
}

func decodeSessions(records []sessionRecord) []Session {
	sessions := make([]Session, 0, len(records))
	for _, rec := range records {
		if s, err := rec.session(); err == nil {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

func trim[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return slices.Clone(items[len(items)-limit:])
}
