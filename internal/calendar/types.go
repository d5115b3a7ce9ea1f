package calendar

import (
	"context"
	"time"
)

// Calendar is a calendar the user may write events to.
type Calendar struct {
	ID          string
	DisplayName string
	Primary     bool
	AccessRole  string
}

// Event is a finished timer session rendered as a calendar entry.
type Event struct {
	CalendarID string
	Summary    string
	Start      time.Time
	End        time.Time
}

// Client is what the timer runtime and the CLI need from a calendar backend.
type Client interface {
	ListCalendars(ctx context.Context) ([]Calendar, error)
	CreateEvent(ctx context.Context, event Event) error
}
