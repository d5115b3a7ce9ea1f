package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/connerkward/every-time/internal/logger"
)

// GoogleClient talks to the Google Calendar v3 API.
type GoogleClient struct {
	service  *gcal.Service
	location *time.Location
}

// NewGoogleClient builds a client on top of an authorized HTTP client,
// usually Authenticator.HTTPClient. An empty timeZone sends events in the
// local zone. Extra options are appended after the HTTP client.
func NewGoogleClient(ctx context.Context, httpClient *http.Client, timeZone string, opts ...option.ClientOption) (*GoogleClient, error) {
	loc := time.Local
	if timeZone != "" {
		l, err := time.LoadLocation(timeZone)
		if err != nil {
			return nil, fmt.Errorf("unknown event time zone %q: %w", timeZone, err)
		}
		loc = l
	}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleClient{service: srv, location: loc}, nil
}

// ListCalendars returns every calendar the user owns or can write to.
func (c *GoogleClient) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var calendars []Calendar

	call := c.service.CalendarList.List().MinAccessRole(AccessRoleWriter)
	err := call.Pages(ctx, func(page *gcal.CalendarList) error {
		for _, item := range page.Items {
			if item.AccessRole != AccessRoleOwner && item.AccessRole != AccessRoleWriter {
				continue
			}
			name := item.SummaryOverride
			if name == "" {
				name = item.Summary
			}
			calendars = append(calendars, Calendar{
				ID:          item.Id,
				DisplayName: name,
				Primary:     item.Primary,
				AccessRole:  item.AccessRole,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	logger.Debug("listed calendars", "count", len(calendars))
	return calendars, nil
}

// CreateEvent inserts a timed event.
func (c *GoogleClient) CreateEvent(ctx context.Context, event Event) error {
	if event.CalendarID == "" {
		return fmt.Errorf("event %q has no calendar id", event.Summary)
	}

	zone := c.location.String()
	if zone == "Local" {
		zone = ""
	}

	entry := &gcal.Event{
		Summary: event.Summary,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.In(c.location).Format(time.RFC3339),
			TimeZone: zone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.In(c.location).Format(time.RFC3339),
			TimeZone: zone,
		},
	}

	created, err := c.service.Events.Insert(event.CalendarID, entry).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create event in %s: %w", event.CalendarID, err)
	}

	logger.Debug("created calendar event", "calendar", event.CalendarID, "event_id", created.Id)
	return nil
}
