package calendar

// OAuth scopes requested by the authorization-code flow. Full calendar
// access is needed to list writable calendars; events scope covers inserts.
const (
	ScopeCalendar       = "https://www.googleapis.com/auth/calendar"
	ScopeCalendarEvents = "https://www.googleapis.com/auth/calendar.events"
)

// CalendarScopes defines the OAuth scopes required for calendar access
var CalendarScopes = []string{ScopeCalendar, ScopeCalendarEvents}

// Access roles that allow creating events.
const (
	AccessRoleOwner  = "owner"
	AccessRoleWriter = "writer"
)

const (
	DefaultStartPort       = 8080
	DefaultMaxPortAttempts = 10
	callbackStateBytes     = 24
)
