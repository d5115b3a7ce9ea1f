package calendar

import "errors"

var (
	// ErrNotAuthenticated is returned by token sources when no token is held.
	ErrNotAuthenticated = errors.New("not authenticated with Google Calendar")

	// ErrNoAvailablePort is returned when every redirect port in the search range is taken.
	ErrNoAvailablePort = errors.New("no available port for OAuth redirect listener")

	// ErrAuthTimeout is returned when no browser callback arrives in time.
	ErrAuthTimeout = errors.New("timed out waiting for OAuth callback")

	ErrMissingCode   = errors.New("callback did not include an authorization code")
	ErrStateMismatch = errors.New("callback state does not match the authorization request")
	ErrAccessDenied  = errors.New("authorization was denied")
	ErrBadCallback   = errors.New("unexpected callback request")
)
