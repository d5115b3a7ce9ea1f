package calendar

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/connerkward/every-time/internal/security"
)

// Token returns a usable access token. An expired token is refreshed with
// its refresh token and the result persisted before it is handed out.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	current := a.currentToken()
	if current == nil || current.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	if current.Valid() {
		return current, nil
	}
	if current.RefreshToken == "" {
		return nil, security.NewTokenError("refresh", "access token expired and no refresh token is available")
	}

	refreshed, err := a.configFor(0).TokenSource(a.clientContext(ctx), current).Token()
	if err != nil {
		tokenErr := security.NewTokenError("refresh", "token refresh failed").WithCause(err)
		a.log.LogAuthEvent("token_refresh", false, map[string]any{"error": tokenErr.Error()})
		return nil, tokenErr
	}

	if refreshed.AccessToken != current.AccessToken {
		if err := a.saveToken(refreshed); err != nil {
			a.log.Warn("Failed to persist refreshed token", "error", err.Error())
		}

		a.mu.Lock()
		// A concurrent ClearToken wins over the refresh.
		if a.token == current {
			a.token = refreshed
		}
		a.mu.Unlock()
		a.log.LogAuthEvent("token_refresh", true, map[string]any{"expiry": refreshed.Expiry.String()})
	}

	return refreshed, nil
}

type authTokenSource struct {
	ctx  context.Context
	auth *Authenticator
}

func (s authTokenSource) Token() (*oauth2.Token, error) {
	return s.auth.Token(s.ctx)
}

// TokenSource exposes the authenticator's current token. It follows later
// sign-ins and sign-outs, so it can be created before authentication.
func (a *Authenticator) TokenSource(ctx context.Context) oauth2.TokenSource {
	return authTokenSource{ctx: ctx, auth: a}
}

// HTTPClient returns a client that authorizes every request with the
// current token.
func (a *Authenticator) HTTPClient(ctx context.Context) *http.Client {
	base := a.opts.HTTPClient
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: a.TokenSource(ctx),
			Base:   base.Transport,
		},
		CheckRedirect: base.CheckRedirect,
		Timeout:       base.Timeout,
	}
}
