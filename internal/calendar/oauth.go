package calendar

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"

	"github.com/connerkward/every-time/internal/config"
	"github.com/connerkward/every-time/internal/security"
	"github.com/connerkward/every-time/internal/store"
)

// TokenSealer encrypts the token blob before it reaches the store.
type TokenSealer interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// AuthOptions tune the authorization-code flow. Zero values get defaults.
type AuthOptions struct {
	StartPort       int
	MaxPortAttempts int
	Timeout         time.Duration
	HTTPClient      *http.Client
	Sealer          TokenSealer
	Opener          BrowserOpener
	Logger          *security.SecureLogger
}

// Authenticator owns the OAuth token. It runs the browser based
// authorization-code flow with a short-lived local redirect listener and
// keeps the token fresh for calendar calls.
type Authenticator struct {
	oauth    oauth2.Config
	redirect *url.URL
	store    store.Store
	opts     AuthOptions
	log      *security.SecureLogger
	listen   listenFunc

	mu      sync.RWMutex
	token   *oauth2.Token
	lastErr error

	refreshMu sync.Mutex
	flight    singleflight.Group
}

// NewAuthenticator loads any persisted token from st. A token that cannot be
// read is logged and ignored, leaving the authenticator signed out.
func NewAuthenticator(creds config.Credentials, st store.Store, opts AuthOptions) *Authenticator {
	if opts.Logger == nil {
		opts.Logger = security.NewSecureLogger(false)
	}
	if opts.MaxPortAttempts <= 0 {
		opts.MaxPortAttempts = DefaultMaxPortAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = security.NewHTTPClient(30 * time.Second)
	}
	if opts.Opener == nil {
		opts.Opener = SystemBrowser{}
	}

	a := &Authenticator{
		store:  st,
		opts:   opts,
		log:    opts.Logger,
		listen: net.Listen,
	}

	a.redirect = parseRedirect(creds.RedirectURI, a.log)
	if a.opts.StartPort <= 0 {
		a.opts.StartPort = DefaultStartPort
	}
	if p := a.redirect.Port(); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			a.opts.StartPort = port
		}
	}

	endpoint := google.Endpoint
	if creds.AuthURL != "" {
		endpoint.AuthURL = creds.AuthURL
	}
	if creds.TokenURL != "" {
		endpoint.TokenURL = creds.TokenURL
	}
	a.oauth = oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       CalendarScopes,
	}

	token, err := a.loadToken()
	if err != nil {
		a.log.LogAuthEvent("token_load", false, map[string]any{"error": err.Error()})
	} else if token != nil {
		a.token = token
		a.log.LogAuthEvent("token_load", true, map[string]any{"has_refresh_token": token.RefreshToken != ""})
	}

	return a
}

func parseRedirect(raw string, log *security.SecureLogger) *url.URL {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" || u.Hostname() == "" {
		cfgErr := security.NewConfigError("redirect_uri", raw, "expected an http loopback URL")
		if err != nil {
			cfgErr = cfgErr.WithCause(err)
		}
		log.Warn("Falling back to default redirect URI", "error", cfgErr.Error())
		u, _ = url.Parse(config.DefaultRedirectURI)
	}
	return u
}

// IsAuthenticated reports whether a token with an access token is held.
// An expired access token still counts; it is refreshed on next use.
func (a *Authenticator) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != nil && a.token.AccessToken != ""
}

// Authenticate makes sure a token is held, running the browser flow when it
// is not. Concurrent callers share one attempt. The reason for a false
// result is available from LastError.
func (a *Authenticator) Authenticate(ctx context.Context) bool {
	return a.authenticate(ctx) == nil
}

// LastError returns the failure of the most recent authorization attempt.
func (a *Authenticator) LastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

func (a *Authenticator) authenticate(ctx context.Context) error {
	if a.IsAuthenticated() {
		return nil
	}

	_, err, shared := a.flight.Do("authenticate", func() (any, error) {
		if a.IsAuthenticated() {
			return nil, nil
		}
		err := a.authorize(ctx)

		a.mu.Lock()
		a.lastErr = err
		a.mu.Unlock()
		return nil, err
	})
	if shared {
		a.log.Debug("Joined in-flight authorization")
	}
	return err
}

func (a *Authenticator) authorize(ctx context.Context) error {
	state, err := randomState()
	if err != nil {
		return security.NewCryptoError("state", "failed to generate state").WithCause(err)
	}

	host := a.redirect.Hostname()
	ln, port, err := bindRedirectListener(a.listen, host, a.opts.StartPort, a.opts.MaxPortAttempts)
	if err != nil {
		a.log.LogAuthEvent("listener_bind", false, map[string]any{"error": err.Error()})
		return err
	}

	cfg := a.configFor(port)
	rs := newRedirectServer(a.callbackPath(), state, a.log)
	rs.serve(ln, a.log)
	defer rs.stop()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	a.log.LogAuthEvent("authorization_started", true, map[string]any{"redirect_uri": cfg.RedirectURL})

	if err := a.opts.Opener.Open(authURL); err != nil {
		a.log.Warn("Failed to open browser", "error", err)
	}

	timer := time.NewTimer(a.opts.Timeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-rs.results:
	case <-timer.C:
		a.log.LogAuthEvent("authorization_timeout", false, map[string]any{"timeout": a.opts.Timeout.String()})
		return ErrAuthTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	rs.stop()

	if res.err != nil {
		a.log.LogAuthEvent("callback", false, map[string]any{"error": res.err.Error()})
		return res.err
	}

	token, err := cfg.Exchange(a.clientContext(ctx), res.code)
	if err != nil {
		tokenErr := security.NewTokenError("exchange", "authorization code exchange failed").WithCause(err)
		a.log.LogAuthEvent("code_exchange", false, map[string]any{"error": tokenErr.Error()})
		return tokenErr
	}

	if err := a.saveToken(token); err != nil {
		return err
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	a.log.LogAuthEvent("code_exchange", true, map[string]any{"has_refresh_token": token.RefreshToken != ""})
	return nil
}

// ClearToken forgets the token in memory and in the store.
func (a *Authenticator) ClearToken() error {
	a.mu.Lock()
	a.token = nil
	a.mu.Unlock()

	if err := a.store.Delete(store.KeyToken); err != nil {
		return security.NewTokenError("clear", "failed to remove stored token").WithCause(err)
	}
	a.log.LogAuthEvent("token_cleared", true, nil)
	return nil
}

// Close releases the pooled connections of the OAuth and Calendar clients.
func (a *Authenticator) Close() {
	security.CloseIdle(a.opts.HTTPClient)
}

func (a *Authenticator) configFor(port int) *oauth2.Config {
	cfg := a.oauth
	u := *a.redirect
	if port > 0 {
		u.Host = net.JoinHostPort(a.redirect.Hostname(), strconv.Itoa(port))
	}
	cfg.RedirectURL = u.String()
	return &cfg
}

func (a *Authenticator) callbackPath() string {
	if a.redirect.Path == "" {
		return "/"
	}
	return a.redirect.Path
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.opts.HTTPClient)
}

func (a *Authenticator) currentToken() *oauth2.Token {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// loadToken reads the persisted token. Sealed tokens are stored as a string,
// plain ones as the token object itself.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	var raw json.RawMessage
	found, err := a.store.Get(store.KeyToken, &raw)
	if err != nil {
		return nil, security.NewTokenError("load", "failed to read stored token").WithCause(err)
	}
	if !found || len(raw) == 0 {
		return nil, nil
	}

	data := []byte(raw)
	if raw[0] == '"' {
		var sealed string
		if err := json.Unmarshal(raw, &sealed); err != nil {
			return nil, security.NewTokenError("load", "invalid sealed token").WithCause(err)
		}
		if a.opts.Sealer == nil {
			return nil, security.NewTokenError("load", "stored token is encrypted but encryption is disabled")
		}
		data, err = a.opts.Sealer.Decrypt(sealed)
		if err != nil {
			a.log.LogCryptoEvent("token_decrypt", false, err.Error())
			if security.IsCriticalError(err) {
				a.log.LogSecurityEvent("stored_token_rejected", security.SeverityCritical, map[string]any{
					"action": "sign in again with 'every-time auth'",
				})
			}
			return nil, err
		}
		a.log.LogCryptoEvent("token_decrypt", true, "")
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, security.NewTokenError("unmarshal", "invalid token data").WithCause(err)
	}
	if token.AccessToken == "" {
		return nil, nil
	}
	return &token, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	if a.opts.Sealer == nil {
		if err := a.store.Set(store.KeyToken, token); err != nil {
			return security.NewTokenError("save", "failed to persist token").WithCause(err)
		}
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		return security.NewTokenError("save", "failed to marshal token").WithCause(err)
	}
	sealed, err := a.opts.Sealer.Encrypt(data)
	if err != nil {
		a.log.LogCryptoEvent("token_encrypt", false, err.Error())
		return err
	}
	a.log.LogCryptoEvent("token_encrypt", true, "")

	if err := a.store.Set(store.KeyToken, sealed); err != nil {
		return security.NewTokenError("save", "failed to persist token").WithCause(err)
	}
	return nil
}

func randomState() (string, error) {
	buf := make([]byte, callbackStateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
