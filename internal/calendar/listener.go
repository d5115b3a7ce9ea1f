package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/connerkward/every-time/internal/security"
)

const (
	successPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>every-time</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em">
<h1>Authentication successful</h1>
<p>You can close this window and return to every-time.</p>
</body></html>`

	failurePage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>every-time</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em">
<h1>Authentication failed</h1>
<p>No authorization code was received. Close this window and try again.</p>
</body></html>`

	shutdownGrace = 2 * time.Second
)

type listenFunc func(network, address string) (net.Listener, error)

// bindRedirectListener binds host on startPort, moving to the next port while
// the current one is in use or not permitted.
func bindRedirectListener(listen listenFunc, host string, startPort, attempts int) (net.Listener, int, error) {
	for i := 0; i < attempts; i++ {
		port := startPort + i
		if port > 65535 {
			break
		}

		ln, err := listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, port, nil
		}
		if !isRetryableBindError(err) {
			return nil, 0, security.NewListenerError(host, port, "bind failed").WithCause(err)
		}
	}

	return nil, 0, fmt.Errorf("%w: %d ports tried from %s:%d", ErrNoAvailablePort, attempts, host, startPort)
}

func isRetryableBindError(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE) ||
		errors.Is(err, syscall.EACCES) ||
		errors.Is(err, os.ErrPermission)
}

type callbackResult struct {
	code string
	err  error
}

// redirectServer serves the OAuth redirect for one authorization attempt.
// The first request decides the outcome; later ones only get a page.
type redirectServer struct {
	srv      *http.Server
	results  chan callbackResult
	stopOnce sync.Once
}

func newRedirectServer(path, state string, log *security.SecureLogger) *redirectServer {
	rs := &redirectServer{results: make(chan callbackResult, 1)}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		res := parseCallback(r, path, state)

		status, page := http.StatusOK, successPage
		if res.err != nil {
			status, page = http.StatusBadRequest, failurePage
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, page)

		log.LogNetworkEvent(r.Method, r.URL.String(), status, time.Since(started).String())

		select {
		case rs.results <- res:
		default:
		}
	})

	rs.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return rs
}

func (rs *redirectServer) serve(ln net.Listener, log *security.SecureLogger) {
	go func() {
		if err := rs.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("Redirect listener stopped", "error", err)
		}
	}()
}

// stop closes the listener. It lets an in-flight response finish and is
// safe to call any number of times.
func (rs *redirectServer) stop() {
	rs.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := rs.srv.Shutdown(ctx); err != nil {
			_ = rs.srv.Close()
		}
	})
}

func parseCallback(r *http.Request, path, state string) callbackResult {
	if r.Method != http.MethodGet {
		return callbackResult{err: fmt.Errorf("%w: method %s", ErrBadCallback, r.Method)}
	}
	if r.URL.Path != path {
		return callbackResult{err: fmt.Errorf("%w: path %s", ErrBadCallback, r.URL.Path)}
	}

	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		return callbackResult{err: fmt.Errorf("%w: %s", ErrAccessDenied, reason)}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: ErrMissingCode}
	}
	if q.Get("state") != state {
		return callbackResult{err: ErrStateMismatch}
	}
	return callbackResult{code: code}
}
