package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/connerkward/every-time/internal/calendar"
	"github.com/connerkward/every-time/internal/config"
	"github.com/connerkward/every-time/internal/logger"
	"github.com/connerkward/every-time/internal/metrics"
	"github.com/connerkward/every-time/internal/store"
	"github.com/connerkward/every-time/internal/timer"
)

// App is the composition root shared by the CLI commands.
type App struct {
	Config      *config.Config
	Credentials config.Credentials
	Store       store.Store
	Auth        *calendar.Authenticator
	Calendar    calendar.Client
	Registry    *timer.Registry
	Runtime     *timer.Runtime
	Metrics     metrics.Recorder

	metricsServer *http.Server
}

func NewApp(
	cfg *config.Config,
	creds config.Credentials,
	st store.Store,
	auth *calendar.Authenticator,
	client calendar.Client,
	registry *timer.Registry,
	runtime *timer.Runtime,
	recorder metrics.Recorder,
) *App {
	return &App{
		Config:      cfg,
		Credentials: creds,
		Store:       st,
		Auth:        auth,
		Calendar:    client,
		Registry:    registry,
		Runtime:     runtime,
		Metrics:     recorder,
	}
}

// Load restores the running timers without starting background work. It is
// what short-lived commands use.
func (a *App) Load() error {
	return a.Runtime.Restore()
}

// Start restores the running timers, starts periodic persistence and, when
// enabled, the metrics endpoint.
func (a *App) Start() error {
	if err := a.Runtime.Initialize(); err != nil {
		return fmt.Errorf("failed to start timer runtime: %w", err)
	}

	if a.Config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(a.Metrics))

		a.metricsServer = &http.Server{
			Addr:              a.Config.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", a.Config.Metrics.Listen)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}
	return nil
}

// Close stops background work and flushes the running timers.
func (a *App) Close() error {
	var errs []error

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if err := a.Runtime.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	a.Auth.Close()
	return errors.Join(errs...)
}
