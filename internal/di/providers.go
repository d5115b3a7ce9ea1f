package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/connerkward/every-time/internal/calendar"
	"github.com/connerkward/every-time/internal/config"
	"github.com/connerkward/every-time/internal/metrics"
	"github.com/connerkward/every-time/internal/security"
	"github.com/connerkward/every-time/internal/store"
	"github.com/connerkward/every-time/internal/timer"
)

// Options carry the command line settings into the injector.
type Options struct {
	ConfigPath string
	DataDir    string
	Verbose    bool

	// Opener overrides how the consent URL reaches the user.
	Opener calendar.BrowserOpener
}

// DataDir is the resolved directory holding the store, salt and credentials.
type DataDir string

func ProvideConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func ProvideDataDir(opts Options) (DataDir, error) {
	if opts.DataDir != "" {
		return DataDir(opts.DataDir), nil
	}
	dir, err := config.GetDefaultDataDir()
	if err != nil {
		return "", err
	}
	return DataDir(dir), nil
}

func ProvideStore(dir DataDir) (*store.FileStore, error) {
	return store.Open(filepath.Join(string(dir), store.DefaultFileName))
}

func ProvideCredentials(dir DataDir) config.Credentials {
	return config.ResolveCredentials(config.DefaultCredentialSources(string(dir))...)
}

func ProvideSecureLogger(opts Options) *security.SecureLogger {
	return security.NewSecureLogger(opts.Verbose)
}

// ProvideSealer returns nil when token encryption is turned off.
func ProvideSealer(cfg *config.Config, dir DataDir) (calendar.TokenSealer, error) {
	if !cfg.Auth.EncryptToken {
		return nil, nil
	}
	encryptor, err := security.NewTokenEncryptor(string(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token encryption: %w", err)
	}
	return encryptor, nil
}

func ProvideAuthenticator(
	creds config.Credentials,
	st store.Store,
	cfg *config.Config,
	sealer calendar.TokenSealer,
	log *security.SecureLogger,
	opts Options,
) *calendar.Authenticator {
	return calendar.NewAuthenticator(creds, st, calendar.AuthOptions{
		StartPort:       cfg.Auth.StartPort,
		MaxPortAttempts: cfg.Auth.MaxPortAttempts,
		Timeout:         cfg.Auth.Timeout,
		Sealer:          sealer,
		Opener:          opts.Opener,
		Logger:          log,
	})
}

func ProvideCalendarClient(ctx context.Context, auth *calendar.Authenticator, cfg *config.Config) (calendar.Client, error) {
	client, err := calendar.NewGoogleClient(ctx, auth.HTTPClient(ctx), cfg.Timers.EventTimeZone)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func ProvideMetrics(cfg *config.Config) metrics.Recorder {
	return metrics.NewRecorder(cfg.Metrics.Enabled)
}

func ProvideHistory(st store.Store, cfg *config.Config) (*timer.History, error) {
	return timer.NewHistory(st, cfg.Timers.HistoryLimit)
}

func ProvideRuntime(
	registry *timer.Registry,
	history *timer.History,
	client calendar.Client,
	st store.Store,
	cfg *config.Config,
	recorder metrics.Recorder,
) *timer.Runtime {
	return timer.NewRuntime(registry, history, client, st, timer.Options{
		AutosaveInterval: cfg.Timers.AutosaveInterval,
		Metrics:          recorder,
	})
}
