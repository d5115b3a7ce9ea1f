//go:build wireinject
// +build wireinject

package di

import (
	"context"

	wire "github.com/google/wire"

	"github.com/connerkward/every-time/internal"
	"github.com/connerkward/every-time/internal/store"
	"github.com/connerkward/every-time/internal/timer"
)

func InitApp(ctx context.Context, opts Options) (*internal.App, error) {

	wire.Build(
		ProvideConfig,
		ProvideDataDir,
		ProvideStore,
		wire.Bind(new(store.Store), new(*store.FileStore)),
		ProvideCredentials,
		ProvideSecureLogger,
		ProvideSealer,
		ProvideAuthenticator,
		ProvideCalendarClient,
		ProvideMetrics,
		timer.NewRegistry,
		ProvideHistory,
		ProvideRuntime,
		internal.NewApp,
	)

	return nil, nil
}
