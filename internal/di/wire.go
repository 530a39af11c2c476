//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideRecorder,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvidePublisher,
		ProvideCache,

		// Stores
		ProvideCandleStore,
		ProvideAssetStore,
		ProvideIndicatorStore,
		ProvideSignalStore,

		// Use cases
		ProvideIndicatorBatch,
		ProvideSignalBatch,
		ProvideDashboard,

		// Delivery
		ProvideScheduler,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
