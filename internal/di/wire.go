//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"BarPull/pkg/config"
	"BarPull/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvidePrometheusRegistry,
		ProvideMetrics,

		// Fetching and normalization
		ProvideSchema,
		ProvideTransport,
		ProvideAdapterRegistry,
		ProvideDataManager,
		ProvideConverter,

		// Storage
		ProvideClickHouseClient,
		ProvideBarStore,
		ProvideSink,
		ProvideCache,

		// Use cases
		ProvideIngestUseCase,
		ProvideBarsUseCase,
		ProvideReplayUseCase,

		// Delivery
		ProvideBarsHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
