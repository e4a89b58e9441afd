//go:build wireinject
// +build wireinject

package di

import (
	"MandiPulse/pkg/config"
	"MandiPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideCache,
		ProvideAlertHub,
		ProvideRateLimiter,

		// Repositories
		ProvideModelStore,
		ProvideAnalysisStore,
		ProvideVerdictPublisher,

		// Use cases
		ProvideAnalyzer,
		ProvidePriceChecker,
		ProvidePersistQueue,
		ProvideReportsHandler,
		ProvideKafkaConsumer,

		// Application server
		ProvidePricesHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
