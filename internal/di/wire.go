//go:build wireinject
// +build wireinject

package di

import (
	"ADRFeed/pkg/config"
	"ADRFeed/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Upstream
		ProvideHTTPClient,
		ProvideQuoteSource,

		// State and side channels
		ProvideSnapshotStore,
		ProvideStreamHub,
		ProvideSinks,

		// Use cases
		ProvideTickerTable,
		ProvideMarketRefresher,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
