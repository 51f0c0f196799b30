package repository

import (
	"context"

	"ADRFeed/internal/domain/models"
)

// QuoteSource fetches one ticker. It never returns an error directly: every
// failure is folded into a FetchFailed result.
type QuoteSource interface {
	Fetch(ctx context.Context, ticker string, mode models.Mode) models.FetchResult
}

// SnapshotStore owns the single in-memory market snapshot.
type SnapshotStore interface {
	Load() *models.MarketSnapshot
	Store(s *models.MarketSnapshot)
}

// Sink receives the outcome of every refresh cycle. Sinks are write-only.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev models.RefreshEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(mode, result string, seconds float64)
	RecordRefresh(status string, seconds float64)
	RecordLastPrice(ticker string, price float64)
	RecordError(kind string)
}
