package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ADRFeed/internal/domain/models"
	"ADRFeed/internal/domain/repository"
	xlogger "ADRFeed/pkg/logger"
	"ADRFeed/pkg/util"
)

const (
	categoryADRs  = "adrs"
	categoryMacro = "macro"
)

// MacroTicker maps an indicator key to its upstream symbol.
type MacroTicker struct {
	Key    string
	Symbol string
}

// TickerTable is the static set of tickers refreshed on every cycle.
type TickerTable struct {
	VIX    string
	Gold   string
	Iron   string
	WinFut string
	ADRs   []string
	Macro  []MacroTicker
}

type fetchJob struct {
	category string
	key      string
	ticker   string
	mode     models.Mode
}

// plan flattens the table into fetch order: vix, gold, iron, winfut, ADRs, macro.
func (t TickerTable) plan() []fetchJob {
	jobs := []fetchJob{
		{category: string(models.SlotVIX), key: string(models.SlotVIX), ticker: t.VIX, mode: models.ModeRegular},
		{category: string(models.SlotGold), key: string(models.SlotGold), ticker: t.Gold, mode: models.ModeRegular},
		{category: string(models.SlotIron), key: string(models.SlotIron), ticker: t.Iron, mode: models.ModeRegular},
		{category: string(models.SlotWinFut), key: string(models.SlotWinFut), ticker: t.WinFut, mode: models.ModeRegular},
	}
	for _, s := range t.ADRs {
		jobs = append(jobs, fetchJob{category: categoryADRs, key: s, ticker: s, mode: models.ModeClosing})
	}
	for _, m := range t.Macro {
		jobs = append(jobs, fetchJob{category: categoryMacro, key: m.Key, ticker: m.Symbol, mode: models.ModeRegular})
	}
	return jobs
}

// MarketRefresher runs refresh cycles against a QuoteSource and publishes
// the result to the snapshot store and the configured sinks.
type MarketRefresher struct {
	source  repository.QuoteSource
	store   repository.SnapshotStore
	sinks   []repository.Sink
	metrics repository.Metrics
	logger  *xlogger.Logger
	jobs    []fetchJob
	now     func() time.Time

	// mu serializes cycles; a second caller waits for the running one.
	mu sync.Mutex
}

// NewMarketRefresher creates a refresher. metrics may be nil.
func NewMarketRefresher(
	source repository.QuoteSource,
	store repository.SnapshotStore,
	tickers TickerTable,
	sinks []repository.Sink,
	metrics repository.Metrics,
	logger *xlogger.Logger,
) *MarketRefresher {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketRefresher{
		source:  source,
		store:   store,
		sinks:   sinks,
		metrics: metrics,
		logger:  logger,
		jobs:    tickers.plan(),
		now:     time.Now,
	}
}

// Refresh fetches every configured ticker once, sequentially, and publishes
// the new snapshot. Per-ticker failures keep the previous entry; a failure of
// the cycle itself sets status=error and keeps the last success timestamp.
func (r *MarketRefresher) Refresh(ctx context.Context) *models.MarketSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.logger.Info("refreshing market data", xlogger.Int("tickers", len(r.jobs)))

	next := r.store.Load().Clone()
	updates, err := r.run(ctx, next)
	if err != nil {
		next.Status = models.StatusError
		next.Error = err.Error()
		r.logger.Error("market refresh failed", xlogger.Error(err), xlogger.Int("updated", len(updates)))
	} else {
		next.Timestamp = util.FormatISO(r.now())
		next.Status = models.StatusSuccess
		next.Error = ""
		r.logger.Info("market data refreshed",
			xlogger.Int("updated", len(updates)),
			xlogger.Duration("duration_ms", time.Since(start)),
		)
	}
	r.store.Store(next)

	if r.metrics != nil {
		r.metrics.RecordRefresh(string(next.Status), time.Since(start).Seconds())
	}

	r.publish(ctx, models.RefreshEvent{Snapshot: next, Updates: updates})
	return next
}

func (r *MarketRefresher) run(ctx context.Context, next *models.MarketSnapshot) (updates []models.QuoteUpdate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("refresh panic: %v", rec)
		}
	}()

	updates = make([]models.QuoteUpdate, 0, len(r.jobs))
	for _, j := range r.jobs {
		if cerr := ctx.Err(); cerr != nil {
			return updates, fmt.Errorf("refresh aborted: %w", cerr)
		}

		res := r.source.Fetch(ctx, j.ticker, j.mode)
		if res.Failed() {
			continue
		}
		if u, ok := apply(next, j, res); ok {
			updates = append(updates, u)
		}
	}
	return updates, nil
}

// apply writes a successful result into its slot. Results missing the
// payload for their mode are dropped so no half-record is stored.
func apply(next *models.MarketSnapshot, j fetchJob, res models.FetchResult) (models.QuoteUpdate, bool) {
	u := models.QuoteUpdate{Category: j.category, Key: j.key, Ticker: j.ticker}
	switch j.category {
	case categoryADRs:
		if res.Closing == nil {
			return u, false
		}
		next.ADRs[j.key] = *res.Closing
		u.Data = *res.Closing
	case categoryMacro:
		if res.Quote == nil {
			return u, false
		}
		next.Macro[j.key] = *res.Quote
		u.Data = *res.Quote
	default:
		if res.Quote == nil {
			return u, false
		}
		next.SetSlot(models.Slot(j.category), *res.Quote)
		u.Data = *res.Quote
	}
	return u, true
}

func (r *MarketRefresher) publish(ctx context.Context, ev models.RefreshEvent) {
	for _, s := range r.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			r.logger.Warn("sink publish failed", xlogger.String("sink", s.Name()), xlogger.Error(err))
			if r.metrics != nil {
				r.metrics.RecordError("sink_" + s.Name())
			}
		}
	}
}

// Loop refreshes every interval until ctx is done. A non-positive interval
// returns immediately.
func (r *MarketRefresher) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Refresh(ctx)
		}
	}
}

// Snapshot returns the current published snapshot.
func (r *MarketRefresher) Snapshot() *models.MarketSnapshot {
	return r.store.Load()
}
