package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ADRFeed/internal/domain/models"
	"ADRFeed/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   []string
	results map[string]func() models.FetchResult
}

func (f *fakeSource) Fetch(_ context.Context, ticker string, mode models.Mode) models.FetchResult {
	f.mu.Lock()
	f.calls = append(f.calls, ticker+"/"+mode.String())
	fn := f.results[ticker]
	f.mu.Unlock()
	if fn == nil {
		return models.FetchResult{Status: models.FetchFailed, Ticker: ticker, Mode: mode, Err: errors.New("unreachable")}
	}
	return fn()
}

type recordingSink struct {
	events []models.RefreshEvent
	err    error
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Publish(_ context.Context, ev models.RefreshEvent) error {
	s.events = append(s.events, ev)
	return s.err
}
func (s *recordingSink) Close() error { return nil }

func regular(ticker string, price float64) func() models.FetchResult {
	return func() models.FetchResult {
		return models.FetchResult{Status: models.FetchOK, Ticker: ticker, Mode: models.ModeRegular,
			Quote: &models.Quote{Current: price, Ticker: ticker, Source: models.SourceRegularMarket}}
	}
}

func closing(ticker string, price float64) func() models.FetchResult {
	return func() models.FetchResult {
		p := price
		return models.FetchResult{Status: models.FetchOK, Ticker: ticker, Mode: models.ModeClosing,
			Closing: &models.ClosingQuote{Current: &p, Ticker: ticker, Source: models.SourceClosingPrice}}
	}
}

func noData(ticker string) func() models.FetchResult {
	return func() models.FetchResult {
		return models.FetchResult{Status: models.FetchNoData, Ticker: ticker, Mode: models.ModeClosing,
			Closing: &models.ClosingQuote{Ticker: ticker, Source: models.SourceNoData}}
	}
}

func testTable() TickerTable {
	return TickerTable{
		VIX: "^VIX", Gold: "GC=F", Iron: "HG=F", WinFut: "^BVSP",
		ADRs:  []string{"VALE", "PBR"},
		Macro: []MacroTicker{{Key: "ewz", Symbol: "EWZ"}, {Key: "dxy", Symbol: "DX-Y.NYB"}},
	}
}

func allOK() map[string]func() models.FetchResult {
	return map[string]func() models.FetchResult{
		"^VIX": regular("^VIX", 18.5), "GC=F": regular("GC=F", 2400), "HG=F": regular("HG=F", 4.1),
		"^BVSP": regular("^BVSP", 128000), "VALE": closing("VALE", 12.5), "PBR": closing("PBR", 14),
		"EWZ": regular("EWZ", 29.8), "DX-Y.NYB": regular("DX-Y.NYB", 104.2),
	}
}

func newRefresher(src *fakeSource, sinks ...*recordingSink) (*MarketRefresher, *cache.SnapshotStore) {
	store := cache.NewSnapshotStore()
	r := NewMarketRefresher(src, store, testTable(), nil, nil, nil)
	for _, s := range sinks {
		r.sinks = append(r.sinks, s)
	}
	r.now = func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 0, time.Local) }
	return r, store
}

func TestRefreshFetchesInFixedOrder(t *testing.T) {
	src := &fakeSource{results: allOK()}
	r, _ := newRefresher(src)

	r.Refresh(context.Background())

	assert.Equal(t, []string{
		"^VIX/regular", "GC=F/regular", "HG=F/regular", "^BVSP/regular",
		"VALE/closing", "PBR/closing",
		"EWZ/regular", "DX-Y.NYB/regular",
	}, src.calls)
}

func TestRefreshSuccessPopulatesSnapshot(t *testing.T) {
	src := &fakeSource{results: allOK()}
	r, store := newRefresher(src)

	got := r.Refresh(context.Background())

	assert.Same(t, got, store.Load())
	assert.Equal(t, models.StatusSuccess, got.Status)
	assert.Equal(t, "2025-05-06T07:08:09.000000", got.Timestamp)
	require.NotNil(t, got.VIX)
	assert.Equal(t, 18.5, got.VIX.Current)
	assert.Equal(t, 128000.0, got.WinFut.Current)
	assert.Equal(t, 12.5, *got.ADRs["VALE"].Current)
	assert.Equal(t, 104.2, got.Macro["dxy"].Current)
	assert.Len(t, got.ADRs, 2)
	assert.Len(t, got.Macro, 2)
}

func TestRefreshTickerFailureKeepsPreviousEntry(t *testing.T) {
	src := &fakeSource{results: allOK()}
	r, _ := newRefresher(src)
	first := r.Refresh(context.Background())

	src.results["GC=F"] = nil
	src.results["VALE"] = nil
	src.results["^VIX"] = regular("^VIX", 21)
	second := r.Refresh(context.Background())

	assert.Equal(t, models.StatusSuccess, second.Status)
	assert.Equal(t, 21.0, second.VIX.Current)
	assert.Equal(t, first.Gold, second.Gold)
	assert.Equal(t, first.ADRs["VALE"], second.ADRs["VALE"])
	assert.Equal(t, 18.5, first.VIX.Current, "previous snapshot is immutable")
}

func TestRefreshAllFailuresLeaveDataUntouched(t *testing.T) {
	src := &fakeSource{results: allOK()}
	r, _ := newRefresher(src)
	first := r.Refresh(context.Background())

	src.results = map[string]func() models.FetchResult{}
	second := r.Refresh(context.Background())

	assert.Equal(t, first.Data(), second.Data())
	assert.Equal(t, models.StatusSuccess, second.Status)
}

func TestRefreshFailedTickerNeverInitialized(t *testing.T) {
	res := allOK()
	delete(res, "HG=F")
	delete(res, "EWZ")
	r, _ := newRefresher(&fakeSource{results: res})

	got := r.Refresh(context.Background())

	assert.Nil(t, got.Iron)
	assert.NotContains(t, got.Macro, "ewz")
	assert.Equal(t, models.StatusSuccess, got.Status)
}

func TestRefreshStoresClosingNoData(t *testing.T) {
	res := allOK()
	res["PBR"] = noData("PBR")
	r, _ := newRefresher(&fakeSource{results: res})

	got := r.Refresh(context.Background())

	require.Contains(t, got.ADRs, "PBR")
	assert.Equal(t, models.SourceNoData, got.ADRs["PBR"].Source)
	assert.Nil(t, got.ADRs["PBR"].Current)
}

func TestRefreshPanicSetsErrorStatus(t *testing.T) {
	src := &fakeSource{results: allOK()}
	r, _ := newRefresher(src)
	first := r.Refresh(context.Background())

	src.results["^VIX"] = regular("^VIX", 30)
	src.results["VALE"] = func() models.FetchResult { panic("boom") }
	got := r.Refresh(context.Background())

	assert.Equal(t, models.StatusError, got.Status)
	assert.Contains(t, got.Error, "boom")
	assert.Equal(t, first.Timestamp, got.Timestamp)
	assert.Equal(t, 30.0, got.VIX.Current, "entries written before the failure are kept")
	assert.Equal(t, first.ADRs["PBR"], got.ADRs["PBR"])

	// next clean cycle recovers
	src.results["VALE"] = closing("VALE", 13)
	again := r.Refresh(context.Background())
	assert.Equal(t, models.StatusSuccess, again.Status)
	assert.Empty(t, again.Error)
}

func TestRefreshCancelledContextIsCycleFailure(t *testing.T) {
	r, _ := newRefresher(&fakeSource{results: allOK()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := r.Refresh(ctx)

	assert.Equal(t, models.StatusError, got.Status)
	assert.Empty(t, got.Timestamp)
	assert.Contains(t, got.Error, "context canceled")
}

func TestRefreshPublishesUpdatesToSinks(t *testing.T) {
	res := allOK()
	delete(res, "GC=F")
	sink := &recordingSink{}
	r, _ := newRefresher(&fakeSource{results: res}, sink)

	got := r.Refresh(context.Background())

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Same(t, got, ev.Snapshot)
	require.Len(t, ev.Updates, 7)
	assert.Equal(t, "vix", ev.Updates[0].Category)
	assert.Equal(t, "iron", ev.Updates[1].Category)
	assert.Equal(t, models.QuoteUpdate{Category: "macro", Key: "ewz", Ticker: "EWZ", Data: got.Macro["ewz"]}, ev.Updates[5])
}

func TestRefreshSinkErrorDoesNotChangeStatus(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	r, store := newRefresher(&fakeSource{results: allOK()}, sink)

	got := r.Refresh(context.Background())

	assert.Equal(t, models.StatusSuccess, got.Status)
	assert.Equal(t, models.StatusSuccess, store.Load().Status)
}

type slowSource struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *slowSource) Fetch(_ context.Context, ticker string, mode models.Mode) models.FetchResult {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return models.FetchResult{Status: models.FetchFailed, Ticker: ticker, Mode: mode, Err: errors.New("slow")}
}

func TestRefreshCyclesAreSerialized(t *testing.T) {
	src := &slowSource{}
	r := NewMarketRefresher(src, cache.NewSnapshotStore(), testTable(), nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Refresh(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.maxSeen.Load())
}

func TestLoopStopsOnCancel(t *testing.T) {
	src := &fakeSource{results: allOK()}
	r, store := newRefresher(src)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Loop(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.Load().Status == models.StatusSuccess
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopDisabledReturnsImmediately(t *testing.T) {
	r, _ := newRefresher(&fakeSource{})
	r.Loop(context.Background(), 0)
}
