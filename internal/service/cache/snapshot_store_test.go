package cache

import (
	"sync"
	"testing"

	"ADRFeed/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStoreStartsInitializing(t *testing.T) {
	s := NewSnapshotStore()
	snap := s.Load()
	require.NotNil(t, snap)
	assert.Equal(t, models.StatusInitializing, snap.Status)
	assert.Empty(t, snap.Timestamp)
	assert.Nil(t, snap.VIX)
	assert.Empty(t, snap.ADRs)
	assert.Empty(t, snap.Macro)
}

func TestSnapshotStoreCloneIsolatesWriters(t *testing.T) {
	s := NewSnapshotStore()
	before := s.Load()

	next := before.Clone()
	next.SetSlot(models.SlotVIX, models.Quote{Current: 18.2, Ticker: "^VIX"})
	next.Macro["ewz"] = models.Quote{Current: 29.1, Ticker: "EWZ"}
	next.Status = models.StatusSuccess

	assert.Nil(t, before.VIX, "published snapshot must not change")
	assert.Empty(t, before.Macro)

	s.Store(next)
	got := s.Load()
	require.NotNil(t, got.VIX)
	assert.Equal(t, 18.2, got.Slot(models.SlotVIX).Current)
	assert.Equal(t, models.StatusSuccess, got.Status)
}

func TestSnapshotStoreIgnoresNil(t *testing.T) {
	s := NewSnapshotStore()
	s.Store(nil)
	assert.NotNil(t, s.Load())
}

func TestSnapshotStoreConcurrentAccess(t *testing.T) {
	s := NewSnapshotStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			next := s.Load().Clone()
			next.ADRs["VALE"] = models.ClosingQuote{Ticker: "VALE"}
			s.Store(next)
		}(i)
		go func() {
			defer wg.Done()
			snap := s.Load()
			_ = snap.Data()
		}()
	}
	wg.Wait()
	assert.Contains(t, s.Load().ADRs, "VALE")
}
