package cache

import (
	"sync/atomic"

	"ADRFeed/internal/domain/models"
)

// SnapshotStore holds the current market snapshot behind an atomic pointer.
// Published snapshots must not be mutated; writers Clone, edit, then Store.
type SnapshotStore struct {
	p atomic.Pointer[models.MarketSnapshot]
}

// NewSnapshotStore returns a store holding the initializing snapshot.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.p.Store(models.NewSnapshot())
	return s
}

// Load returns the current snapshot. Callers must treat it as read-only.
func (s *SnapshotStore) Load() *models.MarketSnapshot {
	return s.p.Load()
}

// Store publishes snap as the current snapshot.
func (s *SnapshotStore) Store(snap *models.MarketSnapshot) {
	if snap == nil {
		return
	}
	s.p.Store(snap)
}
