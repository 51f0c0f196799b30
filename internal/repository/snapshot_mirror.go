package repository

import (
	"context"
	"fmt"
	"time"

	"ADRFeed/internal/domain/models"
	"ADRFeed/internal/domain/repository"
	pkgcache "ADRFeed/pkg/cache"
)

// mirrorDocument is the JSON stored under the mirror key.
type mirrorDocument struct {
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Timestamp string            `json:"timestamp"`
	Data      models.MarketData `json:"data"`
}

// RedisSnapshotMirror overwrites one Redis key with the latest snapshot after
// every cycle. The service never reads it back.
type RedisSnapshotMirror struct {
	cache pkgcache.Service
	key   string
	ttl   time.Duration
}

// NewRedisSnapshotMirror creates the mirror. A zero ttl keeps the key forever.
func NewRedisSnapshotMirror(cache pkgcache.Service, key string, ttl time.Duration) repository.Sink {
	return &RedisSnapshotMirror{cache: cache, key: key, ttl: ttl}
}

func (m *RedisSnapshotMirror) Name() string { return "redis" }

func (m *RedisSnapshotMirror) Publish(ctx context.Context, ev models.RefreshEvent) error {
	s := ev.Snapshot
	if s == nil {
		return nil
	}
	doc := mirrorDocument{
		Status:    string(s.Status),
		Error:     s.Error,
		Timestamp: s.Timestamp,
		Data:      s.Data(),
	}
	if err := m.cache.Set(ctx, m.key, doc, m.ttl); err != nil {
		return fmt.Errorf("mirror snapshot: %w", err)
	}
	return nil
}

func (m *RedisSnapshotMirror) Close() error {
	return m.cache.Close()
}
