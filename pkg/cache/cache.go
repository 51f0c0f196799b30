package cache

import (
	"context"
	"time"
)

// Service is the write side of a key-value cache.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Close() error
}
