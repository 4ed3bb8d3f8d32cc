package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nulzo/studio-relay/internal/config"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// CacheService defines the interface for the relay's cache.
type CacheService interface {
	// Get unmarshals the stored value into dest, or returns ErrMiss.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}

// New builds the cache selected by cfg.Driver. "none" yields a nil service.
func New(ctx context.Context, cfg config.CacheConfig) (CacheService, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(ctx, cfg.RedisURL, "relay:")
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
