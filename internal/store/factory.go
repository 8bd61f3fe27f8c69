package store

import (
	"github.com/empathyengine/resonance/internal/logger"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// New creates a Store for the given driver name. The memory driver loads
// its JSON snapshot, when configured, before returning.
func New(driver string, opts ...Option) (Store, error) {
	cfg := &storeConfig{log: logger.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return newMemoryStore(cfg), nil

	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{client: cfg.redisClient}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
