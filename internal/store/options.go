package store

import (
	"github.com/redis/go-redis/v9"

	"github.com/empathyengine/resonance/internal/logger"
)

// Option is a functional option for configuring a store driver.
type Option func(*storeConfig)

type storeConfig struct {
	snapshotPath string
	redisClient  *redis.Client
	log          *logger.Logger
}

// WithSnapshotPath enables JSON snapshot persistence for the memory driver.
func WithSnapshotPath(path string) Option {
	return func(c *storeConfig) {
		c.snapshotPath = path
	}
}

// WithRedisClient sets the client for the Redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithLogger sets the logger used for non-fatal persistence warnings.
func WithLogger(log *logger.Logger) Option {
	return func(c *storeConfig) {
		c.log = log
	}
}
