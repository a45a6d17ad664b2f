package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-disqus-backstore/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend            string
	TTL                time.Duration
	Capacity           int
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration
	EarlyRefresh       *EarlyRefreshConfig
	RedisURL           string
	Namespace          string
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns an in-memory Config with a five second freshness window.
func DefaultConfig() Config {
	cfg := convertFromInternal(cacheinfra.DefaultConfig())
	cfg.Backend = BackendMemory
	cfg.Namespace = "backstore"
	return cfg
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, "":
		return c.toInternal().Validate()
	case BackendRedis:
		return c.toRedis().Validate()
	default:
		return &cacheinfra.ConfigError{Field: "Backend", Message: "must be memory or redis"}
	}
}

// NewCacheService constructs the backend selected by cfg.Backend.
func NewCacheService(ctx context.Context, cfg Config) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendRedis {
		return cacheinfra.NewRedisService(ctx, cfg.toRedis())
	}
	return cacheinfra.NewSturdycService(cfg.toInternal())
}

func (c Config) toRedis() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		URL:       c.RedisURL,
		Namespace: c.Namespace,
		TTL:       c.TTL,
	}
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EarlyRefresh:       early,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EarlyRefresh:       early,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
