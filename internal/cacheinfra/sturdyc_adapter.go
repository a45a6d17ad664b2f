package cacheinfra

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int

	// TTL is the freshness window of a cached remote payload.
	// Must be greater than 0. Default: 5s
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EarlyRefresh configures background refreshes of hot entries.
	// If nil, early refresh is disabled and entries expire strictly at TTL.
	EarlyRefresh *EarlyRefreshConfig

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig mirrors the sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns a Config sized for a single forum admin process.
func DefaultConfig() Config {
	return Config{
		Capacity:           2048,
		NumShards:          64,
		TTL:                5 * time.Second,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the optional parts of Config to sturdyc options.
// Capacity, NumShards, TTL, and EvictionPercentage go straight to sturdyc.New.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EarlyRefresh != nil {
		if c.EarlyRefresh.MinAsyncRefreshTime < 0 {
			return &ConfigError{Field: "EarlyRefresh.MinAsyncRefreshTime", Message: "must be non-negative"}
		}
		if c.EarlyRefresh.MaxAsyncRefreshTime < c.EarlyRefresh.MinAsyncRefreshTime {
			return &ConfigError{Field: "EarlyRefresh.MaxAsyncRefreshTime", Message: "must not be lower than MinAsyncRefreshTime"}
		}
		if c.EarlyRefresh.SyncRefreshTime < 0 {
			return &ConfigError{Field: "EarlyRefresh.SyncRefreshTime", Message: "must be non-negative"}
		}
		if c.EarlyRefresh.RetryBaseDelay < 0 {
			return &ConfigError{Field: "EarlyRefresh.RetryBaseDelay", Message: "must be non-negative"}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycService keeps remote payloads in an in-process sturdyc client.
type SturdycService struct {
	client *sturdyc.Client[json.RawMessage]
}

// NewSturdycService validates cfg and initializes a sturdyc client with it.
// Concurrent misses on the same key are collapsed by sturdyc into a single fetch,
// and a fetch that returns an error is never stored.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[json.RawMessage](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the live entry for key or runs fetchFn and stores its result.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if fetchFn == nil {
		return nil, &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	return s.client.GetOrFetch(ctx, key, fetchFn)
}

// Delete removes a single entry.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *SturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// Size reports the number of stored entries.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
