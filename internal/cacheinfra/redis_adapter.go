package cacheinfra

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
)

// maxReadableKey bounds the readable part of a redis key; longer keys keep
// that many bytes and get an xxhash suffix so prefix scans still match.
const maxReadableKey = 160

const scanBatch = 200

// RedisConfig configures the shared redis backend.
type RedisConfig struct {
	URL       string
	Namespace string
	TTL       time.Duration
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	if c.URL == "" {
		return &ConfigError{Field: "URL", Message: "is required"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	return nil
}

// RedisService stores remote payloads in redis so several admin processes share one cache.
type RedisService struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedisService parses cfg.URL and connects a redis client.
func NewRedisService(ctx context.Context, cfg RedisConfig) (*RedisService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &ConfigError{Field: "URL", Message: err.Error()}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisServiceWithClient(client, cfg.Namespace, cfg.TTL), nil
}

// NewRedisServiceWithClient wraps an existing client.
func NewRedisServiceWithClient(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisService {
	if namespace == "" {
		namespace = "backstore"
	}
	return &RedisService{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

// GetOrFetch returns the stored payload or runs fetchFn and stores its result.
// A redis read failure is returned without calling fetchFn; a failed write
// after a successful fetch is dropped.
func (r *RedisService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if fetchFn == nil {
		return nil, &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	redisKey := r.redisKey(key)

	data, err := r.client.Get(ctx, redisKey).Bytes()
	if err == nil {
		return json.RawMessage(data), nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	payload, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}

	_ = r.client.Set(ctx, redisKey, []byte(payload), r.ttl).Err()

	return payload, nil
}

// Delete removes a single entry.
func (r *RedisService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.redisKey(key)).Err()
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (r *RedisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := r.namespace + ":" + escapeGlob(prefix) + "*"

	var batch []string
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisService) Close() error {
	return r.client.Close()
}

func (r *RedisService) redisKey(key string) string {
	if len(key) <= maxReadableKey {
		return r.namespace + ":" + key
	}
	sum := strconv.FormatUint(xxhash.Sum64String(key), 16)
	return r.namespace + ":" + key[:maxReadableKey] + "#" + sum
}

func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
