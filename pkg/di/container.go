package di

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-disqus-backstore/backstore"
	"github.com/goliatone/go-disqus-backstore/cache"
	"github.com/goliatone/go-disqus-backstore/clientcache"
	"github.com/goliatone/go-disqus-backstore/disqus"
	"github.com/goliatone/go-disqus-backstore/pkg/config"
	"github.com/goliatone/go-disqus-backstore/pkg/telemetry"
)

// Container wires the remote client, the result cache and the entity managers
// of one process. Every component is built once in NewContainer and shared.
type Container struct {
	config *config.Config
	logger *zap.Logger

	metrics      *telemetry.Metrics
	cacheService cache.CacheService
	registry     *cache.Registry
	client       *disqus.Client
	cached       *clientcache.CachedClient

	threads *backstore.ThreadManager
	posts   *backstore.PostManager
}

type options struct {
	logger  *zap.Logger
	metrics *telemetry.Metrics
	doer    disqus.HTTPDoer
	service cache.CacheService
}

// Option customizes container construction.
type Option func(*options)

// WithLogger sets the base logger; components derive named loggers from it.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the instruments notified by the cache and the client.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// WithHTTPClient replaces the HTTP client used for remote calls.
func WithHTTPClient(doer disqus.HTTPDoer) Option {
	return func(o *options) { o.doer = doer }
}

// WithCacheService replaces the cache backend selected by configuration.
func WithCacheService(service cache.CacheService) Option {
	return func(o *options) { o.service = service }
}

// NewContainer builds every component from cfg.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	if o.metrics == nil {
		metrics, err := telemetry.NewMetrics(telemetry.Meter())
		if err != nil {
			return nil, err
		}
		o.metrics = metrics
	}

	service := o.service
	if service == nil {
		var err error
		service, err = cache.NewCacheService(ctx, CacheConfig(cfg.Cache))
		if err != nil {
			return nil, err
		}
	}

	registry := cache.NewRegistry(service,
		cache.WithLogger(o.logger.Named("cache")),
		cache.WithObserver(o.metrics),
	)

	clientOpts := []disqus.Option{
		disqus.WithLogger(o.logger.Named("disqus")),
		disqus.WithCallObserver(o.metrics),
	}
	if o.doer != nil {
		clientOpts = append(clientOpts, disqus.WithHTTPClient(o.doer))
	}
	client, err := disqus.NewClient(DisqusConfig(cfg.Disqus), clientOpts...)
	if err != nil {
		closeService(service)
		return nil, err
	}

	cached, err := clientcache.New(client, registry)
	if err != nil {
		closeService(service)
		return nil, err
	}

	managerLogger := backstore.WithLogger(o.logger.Named("backstore"))
	threads, err := backstore.NewThreadManager(cached, managerLogger)
	if err != nil {
		closeService(service)
		return nil, err
	}
	posts, err := backstore.NewPostManager(cached, managerLogger)
	if err != nil {
		closeService(service)
		return nil, err
	}

	return &Container{
		config:       cfg,
		logger:       o.logger,
		metrics:      o.metrics,
		cacheService: service,
		registry:     registry,
		client:       client,
		cached:       cached,
		threads:      threads,
		posts:        posts,
	}, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the base logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// CacheService returns the cache backend.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// Registry returns the cache registry shared by all cached reads.
func (c *Container) Registry() *cache.Registry { return c.registry }

// Client returns the uncached remote client.
func (c *Container) Client() *disqus.Client { return c.client }

// Source returns the cached remote client the managers use.
func (c *Container) Source() *clientcache.CachedClient { return c.cached }

// Threads returns the thread manager.
func (c *Container) Threads() *backstore.ThreadManager { return c.threads }

// Posts returns the post manager.
func (c *Container) Posts() *backstore.PostManager { return c.posts }

// Close releases the cache backend connection, if it holds one.
func (c *Container) Close() error {
	if closer, ok := c.cacheService.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// CacheConfig converts the configuration section to cache.Config.
func CacheConfig(cfg config.CacheConfig) cache.Config {
	out := cache.DefaultConfig()
	if cfg.Backend != "" {
		out.Backend = cfg.Backend
	}
	if cfg.TTL > 0 {
		out.TTL = cfg.TTL
	}
	if cfg.Capacity > 0 {
		out.Capacity = cfg.Capacity
	}
	if cfg.Shards > 0 {
		out.NumShards = cfg.Shards
	}
	if cfg.EvictionPercentage > 0 {
		out.EvictionPercentage = cfg.EvictionPercentage
	}
	if cfg.Namespace != "" {
		out.Namespace = cfg.Namespace
	}
	if cfg.EvictionInterval > 0 {
		out.EvictionInterval = cfg.EvictionInterval
	}
	if er := cfg.EarlyRefresh; er.Enabled {
		out.EarlyRefresh = &cache.EarlyRefreshConfig{
			MinAsyncRefreshTime: er.MinAsync,
			MaxAsyncRefreshTime: er.MaxAsync,
			SyncRefreshTime:     er.Sync,
			RetryBaseDelay:      er.RetryBaseDelay,
		}
	}
	out.RedisURL = cfg.RedisURL
	return out
}

// DisqusConfig converts the configuration section to disqus.Config.
func DisqusConfig(cfg config.DisqusConfig) disqus.Config {
	out := disqus.DefaultConfig()
	if cfg.BaseURL != "" {
		out.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		out.Timeout = cfg.Timeout
	}
	if cfg.PageLimit > 0 {
		out.PageLimit = cfg.PageLimit
	}
	out.PublicKey = cfg.PublicKey
	out.SecretKey = cfg.SecretKey
	out.Forum = cfg.Forum
	out.AccessToken = cfg.AccessToken
	return out
}

func closeService(service cache.CacheService) {
	if closer, ok := service.(io.Closer); ok {
		_ = closer.Close()
	}
}
