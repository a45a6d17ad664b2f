package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ReadFn is a remote read whose payload the registry may cache.
// A is the argument value; every exported field of it takes part in the cache key.
type ReadFn[A any] func(ctx context.Context, args A) (json.RawMessage, error)

// Observer receives the outcome of every cached read and invalidation.
type Observer interface {
	Hit(ctx context.Context, category, name string)
	Miss(ctx context.Context, category, name string)
	Fault(ctx context.Context, category, name string)
	Cleared(ctx context.Context, category string)
}

// Registry owns the cached read functions of a process, grouped by category.
type Registry struct {
	service  CacheService
	keys     KeySerializer
	logger   *zap.Logger
	observer Observer

	mu         sync.RWMutex
	categories map[Category]*categoryState
	functions  map[string]Category
}

// categoryState guards the generation counter of one category. Bumping the
// epoch on Clear makes every key built before the write unreachable, including
// keys stored late by fetches that were already in flight.
type categoryState struct {
	mu    sync.Mutex
	epoch uint64
}

func (s *categoryState) current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *categoryState) advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for cache faults and invalidations.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets the observer notified of hits, misses and invalidations.
func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(keys KeySerializer) Option {
	return func(r *Registry) {
		if keys != nil {
			r.keys = keys
		}
	}
}

// NewRegistry creates an empty registry storing entries in service.
func NewRegistry(service CacheService, opts ...Option) *Registry {
	r := &Registry{
		service:    service,
		keys:       NewDefaultKeySerializer(),
		logger:     zap.NewNop(),
		observer:   nopObserver{},
		categories: make(map[Category]*categoryState),
		functions:  make(map[string]Category),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates the function name with exactly one category.
func (r *Registry) Register(category Category, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.functions[name]; ok {
		return errAlreadyRegistered(name, existing)
	}
	if _, ok := r.categories[category]; !ok {
		r.categories[category] = &categoryState{}
	}
	r.functions[name] = category
	return nil
}

// Categories returns the registered categories in lexical order.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, 0, len(r.categories))
	for c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Wrap registers fn under category and returns its cached version.
func Wrap[A any](r *Registry, category Category, name string, fn ReadFn[A]) (ReadFn[A], error) {
	if err := r.Register(category, name); err != nil {
		return nil, err
	}
	state := r.state(category)

	return func(ctx context.Context, args A) (json.RawMessage, error) {
		return r.read(ctx, category, state, name, args, func(ctx context.Context) (json.RawMessage, error) {
			return fn(ctx, args)
		})
	}, nil
}

// Clear drops every entry of every function registered under the given categories.
// Nothing is cleared when one of the categories is unknown.
func (r *Registry) Clear(ctx context.Context, categories ...Category) error {
	states := make([]*categoryState, len(categories))
	for i, c := range categories {
		state := r.state(c)
		if state == nil {
			return errQueryNotRegistered(c)
		}
		states[i] = state
	}

	for i, c := range categories {
		epoch := states[i].advance()

		if err := r.service.DeleteByPrefix(ctx, categoryPrefix(c)); err != nil {
			r.logger.Warn("cache invalidation failed, relying on epoch",
				zap.String("category", c.String()),
				zap.Uint64("epoch", epoch),
				zap.Error(err),
			)
		}

		r.observer.Cleared(ctx, c.String())
		r.logger.Debug("cache category cleared",
			zap.String("category", c.String()),
			zap.Uint64("epoch", epoch),
		)
	}
	return nil
}

func (r *Registry) state(category Category) *categoryState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categories[category]
}

func (r *Registry) read(ctx context.Context, category Category, state *categoryState, name string, args any, fetch FetchFn) (json.RawMessage, error) {
	key := categoryPrefix(category) + strconv.FormatUint(state.current(), 10) + KeySeparator + r.keys.SerializeKey(name, args)

	var fetched atomic.Bool
	payload, err := r.service.GetOrFetch(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		fetched.Store(true)
		return fetch(ctx)
	})

	switch {
	case err == nil && fetched.Load():
		r.observer.Miss(ctx, category.String(), name)
		return payload, nil

	case err == nil:
		r.observer.Hit(ctx, category.String(), name)
		return payload, nil

	case fetched.Load():
		return nil, err
	}

	// The backend failed before our fetch ran, or we joined another caller's
	// failed fetch. Either way the read goes to the source directly.
	r.observer.Fault(ctx, category.String(), name)
	r.logger.Warn("cache read failed, fetching directly",
		zap.String("category", category.String()),
		zap.String("query", name),
		zap.Error(err),
	)
	return fetch(ctx)
}

func categoryPrefix(category Category) string {
	return category.String() + KeySeparator
}

type nopObserver struct{}

func (nopObserver) Hit(context.Context, string, string)   {}
func (nopObserver) Miss(context.Context, string, string)  {}
func (nopObserver) Fault(context.Context, string, string) {}
func (nopObserver) Cleared(context.Context, string)       {}
