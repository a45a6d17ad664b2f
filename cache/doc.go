// Package cache memoizes remote reads per exact argument set and invalidates
// them by category when a write succeeds.
//
// # Overview
//
// A Registry groups cached read functions under categories ("thread", "post").
// Wrap registers a read function once and returns its cached version:
//
//	service, _ := cache.NewCacheService(ctx, cache.DefaultConfig())
//	registry := cache.NewRegistry(service, cache.WithLogger(logger))
//
//	listThreads, err := cache.Wrap(registry, "thread", "ListThreads", client.ListThreads)
//	payload, err := listThreads(ctx, disqus.ListThreadsArgs{Limit: 10})
//
// A write clears the categories its result affects once it succeeds:
//
//	if err := client.CloseThread(ctx, id); err == nil {
//		registry.Clear(ctx, "thread")
//	}
//
// # Keys
//
// Keys are built as category::epoch::name::args. The default KeySerializer
// renders argument structs field by field and sorts map entries, so two calls
// share an entry only when every argument is equal.
//
// # Consistency
//
// Clear advances the category epoch under the category lock before deleting
// stored entries. A fetch that was in flight while the write completed stores
// its payload under the previous epoch, where no later read looks for it.
// Failed or cancelled fetches are never stored. When the backend itself fails
// the read falls through to the source, so a cache fault costs a remote call
// and never yields a wrong answer.
//
// # Backends
//
// The default backend is an in-process sturdyc client. Setting Backend to
// "redis" shares entries between processes; the epoch stays process local, so
// cross-process invalidation relies on prefix deletion.
package cache
