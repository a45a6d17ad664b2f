/*
Package clientcache provides a caching decorator for the remote API client.

# Overview

CachedClient wraps any Remote (normally *disqus.Client) and serves reads from a
cache.Registry. Each read function is registered once under a category:

	thread: ListThreads, ThreadDetails
	post:   ListPosts, PostDetails

Keys are built from the function name and the exact argument value, so
ListThreads(ListThreadsArgs{Limit: 10}) and ListThreads(ListThreadsArgs{Limit: 20})
are cached independently.

# Writes

Writes are never cached. They call through to the wrapped client and, only
when the remote call succeeded, clear the categories they affect:

	OpenThread, CloseThread, RestoreThread  -> thread
	RemoveThread, RemoveThreads             -> thread, post
	RemovePost(s), ApprovePost, SpamPost,
	UpdatePostMessage                       -> post

Thread removal clears post listings even when no post was touched by that
call. A failed write leaves the cache untouched.

# Usage

	service, _ := cache.NewCacheService(ctx, cache.DefaultConfig())
	registry := cache.NewRegistry(service, cache.WithLogger(logger))
	client, _ := disqus.NewClient(cfg)
	cached, _ := clientcache.New(client, registry)

	raw, err := cached.ListThreads(ctx, disqus.ListThreadsArgs{})
*/
package clientcache
