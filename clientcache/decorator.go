package clientcache

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-disqus-backstore/cache"
	"github.com/goliatone/go-disqus-backstore/disqus"
)

// Cache categories. Every read is registered under exactly one of them and
// every write clears the categories its effect can reach.
const (
	CategoryThread cache.Category = "thread"
	CategoryPost   cache.Category = "post"
)

// Remote is the remote API surface the decorator wraps. *disqus.Client
// implements it.
type Remote interface {
	ListThreads(ctx context.Context, args disqus.ListThreadsArgs) (json.RawMessage, error)
	ThreadDetails(ctx context.Context, id int64) (json.RawMessage, error)
	ListPosts(ctx context.Context, args disqus.ListPostsArgs) (json.RawMessage, error)
	PostDetails(ctx context.Context, id int64) (json.RawMessage, error)

	OpenThread(ctx context.Context, id int64) error
	CloseThread(ctx context.Context, id int64) error
	RemoveThread(ctx context.Context, id int64) error
	RemoveThreads(ctx context.Context, ids []int64) error
	RestoreThread(ctx context.Context, id int64) error

	RemovePost(ctx context.Context, id int64) error
	RemovePosts(ctx context.Context, ids []int64) error
	ApprovePost(ctx context.Context, id int64) error
	SpamPost(ctx context.Context, id int64) error
	UpdatePostMessage(ctx context.Context, id int64, message string) error
}

var _ Remote = (*disqus.Client)(nil)

// Interface assertion to ensure CachedClient implements Remote
var _ Remote = (*CachedClient)(nil)

// CachedClient decorates a Remote with read caching. Reads go through the
// registry; writes pass through and, on success, clear their categories.
type CachedClient struct {
	base     Remote
	registry *cache.Registry

	listThreads   cache.ReadFn[disqus.ListThreadsArgs]
	threadDetails cache.ReadFn[int64]
	listPosts     cache.ReadFn[disqus.ListPostsArgs]
	postDetails   cache.ReadFn[int64]
}

// New registers the read functions of base in registry and returns the
// decorator. A registry can back only one CachedClient since function names
// are registered once.
func New(base Remote, registry *cache.Registry) (*CachedClient, error) {
	c := &CachedClient{base: base, registry: registry}

	var err error
	if c.listThreads, err = cache.Wrap[disqus.ListThreadsArgs](registry, CategoryThread, "ListThreads", base.ListThreads); err != nil {
		return nil, err
	}
	if c.threadDetails, err = cache.Wrap[int64](registry, CategoryThread, "ThreadDetails", base.ThreadDetails); err != nil {
		return nil, err
	}
	if c.listPosts, err = cache.Wrap[disqus.ListPostsArgs](registry, CategoryPost, "ListPosts", base.ListPosts); err != nil {
		return nil, err
	}
	if c.postDetails, err = cache.Wrap[int64](registry, CategoryPost, "PostDetails", base.PostDetails); err != nil {
		return nil, err
	}
	return c, nil
}

// Registry returns the registry backing this client.
func (c *CachedClient) Registry() *cache.Registry {
	return c.registry
}

// ListThreads returns the forum thread listing, with caching
func (c *CachedClient) ListThreads(ctx context.Context, args disqus.ListThreadsArgs) (json.RawMessage, error) {
	return c.listThreads(ctx, args)
}

// ThreadDetails returns one thread, with caching
func (c *CachedClient) ThreadDetails(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.threadDetails(ctx, id)
}

// ListPosts returns a forum or thread scoped post listing, with caching
func (c *CachedClient) ListPosts(ctx context.Context, args disqus.ListPostsArgs) (json.RawMessage, error) {
	return c.listPosts(ctx, args)
}

// PostDetails returns one post, with caching
func (c *CachedClient) PostDetails(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.postDetails(ctx, id)
}

// OpenThread reopens a thread
func (c *CachedClient) OpenThread(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.OpenThread(ctx, id) }, CategoryThread)
}

// CloseThread closes a thread
func (c *CachedClient) CloseThread(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.CloseThread(ctx, id) }, CategoryThread)
}

// RestoreThread restores a removed thread
func (c *CachedClient) RestoreThread(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.RestoreThread(ctx, id) }, CategoryThread)
}

// RemoveThread removes a thread. Post listings are cleared as well since the
// remote side hides the posts of removed threads.
func (c *CachedClient) RemoveThread(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.RemoveThread(ctx, id) }, CategoryThread, CategoryPost)
}

// RemoveThreads removes several threads
func (c *CachedClient) RemoveThreads(ctx context.Context, ids []int64) error {
	return c.write(ctx, func() error { return c.base.RemoveThreads(ctx, ids) }, CategoryThread, CategoryPost)
}

// RemovePost removes a post
func (c *CachedClient) RemovePost(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.RemovePost(ctx, id) }, CategoryPost)
}

// RemovePosts removes several posts
func (c *CachedClient) RemovePosts(ctx context.Context, ids []int64) error {
	return c.write(ctx, func() error { return c.base.RemovePosts(ctx, ids) }, CategoryPost)
}

// ApprovePost approves a post
func (c *CachedClient) ApprovePost(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.ApprovePost(ctx, id) }, CategoryPost)
}

// SpamPost marks a post as spam
func (c *CachedClient) SpamPost(ctx context.Context, id int64) error {
	return c.write(ctx, func() error { return c.base.SpamPost(ctx, id) }, CategoryPost)
}

// UpdatePostMessage edits a post body
func (c *CachedClient) UpdatePostMessage(ctx context.Context, id int64, message string) error {
	return c.write(ctx, func() error { return c.base.UpdatePostMessage(ctx, id, message) }, CategoryPost)
}

// write runs op and clears categories only when it succeeded.
func (c *CachedClient) write(ctx context.Context, op func() error, categories ...cache.Category) error {
	if err := op(); err != nil {
		return err
	}
	return c.registry.Clear(ctx, categories...)
}
