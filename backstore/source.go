package backstore

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-disqus-backstore/disqus"
)

// Source is the remote surface the query engine reads from and writes to.
// Both *disqus.Client and *clientcache.CachedClient implement it; production
// wiring uses the cached one.
type Source interface {
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

// Record is implemented by model.Thread and model.Post.
type Record interface {
	PrimaryKey() int64
	FieldValue(name string) (any, bool)
}
