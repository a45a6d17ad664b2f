package backstore

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-disqus-backstore/disqus"
	"github.com/goliatone/go-disqus-backstore/model"
)

// payload is what one query lineage fetches: the raw listing plus the threads
// needed to resolve post relations.
type payload struct {
	raw     json.RawMessage
	threads []model.Thread
}

// entity adapts one record type to the query engine.
type entity[T Record] interface {
	meta() *model.Meta
	fetch(ctx context.Context, src Source, scope int64) (*payload, error)
	assemble(p *payload) ([]T, error)
	// detail reads one record through its detail endpoint.
	detail(ctx context.Context, src Source, id int64) (T, bool, error)
	// useDetailForGet reports whether Get by exact id goes through detail.
	useDetailForGet() bool
	threadOf(rec T) (int64, bool)
	remove(ctx context.Context, src Source, id int64) error
	removeMany(ctx context.Context, src Source, ids []int64) error
}

type threadEntity struct{}

func (threadEntity) meta() *model.Meta { return model.ThreadMeta }

func (threadEntity) fetch(ctx context.Context, src Source, _ int64) (*payload, error) {
	raw, err := src.ListThreads(ctx, disqus.ListThreadsArgs{})
	if err != nil {
		return nil, err
	}
	return &payload{raw: raw}, nil
}

func (threadEntity) assemble(p *payload) ([]model.Thread, error) {
	return model.AssembleThreads(p.raw)
}

func (threadEntity) detail(ctx context.Context, src Source, id int64) (model.Thread, bool, error) {
	raw, err := src.ThreadDetails(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return model.Thread{}, false, nil
		}
		return model.Thread{}, false, err
	}
	t, err := model.AssembleThread(raw)
	if err != nil {
		return model.Thread{}, false, err
	}
	return t, true, nil
}

func (threadEntity) useDetailForGet() bool { return false }

func (threadEntity) threadOf(model.Thread) (int64, bool) { return 0, false }

func (threadEntity) remove(ctx context.Context, src Source, id int64) error {
	return src.RemoveThread(ctx, id)
}

func (threadEntity) removeMany(ctx context.Context, src Source, ids []int64) error {
	return src.RemoveThreads(ctx, ids)
}

type postEntity struct{}

func (postEntity) meta() *model.Meta { return model.PostMeta }

// fetch lists posts forum wide, or for one thread when scope is set. Relations
// are resolved against the forum thread listing, or the scoped thread's
// details.
func (postEntity) fetch(ctx context.Context, src Source, scope int64) (*payload, error) {
	raw, err := src.ListPosts(ctx, disqus.ListPostsArgs{Thread: scope})
	if err != nil {
		return nil, err
	}

	var threads []model.Thread
	if scope != 0 {
		threads, err = lookupThread(ctx, src, scope)
	} else {
		threads, err = listThreads(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	return &payload{raw: raw, threads: threads}, nil
}

func (postEntity) assemble(p *payload) ([]model.Post, error) {
	return model.AssemblePosts(p.raw, p.threads)
}

func (postEntity) detail(ctx context.Context, src Source, id int64) (model.Post, bool, error) {
	raw, err := src.PostDetails(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return model.Post{}, false, nil
		}
		return model.Post{}, false, err
	}

	// First pass only learns the thread id.
	p, err := model.AssemblePost(raw, nil)
	if err != nil {
		return model.Post{}, false, err
	}
	threads, err := lookupThread(ctx, src, p.Thread.ID)
	if err != nil {
		return model.Post{}, false, err
	}
	p, err = model.AssemblePost(raw, threads)
	if err != nil {
		return model.Post{}, false, err
	}
	return p, true, nil
}

func (postEntity) useDetailForGet() bool { return true }

func (postEntity) threadOf(p model.Post) (int64, bool) { return p.Thread.ID, true }

func (postEntity) remove(ctx context.Context, src Source, id int64) error {
	return src.RemovePost(ctx, id)
}

func (postEntity) removeMany(ctx context.Context, src Source, ids []int64) error {
	return src.RemovePosts(ctx, ids)
}

func listThreads(ctx context.Context, src Source) ([]model.Thread, error) {
	raw, err := src.ListThreads(ctx, disqus.ListThreadsArgs{})
	if err != nil {
		return nil, err
	}
	return model.AssembleThreads(raw)
}

// lookupThread returns the thread as a one element lookup, or an empty lookup
// when the remote side does not know it.
func lookupThread(ctx context.Context, src Source, id int64) ([]model.Thread, error) {
	raw, err := src.ThreadDetails(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	t, err := model.AssembleThread(raw)
	if err != nil {
		return nil, err
	}
	return []model.Thread{t}, nil
}

// remoteCodeInvalidArgument is what details endpoints answer for unknown ids.
const remoteCodeInvalidArgument = 2

func isNotFound(err error) bool {
	remote, ok := disqus.AsRemoteAPIError(err)
	return ok && remote.Code == remoteCodeInvalidArgument
}
