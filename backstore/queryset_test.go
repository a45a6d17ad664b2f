package backstore

import (
	"sync"
	"testing"

	"github.com/goliatone/go-disqus-backstore/disqus"
	"github.com/goliatone/go-disqus-backstore/model"
)

func TestThreadListAll(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	got, err := threads.All().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !sameIDs(ids(got), []int64{101, 102, 103}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
	if !got[1].IsClosed || !got[2].IsDeleted {
		t.Errorf("flags not mapped: %+v", got)
	}
	if n := len(fake.CallsTo("forums/listThreads")); n != 1 {
		t.Errorf("expected 1 listing call, got %d", n)
	}
}

func TestQuerySetIsLazy(t *testing.T) {
	client, fake := newTestClient(t)
	threads, posts := newManagers(t, client)

	_ = threads.Filter(ID(101)).Exclude(ID(102)).OrderBy("-id").SelectRelated().Using("default")
	_ = posts.Filter(ThreadIs(101))

	if calls := fake.Calls(); len(calls) != 0 {
		t.Fatalf("expected no remote calls before evaluation, got %v", calls)
	}
}

func TestQuerySetLineageFetchesOnce(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	q := threads.Query()
	first, err := q.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	second, err := q.List(ctx)
	if err != nil {
		t.Fatalf("second List failed: %v", err)
	}
	if !sameIDs(ids(first), ids(second)) {
		t.Errorf("repeated evaluation differs: %v vs %v", ids(first), ids(second))
	}

	one, found, err := q.Get(ctx, ID(102))
	if err != nil || !found || one.Title != "Roadmap" {
		t.Fatalf("Get(102) = %+v, %v, %v", one, found, err)
	}
	if n, err := q.Exclude(ID(103)).Count(ctx); err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	if n := len(fake.CallsTo("forums/listThreads")); n != 1 {
		t.Errorf("expected a single listing call for the lineage, got %d", n)
	}
}

func TestQuerySetConcurrentEvaluation(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	q := threads.Query()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.Filter(ID(101)).List(ctx); err != nil {
				t.Errorf("List failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := len(fake.CallsTo("forums/listThreads")); n != 1 {
		t.Errorf("expected 1 listing call, got %d", n)
	}
}

func TestThreadGetCardinality(t *testing.T) {
	client, _ := newTestClient(t)
	threads, _ := newManagers(t, client)

	if _, found, err := threads.Get(ctx, ID(555)); err != nil || found {
		t.Errorf("missing id: found=%v err=%v", found, err)
	}

	got, found, err := threads.Get(ctx, PK(101))
	if err != nil || !found {
		t.Fatalf("Get(101) failed: found=%v err=%v", found, err)
	}
	if got.String() != "Release notes 1.0" {
		t.Errorf("unexpected thread %q", got.String())
	}

	_, _, err = threads.Get(ctx)
	if !IsMultipleObjectsReturned(err) {
		t.Errorf("expected MultipleObjectsReturned, got %v", err)
	}
}

func TestPostGetUsesDetails(t *testing.T) {
	client, fake := newTestClient(t)
	_, posts := newManagers(t, client)

	got, found, err := posts.Get(ctx, ID(201))
	if err != nil || !found {
		t.Fatalf("Get(201) failed: found=%v err=%v", found, err)
	}
	if got.Message != "Great release!" {
		t.Errorf("unexpected message %q", got.Message)
	}
	if !got.Thread.Resolved() || got.Thread.Thread.Title != "Release notes 1.0" {
		t.Errorf("thread not resolved: %+v", got.Thread)
	}

	if n := len(fake.CallsTo("posts/details")); n != 1 {
		t.Errorf("expected 1 details call, got %d", n)
	}
	if n := len(fake.CallsTo("forums/listPosts")); n != 0 {
		t.Errorf("expected no listing call, got %d", n)
	}
}

func TestPostGetMissing(t *testing.T) {
	client, _ := newTestClient(t)
	_, posts := newManagers(t, client)

	_, found, err := posts.Get(ctx, ID(999))
	if err != nil {
		t.Fatalf("expected no error for a missing post, got %v", err)
	}
	if found {
		t.Error("expected not found")
	}
}

func TestPostGetAppliesRemainingPredicates(t *testing.T) {
	client, _ := newTestClient(t)
	_, posts := newManagers(t, client)

	_, found, err := posts.Filter(ThreadIs(102)).Get(ctx, ID(201))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("post 201 belongs to thread 101 and should not match thread 102")
	}
}

func TestPostUnresolvedThread(t *testing.T) {
	client, _ := newTestClient(t)
	_, posts := newManagers(t, client)

	got, found, err := posts.Get(ctx, ID(204))
	if err != nil || !found {
		t.Fatalf("Get(204) failed: found=%v err=%v", found, err)
	}
	if got.Thread.Resolved() {
		t.Errorf("expected unresolved thread, got %+v", got.Thread)
	}
	if got.Thread.ID != 999 {
		t.Errorf("expected raw thread id 999, got %d", got.Thread.ID)
	}
}

func TestPostFilterByThreadUsesScopedListing(t *testing.T) {
	client, fake := newTestClient(t)
	_, posts := newManagers(t, client)

	got, err := posts.Filter(ThreadIs(101)).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !sameIDs(ids(got), []int64{201, 202}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}

	scoped := fake.CallsTo("threads/listPosts")
	if len(scoped) != 1 || scoped[0].Params.Get("thread") != "101" {
		t.Errorf("expected one scoped listing for thread 101, got %+v", scoped)
	}
	if n := len(fake.CallsTo("forums/listPosts")); n != 0 {
		t.Errorf("expected no forum listing, got %d", n)
	}
	if n := len(fake.CallsTo("forums/listThreads")); n != 0 {
		t.Errorf("scoped listing should resolve through thread details, got %d listThreads", n)
	}
}

func TestPostFilterThreadIn(t *testing.T) {
	client, fake := newTestClient(t)
	threads, posts := newManagers(t, client)

	open, err := threads.Filter(ID(101)).List(ctx)
	if err != nil {
		t.Fatalf("thread List failed: %v", err)
	}

	got, err := posts.Filter(ThreadsIn(open)).List(ctx)
	if err != nil {
		t.Fatalf("post List failed: %v", err)
	}
	if !sameIDs(ids(got), []int64{201, 202}) {
		t.Errorf("unexpected ids %v", ids(got))
	}

	got, err = posts.Filter(ThreadIn(101, 102)).List(ctx)
	if err != nil {
		t.Fatalf("post List failed: %v", err)
	}
	if !sameIDs(ids(got), []int64{201, 202, 203}) {
		t.Errorf("unexpected ids %v", ids(got))
	}
	if n := len(fake.CallsTo("threads/listPosts")); n != 0 {
		t.Errorf("thread__in should use the forum listing, got %d scoped calls", n)
	}
}

func TestPostExclude(t *testing.T) {
	client, _ := newTestClient(t)
	_, posts := newManagers(t, client)

	got, err := posts.Filter(ThreadIs(101)).Exclude(ID(202)).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !sameIDs(ids(got), []int64{201}) {
		t.Errorf("unexpected ids %v", ids(got))
	}

	got, err = posts.Exclude(ThreadIs(101)).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !sameIDs(ids(got), []int64{203, 204}) {
		t.Errorf("unexpected ids %v", ids(got))
	}
}

func TestPostMultipleObjects(t *testing.T) {
	client, _ := newTestClient(t)
	_, posts := newManagers(t, client)

	_, _, err := posts.Get(ctx, ThreadIs(101))
	if !IsMultipleObjectsReturned(err) {
		t.Fatalf("expected MultipleObjectsReturned, got %v", err)
	}
}

func TestCountAndExists(t *testing.T) {
	client, _ := newTestClient(t)
	_, posts := newManagers(t, client)

	n, err := posts.Count(ctx)
	if err != nil || n != 4 {
		t.Errorf("Count = %d, %v", n, err)
	}

	ok, err := posts.Filter(ThreadIs(103)).Exists(ctx)
	if err != nil || ok {
		t.Errorf("Exists on empty thread = %v, %v", ok, err)
	}
}

func TestUnsupportedLookup(t *testing.T) {
	client, fake := newTestClient(t)
	threads, posts := newManagers(t, client)

	tests := []struct {
		name string
		err  error
	}{
		{"unknown field", func() error { _, err := threads.Filter(L("author", "ana")).List(ctx); return err }()},
		{"known but not filterable", func() error { _, err := threads.Filter(L(model.FieldTitle, "x")).List(ctx); return err }()},
		{"thread on threads", func() error { _, err := threads.Filter(ThreadIs(101)).List(ctx); return err }()},
		{"bad id", func() error { _, err := posts.Filter(ID(1)).Filter(L("id", "abc")).List(ctx); return err }()},
		{"get with bad lookup", func() error { _, _, err := posts.Get(ctx, L("thread__gt", 1)); return err }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsUnsupportedLookup(tt.err) {
				t.Errorf("expected UnsupportedLookup, got %v", tt.err)
			}
		})
	}

	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("expected no remote calls, got %v", calls)
	}

	if err := threads.Filter(L("nope", 1)).Err(); !IsUnsupportedLookup(err) {
		t.Errorf("Err() = %v", err)
	}
}

func TestRemoteErrorsPropagate(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	fake.RespondError("forums/listThreads", 13, "API request limit exceeded")

	_, err := threads.All().List(ctx)
	remote, ok := disqus.AsRemoteAPIError(err)
	if !ok {
		t.Fatalf("expected RemoteAPIError, got %v", err)
	}
	if remote.Code != 13 {
		t.Errorf("expected code 13, got %d", remote.Code)
	}
}

func TestFailedFetchIsRetried(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	fake.RespondError("forums/listThreads", 13, "API request limit exceeded")
	q := threads.Query()
	if _, err := q.List(ctx); err == nil {
		t.Fatal("expected error")
	}

	fake.SetThreads(nil)
	fake.RespondRaw("forums/listThreads", 200, `{"code":0,"response":[]}`)
	got, err := q.List(ctx)
	if err != nil {
		t.Fatalf("List after failure: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty listing, got %v", ids(got))
	}
}
