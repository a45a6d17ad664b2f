package backstore

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-disqus-backstore/cache"
	"github.com/goliatone/go-disqus-backstore/clientcache"
	"github.com/goliatone/go-disqus-backstore/model"
)

func TestThreadUpdateClose(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	thread, found, err := threads.Get(ctx, ID(101))
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	fake.Reset()

	thread.IsClosed = true
	changed, err := threads.Update(ctx, thread)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(changed) != 1 || changed[0] != model.FieldIsClosed {
		t.Errorf("unexpected changed fields %v", changed)
	}

	writes := writeCalls(fake)
	if len(writes) != 1 || writes[0].Operation != "threads/close" {
		t.Fatalf("expected exactly one close call, got %+v", writes)
	}
	if writes[0].Params.Get("thread") != "101" {
		t.Errorf("expected thread=101, got %v", writes[0].Params)
	}
	if n := len(fake.CallsTo("threads/details")); n != 1 {
		t.Errorf("expected the stored record to be read through details, got %d", n)
	}
}

func TestThreadUpdateDirections(t *testing.T) {
	tests := []struct {
		name   string
		id     int64
		mutate func(*model.Thread)
		op     string
	}{
		{"open", 102, func(th *model.Thread) { th.IsClosed = false }, "threads/open"},
		{"remove", 101, func(th *model.Thread) { th.IsDeleted = true }, "threads/remove"},
		{"restore", 103, func(th *model.Thread) { th.IsDeleted = false }, "threads/restore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t)
			threads, _ := newManagers(t, client)

			thread, found, err := threads.Get(ctx, ID(tt.id))
			if err != nil || !found {
				t.Fatalf("Get failed: found=%v err=%v", found, err)
			}
			tt.mutate(&thread)

			if _, err := threads.Update(ctx, thread); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			writes := writeCalls(fake)
			if len(writes) != 1 || writes[0].Operation != tt.op {
				t.Errorf("expected %s, got %+v", tt.op, writes)
			}
		})
	}
}

func TestUpdateWithoutChangesMakesNoWrite(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	thread, _, err := threads.Get(ctx, ID(101))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	changed, err := threads.Update(ctx, thread)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(changed) != 0 || len(writeCalls(fake)) != 0 {
		t.Errorf("expected no writes, changed=%v writes=%v", changed, writeCalls(fake))
	}
}

func TestUpdateUnsupportedAbortsBeforeRemoteCall(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	thread, _, err := threads.Get(ctx, ID(101))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	thread.IsClosed = true
	thread.Title = "Renamed"

	_, err = threads.Update(ctx, thread)
	if !IsUnsupportedMutation(err) {
		t.Fatalf("expected UnsupportedMutation, got %v", err)
	}
	if !strings.Contains(err.Error(), model.FieldTitle) {
		t.Errorf("error should name the field: %v", err)
	}
	if writes := writeCalls(fake); len(writes) != 0 {
		t.Errorf("expected no write calls, got %+v", writes)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	client, fake := newTestClient(t)
	threads, _ := newManagers(t, client)

	_, err := threads.Update(ctx, model.Thread{ID: 777, IsClosed: true})
	if !IsDoesNotExist(err) {
		t.Fatalf("expected DoesNotExist, got %v", err)
	}
	if writes := writeCalls(fake); len(writes) != 0 {
		t.Errorf("expected no write calls, got %+v", writes)
	}
}

func TestPostUpdates(t *testing.T) {
	tests := []struct {
		name        string
		id          int64
		mutate      func(*model.Post)
		op          string
		unsupported bool
	}{
		{"approve", 202, func(p *model.Post) { p.IsApproved = true }, "posts/approve", false},
		{"spam", 201, func(p *model.Post) { p.IsSpam = true }, "posts/spam", false},
		{"remove", 201, func(p *model.Post) { p.IsDeleted = true }, "posts/remove", false},
		{"message", 203, func(p *model.Post) { p.Message = "Edited" }, "posts/update", false},
		{"unapprove", 201, func(p *model.Post) { p.IsApproved = false }, "", true},
		{"unspam", 202, func(p *model.Post) { p.IsSpam = false }, "", true},
		{"forum", 201, func(p *model.Post) { p.Forum = "other" }, "", true},
		{"move thread", 201, func(p *model.Post) { p.Thread = model.ThreadRef{ID: 102} }, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t)
			_, posts := newManagers(t, client)

			post, found, err := posts.Get(ctx, ID(tt.id))
			if err != nil || !found {
				t.Fatalf("Get failed: found=%v err=%v", found, err)
			}
			tt.mutate(&post)

			_, err = posts.Update(ctx, post)
			writes := writeCalls(fake)

			if tt.unsupported {
				if !IsUnsupportedMutation(err) {
					t.Fatalf("expected UnsupportedMutation, got %v", err)
				}
				if len(writes) != 0 {
					t.Errorf("expected no write calls, got %+v", writes)
				}
				return
			}

			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if len(writes) != 1 || writes[0].Operation != tt.op {
				t.Fatalf("expected %s, got %+v", tt.op, writes)
			}
			if tt.op == "posts/update" && writes[0].Params.Get("message") != "Edited" {
				t.Errorf("message not sent: %v", writes[0].Params)
			}
		})
	}
}

func TestPostUpdateEditsBeforeRemoving(t *testing.T) {
	client, fake := newTestClient(t)
	_, posts := newManagers(t, client)

	post, found, err := posts.Get(ctx, ID(201))
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	post.IsDeleted = true
	post.Message = "Edited"

	changed, err := posts.Update(ctx, post)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var ops []string
	for _, c := range writeCalls(fake) {
		ops = append(ops, c.Operation)
	}
	if got := strings.Join(ops, ","); got != "posts/update,posts/remove" {
		t.Fatalf("removal must be dispatched last, got %s", got)
	}
	if strings.Join(changed, ",") != model.FieldMessage+","+model.FieldIsDeleted {
		t.Errorf("unexpected applied fields %v", changed)
	}
}

func TestDeleteCascade(t *testing.T) {
	client, fake := newTestClient(t)
	threads, posts := newManagers(t, client)

	doomed, err := threads.Filter(ID(101)).List(ctx)
	if err != nil {
		t.Fatalf("thread List failed: %v", err)
	}
	dependents, err := posts.Filter(ThreadsIn(doomed)).List(ctx)
	if err != nil {
		t.Fatalf("post List failed: %v", err)
	}
	fake.Reset()

	if err := posts.DeleteMany(ctx, dependents); err != nil {
		t.Fatalf("DeleteMany posts failed: %v", err)
	}
	if err := threads.DeleteMany(ctx, doomed); err != nil {
		t.Fatalf("DeleteMany threads failed: %v", err)
	}

	writes := writeCalls(fake)
	if len(writes) != 2 {
		t.Fatalf("expected two bulk calls, got %+v", writes)
	}
	if writes[0].Operation != "posts/remove" || strings.Join(writes[0].Params["post"], ",") != "201,202" {
		t.Errorf("unexpected post removal %+v", writes[0])
	}
	if writes[1].Operation != "threads/remove" || strings.Join(writes[1].Params["thread"], ",") != "101" {
		t.Errorf("unexpected thread removal %+v", writes[1])
	}
}

func TestDeleteManyEmptyMakesNoCall(t *testing.T) {
	client, fake := newTestClient(t)
	threads, posts := newManagers(t, client)

	if err := posts.DeleteMany(ctx, nil); err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	if err := threads.DeleteMany(ctx, []model.Thread{}); err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("expected no calls, got %+v", calls)
	}
}

func TestDeleteSingle(t *testing.T) {
	client, fake := newTestClient(t)
	_, posts := newManagers(t, client)

	if err := posts.Delete(ctx, model.Post{ID: 203}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	writes := writeCalls(fake)
	if len(writes) != 1 || writes[0].Params.Get("post") != "203" {
		t.Errorf("unexpected writes %+v", writes)
	}
}

func TestMutationTableValidation(t *testing.T) {
	client, _ := newTestClient(t)

	apply := func(context.Context, Source, int64, any, any) error { return nil }

	tests := []struct {
		name  string
		table MutationTable
	}{
		{"empty", MutationTable{}},
		{"unknown field", MutationTable{
			Mutations:   map[string]Mutation{"colour": {Apply: apply}},
			Unsupported: ThreadMutations().Unsupported,
		}},
		{"missing apply", MutationTable{
			Mutations:   map[string]Mutation{model.FieldIsClosed: {}, model.FieldIsDeleted: {Apply: apply}},
			Unsupported: ThreadMutations().Unsupported,
		}},
		{"listed twice", MutationTable{
			Mutations:   ThreadMutations().Mutations,
			Unsupported: append([]string{model.FieldIsClosed}, ThreadMutations().Unsupported...),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewThreadManager(client, WithMutations(tt.table))
			if !IsInvalidMutationTable(err) {
				t.Errorf("expected InvalidMutationTable, got %v", err)
			}
		})
	}

	if _, err := NewPostManager(client, WithMutations(PostMutations())); err != nil {
		t.Errorf("default post table rejected: %v", err)
	}
}

func TestManagerMeta(t *testing.T) {
	client, _ := newTestClient(t)
	threads, posts := newManagers(t, client)

	if threads.Meta().Entity() != "thread" || posts.Meta().Entity() != "post" {
		t.Errorf("unexpected entities %q %q", threads.Meta().Entity(), posts.Meta().Entity())
	}
}

func TestCachedSourceInvalidatesOnUpdate(t *testing.T) {
	client, fake := newTestClient(t)

	service, err := cache.NewCacheService(ctx, cache.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService failed: %v", err)
	}
	cached, err := clientcache.New(client, cache.NewRegistry(service))
	if err != nil {
		t.Fatalf("clientcache.New failed: %v", err)
	}
	threads, _ := newManagers(t, cached)

	for i := 0; i < 3; i++ {
		if _, err := threads.All().List(ctx); err != nil {
			t.Fatalf("List failed: %v", err)
		}
	}
	if n := len(fake.CallsTo("forums/listThreads")); n != 1 {
		t.Fatalf("expected the cache to absorb repeated listings, got %d calls", n)
	}

	thread, _, err := threads.Get(ctx, ID(101))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	thread.IsClosed = true
	if _, err := threads.Update(ctx, thread); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := threads.All().List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if n := len(fake.CallsTo("forums/listThreads")); n != 2 {
		t.Errorf("expected a refetch after the write, got %d calls", n)
	}
}
