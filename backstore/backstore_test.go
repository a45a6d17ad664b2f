package backstore

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-disqus-backstore/disqus"
	"github.com/goliatone/go-disqus-backstore/pkg/testsupport"
)

func newTestClient(t *testing.T) (*disqus.Client, *testsupport.FakeDisqus) {
	t.Helper()

	fake := testsupport.NewFakeDisqus(t)
	cfg := disqus.DefaultConfig()
	cfg.BaseURL = fake.URL()
	cfg.SecretKey = "secret"
	cfg.Forum = "example"
	cfg.AccessToken = "token"

	client, err := disqus.NewClient(cfg, disqus.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, fake
}

func newManagers(t *testing.T, src Source) (*ThreadManager, *PostManager) {
	t.Helper()

	threads, err := NewThreadManager(src, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewThreadManager failed: %v", err)
	}
	posts, err := NewPostManager(src, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewPostManager failed: %v", err)
	}
	return threads, posts
}

func ids[T Record](records []T) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.PrimaryKey())
	}
	return out
}

func sameIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func writeCalls(fake *testsupport.FakeDisqus) []testsupport.Call {
	var out []testsupport.Call
	for _, c := range fake.Calls() {
		if c.Method == "POST" {
			out = append(out, c)
		}
	}
	return out
}

var ctx = context.Background()
