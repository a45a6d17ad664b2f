package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-disqus-backstore/model"
	"github.com/goliatone/go-disqus-backstore/pkg/config"
	"github.com/goliatone/go-disqus-backstore/pkg/di"
	"github.com/goliatone/go-disqus-backstore/pkg/testsupport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*gin.Engine, *testsupport.FakeDisqus) {
	t.Helper()

	fake := testsupport.NewFakeDisqus(t)
	cfg := &config.Config{
		Disqus: config.DisqusConfig{
			BaseURL:     fake.URL(),
			SecretKey:   "secret",
			Forum:       "example",
			AccessToken: "token",
			Timeout:     time.Second,
		},
		Cache: config.CacheConfig{Backend: "memory", TTL: time.Minute},
	}

	container, err := di.NewContainer(context.Background(), cfg, di.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	router := NewRouter(container.Threads(), container.Posts(),
		WithLogger(zaptest.NewLogger(t)),
		WithMetricsHandler(metrics),
	)
	return router.Engine(), fake
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := do(t, engine, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "disqus-admin") {
		t.Errorf("health: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	rec = do(t, engine, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "# metrics") {
		t.Errorf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}

func TestListThreads(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := do(t, engine, http.MethodGet, "/api/threads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[listResponse[model.Thread]](t, rec)
	if body.Count != 3 || body.Results[0].Title != "Release notes 1.0" {
		t.Errorf("unexpected body %+v", body)
	}

	rec = do(t, engine, http.MethodGet, "/api/threads?exclude_id=103", "")
	body = decode[listResponse[model.Thread]](t, rec)
	if body.Count != 2 {
		t.Errorf("expected 2 threads, got %+v", body)
	}
}

func TestListPostsByThread(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodGet, "/api/posts?thread=101", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[listResponse[model.Post]](t, rec)
	if body.Count != 2 {
		t.Fatalf("expected 2 posts, got %+v", body)
	}
	if body.Results[0].Thread.Thread == nil || body.Results[0].Thread.Thread.ID != 101 {
		t.Errorf("thread not embedded: %+v", body.Results[0].Thread)
	}
	if n := len(fake.CallsTo("threads/listPosts")); n != 1 {
		t.Errorf("expected the thread scoped listing, got %d", n)
	}

	rec = do(t, engine, http.MethodGet, "/api/posts?thread__in=101,102", "")
	if body := decode[listResponse[model.Post]](t, rec); body.Count != 3 {
		t.Errorf("expected 3 posts, got %+v", body)
	}
}

func TestUnsupportedLookupIs422(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := do(t, engine, http.MethodGet, "/api/threads?title=Roadmap", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "UNSUPPORTED_LOOKUP") {
		t.Errorf("error body should carry the text code: %s", rec.Body.String())
	}
}

func TestGetRecords(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := do(t, engine, http.MethodGet, "/api/threads/102", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if th := decode[model.Thread](t, rec); !th.IsClosed {
		t.Errorf("expected closed thread, got %+v", th)
	}

	rec = do(t, engine, http.MethodGet, "/api/posts/204", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if p := decode[model.Post](t, rec); p.Thread.ID != 999 || p.Thread.Thread != nil {
		t.Errorf("expected unresolved thread reference, got %+v", p.Thread)
	}

	for _, path := range []string{"/api/threads/5", "/api/posts/5"} {
		if rec := do(t, engine, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
	if rec := do(t, engine, http.MethodGet, "/api/threads/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non numeric id, got %d", rec.Code)
	}
}

func TestUpdateThread(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodPatch, "/api/threads/101", `{"is_closed": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[updateResponse[model.Thread]](t, rec)
	if len(body.Changed) != 1 || body.Changed[0] != "is_closed" || !body.Record.IsClosed {
		t.Errorf("unexpected body %+v", body)
	}
	if n := len(fake.CallsTo("threads/close")); n != 1 {
		t.Errorf("expected 1 close call, got %d", n)
	}
}

func TestUpdateUnsupportedIs422(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodPatch, "/api/threads/101", `{"is_closed": true, "title": "New"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := len(fake.CallsTo("threads/close")); n != 0 {
		t.Errorf("no mutation should run, got %d close calls", n)
	}

	rec = do(t, engine, http.MethodPatch, "/api/posts/201", `{"thread": 102}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("moving a post should be rejected, got %d", rec.Code)
	}

	if rec := do(t, engine, http.MethodPatch, "/api/posts/201", `{"message": 5}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed body, got %d", rec.Code)
	}
}

func TestUpdatePostMessage(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodPatch, "/api/posts/203", `{"message": "Now with words"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	calls := fake.CallsTo("posts/update")
	if len(calls) != 1 || calls[0].Params.Get("message") != "Now with words" {
		t.Errorf("unexpected update calls %+v", calls)
	}
}

func TestDeleteThreadCascade(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodDelete, "/api/threads/101", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	if n := len(fake.CallsTo("threads/listPosts")); n != 1 {
		t.Errorf("dependents should be listed per thread, got %d threads/listPosts calls", n)
	}
	if n := len(fake.CallsTo("forums/listPosts")); n != 0 {
		t.Errorf("dependents should not come from the forum wide page, got %d calls", n)
	}

	removals := fake.CallsTo("posts/remove")
	if len(removals) != 1 || strings.Join(removals[0].Params["post"], ",") != "201,202" {
		t.Errorf("expected one bulk post removal, got %+v", removals)
	}
	threads := fake.CallsTo("threads/remove")
	if len(threads) != 1 || threads[0].Params.Get("thread") != "101" {
		t.Errorf("expected the thread removal, got %+v", threads)
	}

	var order []string
	for _, c := range fake.Calls() {
		if c.Method == http.MethodPost {
			order = append(order, c.Operation)
		}
	}
	if strings.Join(order, ",") != "posts/remove,threads/remove" {
		t.Errorf("posts must be removed before the thread, got %v", order)
	}
}

func TestDeleteThreadWithoutPosts(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodDelete, "/api/threads/103", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if n := len(fake.CallsTo("posts/remove")); n != 0 {
		t.Errorf("no post removal expected, got %d", n)
	}
	if n := len(fake.CallsTo("threads/remove")); n != 1 {
		t.Errorf("expected the thread removal, got %d", n)
	}
}

func TestBulkDeletePosts(t *testing.T) {
	engine, fake := newTestServer(t)

	rec := do(t, engine, http.MethodPost, "/api/posts/bulk-delete", `{"ids": [201, 203]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	calls := fake.CallsTo("posts/remove")
	if len(calls) != 1 || strings.Join(calls[0].Params["post"], ",") != "201,203" {
		t.Errorf("unexpected removal %+v", calls)
	}

	fake.Reset()
	if rec := do(t, engine, http.MethodPost, "/api/posts/bulk-delete", `{"ids": []}`); rec.Code != http.StatusOK {
		t.Errorf("empty bulk delete: %d", rec.Code)
	}
	if n := len(fake.Calls()); n != 0 {
		t.Errorf("empty bulk delete should make no call, got %d", n)
	}
}

func TestRemoteFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*testsupport.FakeDisqus)
		status int
	}{
		{"rejected", func(f *testsupport.FakeDisqus) { f.RespondError("forums/listThreads", 13, "API limit") }, http.StatusBadGateway},
		{"malformed", func(f *testsupport.FakeDisqus) { f.RespondRaw("forums/listThreads", http.StatusOK, "<html>") }, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, fake := newTestServer(t)
			tt.setup(fake)

			if rec := do(t, engine, http.MethodGet, "/api/threads", ""); rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestFieldMeta(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := do(t, engine, http.MethodGet, "/api/meta/post", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := decode[struct {
		Entity string        `json:"entity"`
		Fields []model.Field `json:"fields"`
	}](t, rec)
	if body.Entity != "post" || len(body.Fields) != 7 {
		t.Errorf("unexpected meta %+v", body)
	}

	rec = do(t, engine, http.MethodGet, "/api/meta/post?field=message", "")
	if f := decode[model.Field](t, rec); f.Remote != "raw_message" {
		t.Errorf("unexpected field %+v", f)
	}

	if rec := do(t, engine, http.MethodGet, "/api/meta/post?field=author", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown field, got %d", rec.Code)
	}
	if rec := do(t, engine, http.MethodGet, "/api/meta/user", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown entity, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(context.DeadlineExceeded); got != http.StatusInternalServerError {
		t.Errorf("unclassified errors should map to 500, got %d", got)
	}
}
