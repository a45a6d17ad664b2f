package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// Call is one request received by FakeDisqus.
type Call struct {
	Method    string
	Operation string
	Params    url.Values
}

// Response is a canned reply for one operation.
type Response struct {
	Status int
	Body   []byte
}

// FakeDisqus is an httptest server speaking the Disqus envelope protocol.
// Reads are answered from the embedded fixtures, writes succeed, and every
// request is recorded.
type FakeDisqus struct {
	Server *httptest.Server

	mu        sync.Mutex
	calls     []Call
	overrides map[string]Response
	threads   []json.RawMessage
	posts     []json.RawMessage
}

// NewFakeDisqus starts a fake API server that is closed with the test.
func NewFakeDisqus(t testing.TB) *FakeDisqus {
	t.Helper()

	f := &FakeDisqus{
		overrides: make(map[string]Response),
		threads:   RawRecords(t, ThreadsFixture),
		posts:     RawRecords(t, PostsFixture),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL to configure clients with.
func (f *FakeDisqus) URL() string {
	return f.Server.URL
}

// Respond makes op ("kind/name") answer with payload inside a success envelope.
func (f *FakeDisqus) Respond(op string, payload any) {
	body, err := json.Marshal(map[string]any{"code": 0, "response": payload})
	if err != nil {
		panic(err)
	}
	f.RespondRaw(op, http.StatusOK, string(body))
}

// RespondError makes op answer with a rejected envelope.
func (f *FakeDisqus) RespondError(op string, code int, message string) {
	body, err := json.Marshal(map[string]any{"code": code, "response": message})
	if err != nil {
		panic(err)
	}
	f.RespondRaw(op, http.StatusBadRequest, string(body))
}

// RespondRaw makes op answer with an arbitrary status and body.
func (f *FakeDisqus) RespondRaw(op string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[op] = Response{Status: status, Body: []byte(body)}
}

// SetThreads replaces the thread records served by listings and details.
func (f *FakeDisqus) SetThreads(records []json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads = records
}

// SetPosts replaces the post records served by listings and details.
func (f *FakeDisqus) SetPosts(records []json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = records
}

// Calls returns every recorded request in arrival order.
func (f *FakeDisqus) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded requests for one operation.
func (f *FakeDisqus) CallsTo(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Call
	for _, c := range f.calls {
		if c.Operation == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *FakeDisqus) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeDisqus) serve(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/3.0/"), ".json")

	params := r.URL.Query()
	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		params, _ = url.ParseQuery(string(body))
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: r.Method, Operation: op, Params: params})
	override, overridden := f.overrides[op]
	threads := f.threads
	posts := f.posts
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if overridden {
		w.WriteHeader(override.Status)
		_, _ = w.Write(override.Body)
		return
	}

	if params.Get("api_secret") == "" {
		writeEnvelope(w, http.StatusBadRequest, 5, "Invalid API key")
		return
	}

	switch op {
	case "forums/listThreads":
		writeEnvelope(w, http.StatusOK, 0, threads)
	case "threads/details":
		writeDetail(w, threads, params.Get("thread"))
	case "forums/listPosts":
		writeEnvelope(w, http.StatusOK, 0, posts)
	case "threads/listPosts":
		writeEnvelope(w, http.StatusOK, 0, filterByThread(posts, params.Get("thread")))
	case "posts/details":
		writeDetail(w, posts, params.Get("post"))
	case "threads/open", "threads/close", "threads/remove", "threads/restore",
		"posts/remove", "posts/approve", "posts/spam", "posts/update":
		if params.Get("access_token") == "" {
			writeEnvelope(w, http.StatusBadRequest, 12, "This method requires authentication")
			return
		}
		writeEnvelope(w, http.StatusOK, 0, writeResult(params))
	default:
		writeEnvelope(w, http.StatusNotFound, 1, fmt.Sprintf("Endpoint not found: %s", op))
	}
}

type recordKeys struct {
	ID     json.RawMessage `json:"id"`
	Thread json.RawMessage `json:"thread"`
}

func idString(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}

func writeDetail(w http.ResponseWriter, records []json.RawMessage, id string) {
	for _, rec := range records {
		var keys recordKeys
		if err := json.Unmarshal(rec, &keys); err == nil && idString(keys.ID) == id {
			writeEnvelope(w, http.StatusOK, 0, rec)
			return
		}
	}
	writeEnvelope(w, http.StatusBadRequest, 2, "Invalid argument, 'id': object not found")
}

func filterByThread(records []json.RawMessage, thread string) []json.RawMessage {
	out := []json.RawMessage{}
	for _, rec := range records {
		var keys recordKeys
		if err := json.Unmarshal(rec, &keys); err == nil && idString(keys.Thread) == thread {
			out = append(out, rec)
		}
	}
	return out
}

func writeResult(params url.Values) []map[string]string {
	ids := params["thread"]
	if len(ids) == 0 {
		ids = params["post"]
	}
	out := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]string{"id": id})
	}
	return out
}

func writeEnvelope(w http.ResponseWriter, status, code int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "response": payload})
}
