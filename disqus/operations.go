package disqus

import "net/http"

// APIVersion is the path segment every endpoint lives under.
const APIVersion = "3.0"

// Operation identifies one remote endpoint.
type Operation struct {
	Kind   string
	Name   string
	Method string
	// Write operations require an access token.
	Write bool
}

// Path returns the endpoint path relative to the API host.
func (o Operation) Path() string {
	return "/api/" + APIVersion + "/" + o.Kind + "/" + o.Name + ".json"
}

// String returns the kind/name pair, e.g. "threads/close".
func (o Operation) String() string {
	return o.Kind + "/" + o.Name
}

// The fixed set of endpoints the backstore talks to.
var (
	OpListThreads   = Operation{Kind: "forums", Name: "listThreads", Method: http.MethodGet}
	OpThreadDetails = Operation{Kind: "threads", Name: "details", Method: http.MethodGet}
	OpListPosts     = Operation{Kind: "forums", Name: "listPosts", Method: http.MethodGet}
	OpThreadPosts   = Operation{Kind: "threads", Name: "listPosts", Method: http.MethodGet}
	OpPostDetails   = Operation{Kind: "posts", Name: "details", Method: http.MethodGet}

	OpOpenThread    = Operation{Kind: "threads", Name: "open", Method: http.MethodPost, Write: true}
	OpCloseThread   = Operation{Kind: "threads", Name: "close", Method: http.MethodPost, Write: true}
	OpRemoveThread  = Operation{Kind: "threads", Name: "remove", Method: http.MethodPost, Write: true}
	OpRestoreThread = Operation{Kind: "threads", Name: "restore", Method: http.MethodPost, Write: true}

	OpRemovePost  = Operation{Kind: "posts", Name: "remove", Method: http.MethodPost, Write: true}
	OpApprovePost = Operation{Kind: "posts", Name: "approve", Method: http.MethodPost, Write: true}
	OpSpamPost    = Operation{Kind: "posts", Name: "spam", Method: http.MethodPost, Write: true}
	OpUpdatePost  = Operation{Kind: "posts", Name: "update", Method: http.MethodPost, Write: true}
)

// PostStates is sent as include on every post listing so moderation views see
// posts in every state.
var PostStates = []string{"unapproved", "approved", "spam", "flagged", "highlighted"}

// DefaultPageLimit is the page size requested when none is configured.
const DefaultPageLimit = 100
