package disqus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	maxResponseBytes = 8 << 20
	tracerName       = "github.com/goliatone/go-disqus-backstore/disqus"
)

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CallObserver receives one notification per remote call.
type CallObserver interface {
	ObserveCall(ctx context.Context, operation string, duration time.Duration, err error)
}

type nopCallObserver struct{}

func (nopCallObserver) ObserveCall(context.Context, string, time.Duration, error) {}

// Client performs authenticated calls against the remote API.
type Client struct {
	cfg      Config
	base     *url.URL
	http     HTTPDoer
	logger   *zap.Logger
	observer CallObserver
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger sets the logger used for per call debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCallObserver registers a metrics sink.
func WithCallObserver(observer CallObserver) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithTracerProvider sets where call spans go. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageLimit == 0 {
		cfg.PageLimit = DefaultPageLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	c := &Client{
		cfg:      cfg,
		base:     base,
		http:     &http.Client{},
		logger:   zap.NewNop(),
		observer: nopCallObserver{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Forum returns the forum shortname this client is bound to.
func (c *Client) Forum() string {
	return c.cfg.Forum
}

// PageLimit returns the configured page size.
func (c *Client) PageLimit() int {
	return c.cfg.PageLimit
}

type envelope struct {
	Code     *int            `json:"code"`
	Response json.RawMessage `json:"response"`
}

// Call issues op with params and returns the response member of the envelope.
// Credentials are added here; callers never set them.
func (c *Client) Call(ctx context.Context, op Operation, params url.Values) (json.RawMessage, error) {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "disqus."+op.String(), trace.WithAttributes(
		attribute.String("disqus.operation", op.String()),
		attribute.String("disqus.request_id", requestID),
	))
	defer span.End()

	raw, status, err := c.do(ctx, op, params, requestID)

	duration := time.Since(start)
	c.observer.ObserveCall(ctx, op.String(), duration, err)

	fields := []zap.Field{
		zap.String("operation", op.String()),
		zap.String("method", op.Method),
		zap.String("request_id", requestID),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("disqus call failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("disqus call", fields...)
	return raw, nil
}

func (c *Client) do(ctx context.Context, op Operation, params url.Values, requestID string) (json.RawMessage, int, error) {
	if op.Method != http.MethodGet && op.Method != http.MethodPost {
		return nil, 0, newRequestError(op, requestID, fmt.Errorf("unsupported method %q", op.Method))
	}

	values := url.Values{}
	for k, v := range params {
		values[k] = append([]string(nil), v...)
	}
	values.Set("api_secret", c.cfg.SecretKey)
	if c.cfg.PublicKey != "" {
		values.Set("api_key", c.cfg.PublicKey)
	}
	if op.Write {
		if c.cfg.AccessToken == "" {
			return nil, 0, errAccessTokenRequired(op)
		}
		values.Set("access_token", c.cfg.AccessToken)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	endpoint := *c.base
	endpoint.Path = c.base.Path + op.Path()

	var body io.Reader
	if op.Method == http.MethodGet {
		endpoint.RawQuery = values.Encode()
	} else {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, endpoint.String(), body)
	if err != nil {
		return nil, 0, newRequestError(op, requestID, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, newRequestError(op, requestID, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, newRequestError(op, requestID, err)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, resp.StatusCode, newRequestError(op, requestID,
			fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err))
	}
	if env.Code == nil || len(env.Response) == 0 {
		return nil, resp.StatusCode, newRequestError(op, requestID,
			fmt.Errorf("malformed response (status %d): missing code or response", resp.StatusCode))
	}
	if *env.Code != 0 {
		remote := &RemoteAPIError{Operation: op.String(), Code: *env.Code, Response: env.Response}
		return nil, resp.StatusCode, newRemoteError(op, requestID, resp.StatusCode, remote)
	}
	return env.Response, resp.StatusCode, nil
}

// ListThreadsArgs narrows a forum thread listing.
type ListThreadsArgs struct {
	Limit int
	// Extra is merged into the request; credential keys are ignored.
	Extra map[string]string
}

// ListPostsArgs narrows a post listing. A zero Thread lists the whole forum.
type ListPostsArgs struct {
	Thread int64
	Limit  int
	Extra  map[string]string
}

var reservedParams = map[string]bool{
	"api_secret":   true,
	"api_key":      true,
	"access_token": true,
}

func (c *Client) listParams(limit int, extra map[string]string) url.Values {
	if limit <= 0 {
		limit = c.cfg.PageLimit
	}
	values := url.Values{}
	values.Set("forum", c.cfg.Forum)
	values.Set("limit", strconv.Itoa(limit))
	for k, v := range extra {
		if reservedParams[k] {
			continue
		}
		values.Set(k, v)
	}
	return values
}

// ListThreads returns the raw thread array for the configured forum.
func (c *Client) ListThreads(ctx context.Context, args ListThreadsArgs) (json.RawMessage, error) {
	return c.Call(ctx, OpListThreads, c.listParams(args.Limit, args.Extra))
}

// ThreadDetails returns a single raw thread object.
func (c *Client) ThreadDetails(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.Call(ctx, OpThreadDetails, idParams("thread", id))
}

// ListPosts returns posts in every moderation state, scoped to a thread when
// args.Thread is set.
func (c *Client) ListPosts(ctx context.Context, args ListPostsArgs) (json.RawMessage, error) {
	values := c.listParams(args.Limit, args.Extra)
	for _, state := range PostStates {
		values.Add("include", state)
	}
	op := OpListPosts
	if args.Thread != 0 {
		op = OpThreadPosts
		values.Set("thread", formatID(args.Thread))
	}
	return c.Call(ctx, op, values)
}

// PostDetails returns a single raw post object.
func (c *Client) PostDetails(ctx context.Context, id int64) (json.RawMessage, error) {
	return c.Call(ctx, OpPostDetails, idParams("post", id))
}

// OpenThread reopens a closed thread.
func (c *Client) OpenThread(ctx context.Context, id int64) error {
	return c.write(ctx, OpOpenThread, idParams("thread", id))
}

// CloseThread closes a thread to new posts.
func (c *Client) CloseThread(ctx context.Context, id int64) error {
	return c.write(ctx, OpCloseThread, idParams("thread", id))
}

// RemoveThread deletes a thread.
func (c *Client) RemoveThread(ctx context.Context, id int64) error {
	return c.write(ctx, OpRemoveThread, idParams("thread", id))
}

// RemoveThreads deletes several threads in one request.
func (c *Client) RemoveThreads(ctx context.Context, ids []int64) error {
	return c.write(ctx, OpRemoveThread, idParams("thread", ids...))
}

// RestoreThread undoes a removal.
func (c *Client) RestoreThread(ctx context.Context, id int64) error {
	return c.write(ctx, OpRestoreThread, idParams("thread", id))
}

// RemovePost deletes a post.
func (c *Client) RemovePost(ctx context.Context, id int64) error {
	return c.write(ctx, OpRemovePost, idParams("post", id))
}

// RemovePosts deletes several posts in one request.
func (c *Client) RemovePosts(ctx context.Context, ids []int64) error {
	return c.write(ctx, OpRemovePost, idParams("post", ids...))
}

// ApprovePost marks a post as approved.
func (c *Client) ApprovePost(ctx context.Context, id int64) error {
	return c.write(ctx, OpApprovePost, idParams("post", id))
}

// SpamPost marks a post as spam.
func (c *Client) SpamPost(ctx context.Context, id int64) error {
	return c.write(ctx, OpSpamPost, idParams("post", id))
}

// UpdatePostMessage replaces the body of a post.
func (c *Client) UpdatePostMessage(ctx context.Context, id int64, message string) error {
	values := idParams("post", id)
	values.Set("message", message)
	return c.write(ctx, OpUpdatePost, values)
}

func (c *Client) write(ctx context.Context, op Operation, values url.Values) error {
	_, err := c.Call(ctx, op, values)
	return err
}

func idParams(key string, ids ...int64) url.Values {
	values := url.Values{}
	for _, id := range ids {
		values.Add(key, formatID(id))
	}
	return values
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
