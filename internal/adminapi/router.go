package adminapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-disqus-backstore/backstore"
	"github.com/goliatone/go-disqus-backstore/pkg/telemetry"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// Router exposes the thread and post managers as a JSON admin API.
type Router struct {
	threads *backstore.ThreadManager
	posts   *backstore.PostManager
	logger  *zap.Logger
	metrics http.Handler
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(r *Router) { r.metrics = h }
}

// NewRouter creates a router over the given managers.
func NewRouter(threads *backstore.ThreadManager, posts *backstore.PostManager, opts ...Option) *Router {
	r := &Router{
		threads: threads,
		posts:   posts,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetupRoutes registers every route on engine.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(r.requestLogger())

	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	if r.metrics != nil {
		engine.GET("/metrics", gin.WrapH(r.metrics))
	}

	api := engine.Group("/api")
	api.GET("/meta/:entity", r.fieldMeta)

	threads := api.Group("/threads")
	threads.GET("", r.listThreads)
	threads.GET("/:id", r.getThread)
	threads.PATCH("/:id", r.updateThread)
	threads.DELETE("/:id", r.deleteThread)

	posts := api.Group("/posts")
	posts.GET("", r.listPosts)
	posts.GET("/:id", r.getPost)
	posts.PATCH("/:id", r.updatePost)
	posts.DELETE("/:id", r.deletePost)
	posts.POST("/bulk-delete", r.bulkDeletePosts)
}

// Engine builds a gin engine with recovery and every route registered.
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	r.SetupRoutes(engine)
	return engine
}

func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "disqus-admin",
	})
}

// requestLogger tags every request with an id and logs its outcome.
func (r *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath(), trace.WithAttributes(
			attribute.String("http.request_id", id),
		))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))

		r.logger.Debug("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
