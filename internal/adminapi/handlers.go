package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-disqus-backstore/backstore"
	"github.com/goliatone/go-disqus-backstore/model"
)

// excludePrefix marks a query parameter as an Exclude lookup, e.g.
// exclude_id=202.
const excludePrefix = "exclude_"

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type updateResponse[T any] struct {
	Changed []string `json:"changed"`
	Record  T        `json:"record"`
}

type threadPatch struct {
	Forum     *string `json:"forum"`
	Title     *string `json:"title"`
	Link      *string `json:"link"`
	IsClosed  *bool   `json:"is_closed"`
	IsDeleted *bool   `json:"is_deleted"`
	IsSpam    *bool   `json:"is_spam"`
}

func (p threadPatch) apply(t *model.Thread) {
	setIf(&t.Forum, p.Forum)
	setIf(&t.Title, p.Title)
	setIf(&t.Link, p.Link)
	setIf(&t.IsClosed, p.IsClosed)
	setIf(&t.IsDeleted, p.IsDeleted)
	setIf(&t.IsSpam, p.IsSpam)
}

type postPatch struct {
	Forum      *string `json:"forum"`
	Message    *string `json:"message"`
	IsApproved *bool   `json:"is_approved"`
	IsSpam     *bool   `json:"is_spam"`
	IsDeleted  *bool   `json:"is_deleted"`
	Thread     *int64  `json:"thread"`
}

func (p postPatch) apply(post *model.Post) {
	setIf(&post.Forum, p.Forum)
	setIf(&post.Message, p.Message)
	setIf(&post.IsApproved, p.IsApproved)
	setIf(&post.IsSpam, p.IsSpam)
	setIf(&post.IsDeleted, p.IsDeleted)
	if p.Thread != nil && *p.Thread != post.Thread.ID {
		post.Thread = model.ThreadRef{ID: *p.Thread}
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

// queryLookups turns query parameters into Filter and Exclude lookups. A
// comma separated value of an __in key becomes a list.
func queryLookups(c *gin.Context) (filters, excludes []backstore.Lookup) {
	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		target := &filters
		if strings.HasPrefix(key, excludePrefix) {
			key = strings.TrimPrefix(key, excludePrefix)
			target = &excludes
		}

		var value any = values[0]
		if strings.HasSuffix(key, "__in") {
			var parts []string
			for _, v := range values {
				parts = append(parts, strings.Split(v, ",")...)
			}
			value = parts
		}
		*target = append(*target, backstore.L(key, value))
	}
	return filters, excludes
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "id must be an integer")
		return 0, false
	}
	return id, true
}

func list[T backstore.Record](r *Router, c *gin.Context, q *backstore.QuerySet[T]) {
	filters, excludes := queryLookups(c)
	records, err := q.Filter(filters...).Exclude(excludes...).List(c.Request.Context())
	if err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[T]{Count: len(records), Results: records})
}

func get[T backstore.Record](r *Router, c *gin.Context, m *backstore.Manager[T]) (T, int64, bool) {
	var zero T

	id, ok := pathID(c)
	if !ok {
		return zero, 0, false
	}
	rec, found, err := m.Get(c.Request.Context(), backstore.ID(id))
	if err != nil {
		r.abort(c, err)
		return zero, id, false
	}
	if !found {
		notFound(c, m.Meta().Entity(), id)
		return zero, id, false
	}
	return rec, id, true
}

func (r *Router) listThreads(c *gin.Context) {
	list(r, c, r.threads.Query())
}

func (r *Router) getThread(c *gin.Context) {
	if thread, _, ok := get(r, c, r.threads); ok {
		c.JSON(http.StatusOK, thread)
	}
}

func (r *Router) updateThread(c *gin.Context) {
	var patch threadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}

	thread, _, ok := get(r, c, r.threads)
	if !ok {
		return
	}
	patch.apply(&thread)

	changed, err := r.threads.Update(c.Request.Context(), thread)
	if err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, updateResponse[model.Thread]{Changed: changed, Record: thread})
}

// deleteThread removes the thread's posts in one bulk call, then the thread.
// Dependents are listed through the thread scoped endpoint so the page only
// holds the thread's own posts.
func (r *Router) deleteThread(c *gin.Context) {
	thread, _, ok := get(r, c, r.threads)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	dependents, err := r.posts.Filter(backstore.ThreadIs(thread.ID)).List(ctx)
	if err != nil {
		r.abort(c, err)
		return
	}
	if err := r.posts.DeleteMany(ctx, dependents); err != nil {
		r.abort(c, err)
		return
	}
	if err := r.threads.Delete(ctx, thread); err != nil {
		r.abort(c, err)
		return
	}

	r.logger.Info("thread deleted",
		zap.Int64("thread", thread.ID),
		zap.Int("posts", len(dependents)),
	)
	c.JSON(http.StatusOK, gin.H{"deleted": thread.ID, "deleted_posts": len(dependents)})
}

func (r *Router) listPosts(c *gin.Context) {
	list(r, c, r.posts.Query())
}

func (r *Router) getPost(c *gin.Context) {
	if post, _, ok := get(r, c, r.posts); ok {
		c.JSON(http.StatusOK, post)
	}
}

func (r *Router) updatePost(c *gin.Context) {
	var patch postPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}

	post, _, ok := get(r, c, r.posts)
	if !ok {
		return
	}
	patch.apply(&post)

	changed, err := r.posts.Update(c.Request.Context(), post)
	if err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, updateResponse[model.Post]{Changed: changed, Record: post})
}

func (r *Router) deletePost(c *gin.Context) {
	post, _, ok := get(r, c, r.posts)
	if !ok {
		return
	}
	if err := r.posts.Delete(c.Request.Context(), post); err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": post.ID})
}

func (r *Router) bulkDeletePosts(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	posts := make([]model.Post, 0, len(req.IDs))
	for _, id := range req.IDs {
		posts = append(posts, model.Post{ID: id})
	}
	if err := r.posts.DeleteMany(c.Request.Context(), posts); err != nil {
		r.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": req.IDs})
}

func (r *Router) fieldMeta(c *gin.Context) {
	var meta *model.Meta
	switch c.Param("entity") {
	case r.threads.Meta().Entity():
		meta = r.threads.Meta()
	case r.posts.Meta().Entity():
		meta = r.posts.Meta()
	default:
		badRequest(c, "unknown entity "+c.Param("entity"))
		return
	}

	if name := c.Query("field"); name != "" {
		field, err := meta.GetField(name)
		if err != nil {
			r.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, field)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity": meta.Entity(), "fields": meta.Fields()})
}
