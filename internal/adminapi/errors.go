package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-disqus-backstore/backstore"
	"github.com/goliatone/go-disqus-backstore/disqus"
	"github.com/goliatone/go-disqus-backstore/model"
)

// statusFor maps an error kind to the HTTP status the admin surface answers with.
func statusFor(err error) int {
	switch {
	case backstore.IsDoesNotExist(err):
		return http.StatusNotFound
	case backstore.IsMultipleObjectsReturned(err):
		return http.StatusConflict
	case backstore.IsUnsupportedMutation(err), backstore.IsUnsupportedLookup(err):
		return http.StatusUnprocessableEntity
	case model.IsFieldDoesNotExist(err):
		return http.StatusBadRequest
	case disqus.IsTimeout(err):
		return http.StatusGatewayTimeout
	case goerrors.IsAuth(err):
		return http.StatusUnauthorized
	case disqus.IsRemoteAPIError(err), disqus.IsRequestError(err), model.IsMalformedRecord(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// abort writes err as a JSON error body and stops the handler chain.
func (r *Router) abort(c *gin.Context, err error) {
	status := statusFor(err)

	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		e = goerrors.Wrap(err, goerrors.CategoryInternal, "internal error")
	}
	if id := c.GetString(requestIDKey); id != "" && e.RequestID == "" {
		e = e.WithRequestID(id)
	}

	level := r.logger.Warn
	if status >= http.StatusInternalServerError {
		level = r.logger.Error
	}
	level("request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	)

	c.AbortWithStatusJSON(status, gin.H{"error": e})
}

func notFound(c *gin.Context, entity string, id int64) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
		"error": goerrors.New(entity+" not found", goerrors.CategoryNotFound).
			WithCode(http.StatusNotFound).
			WithTextCode(backstore.TextCodeDoesNotExist).
			WithMetadata(map[string]any{"entity": entity, "id": id}),
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": goerrors.New(message, goerrors.CategoryBadInput).WithCode(http.StatusBadRequest),
	})
}
