package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "internal server error"

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with the status matching err. Internal
// errors are logged and hidden from the client.
func (g *Gateway) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": internalErrorMessage})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindError reports a malformed request body as a validation error.
func (g *Gateway) bindError(c *gin.Context, err error) {
	g.writeError(c, fmt.Errorf("%w: %s", service.ErrValidation, err.Error()))
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// idParam parses the :id segment, writing 404 when it is not a positive integer.
func (g *Gateway) idParam(c *gin.Context) (uint, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		g.writeError(c, service.ErrNotFound)
	}
	return id, ok
}

func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}
