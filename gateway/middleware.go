package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	principalKey    = "principal"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if p := currentPrincipal(c); p != nil {
			fields = append(fields, zap.Uint("user_id", p.UserID))
		}
		logger.Info("HTTP request", fields...)
	}
}

func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic while serving request",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
	})
}

// authenticate resolves the bearer token into a principal stored on the
// context. Requests without a valid token stop here with 401.
func (g *Gateway) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			g.writeError(c, service.ErrUnauthorized)
			return
		}

		p, err := g.svc.Users.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			g.writeError(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// requireAdmin writes 403 and reports false unless the caller is an admin.
func (g *Gateway) requireAdmin(c *gin.Context) bool {
	p := currentPrincipal(c)
	if p == nil || !p.IsAdmin() {
		g.writeError(c, service.ErrForbidden)
		return false
	}
	return true
}
