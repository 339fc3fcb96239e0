package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/rideshare/internal/auth"
	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	identityKey     = "identity"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

func RequestID() gin.HandlerFunc {
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

// AccessLog writes one line per request and records the HTTP metrics.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		observability.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http_request", args...)
	}
}

func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("panic recovered", "error", rec, "request_id", c.GetString(requestIDKey))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
	})
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			writeError(c, domain.Unauthenticated(err))
			return
		}
		id, err := verifier.Verify(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuth attaches an identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := auth.BearerToken(c.GetHeader("Authorization")); err == nil {
			if id, err := verifier.Verify(raw); err == nil {
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

func RequireDriver() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok {
			writeError(c, domain.ErrUnauthenticated)
			return
		}
		if !id.IsDriver() {
			writeError(c, domain.ErrDriverRoleRequired)
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// mustIdentity writes 401 when the route was mounted without Authenticate.
func mustIdentity(c *gin.Context) (auth.Identity, bool) {
	id, ok := identity(c)
	if !ok {
		writeError(c, domain.ErrUnauthenticated)
	}
	return id, ok
}

func viewer(c *gin.Context) *uuid.UUID {
	id, ok := identity(c)
	if !ok {
		return nil
	}
	return &id.UserID
}
