package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
)

const (
	requestIDHeader = "X-Request-ID"
	requesterKey    = "requester"
)

// RequestLogger tags each request with an id and logs its outcome.
func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := s.log.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		zerolog.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Msg("recovered from panic")
		writeError(c, &attendance.Error{Kind: attendance.KindStorage, Message: "internal server error"})
	})
}

// AuthRequired is the access guard: it trusts only the signed token for the
// caller's identity and role.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "unauthenticated", "missing token")
			return
		}
		req, err := s.tokens.Verify(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}
		c.Set(requesterKey, req)
		c.Next()
	}
}

func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requester(c).Role != attendance.RoleAdmin {
			abort(c, http.StatusForbidden, string(attendance.KindAccessDenied), "admin only")
			return
		}
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for websocket clients that cannot set
// headers.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("access_token")
}

func requester(c *gin.Context) attendance.Requester {
	req, _ := c.Get(requesterKey)
	r, _ := req.(attendance.Requester)
	return r
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Kind: kind, Message: message})
}
