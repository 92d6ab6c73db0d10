package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/folio/internal/observability/context"
)

// Identity is asserted by the upstream auth provider; folio trusts these headers.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

type Actor struct {
	Role string
	ID   string
}

// ActorRequired copies the caller identity into the request context.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
		if role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		id := strings.TrimSpace(c.GetHeader(HeaderActorID))

		ctx := obscontext.WithActor(c.Request.Context(), role, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (Actor, bool) {
	if c == nil || c.Request == nil {
		return Actor{}, false
	}
	role, id := obscontext.ActorFromContext(c.Request.Context())
	if role == "" {
		return Actor{}, false
	}
	return Actor{Role: role, ID: id}, true
}
