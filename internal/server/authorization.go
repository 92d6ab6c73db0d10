package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/internal/authorization"
)

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeAction(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeAction(c *gin.Context, object string, action string) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	err := s.authzSvc.Authorize(c.Request.Context(), actor.Role, actor.ID, strings.TrimSpace(object), strings.TrimSpace(action))
	if errors.Is(err, authorization.ErrInvalidActor) {
		return ErrUnauthorized
	}
	return err
}

// scopeFor resolves whether the actor may act on every record (all) or only on
// records owned by its own author/publisher id.
func (s *Server) scopeFor(c *gin.Context, object string, allAction string, ownAction string) (Actor, bool, error) {
	actor, ok := actorFromContext(c)
	if !ok {
		return Actor{}, false, ErrUnauthorized
	}
	if err := s.authorizeAction(c, object, allAction); err == nil {
		return actor, true, nil
	} else if !errors.Is(err, authorization.ErrForbidden) {
		return Actor{}, false, err
	}

	if err := s.authorizeAction(c, object, ownAction); err != nil {
		return Actor{}, false, err
	}
	if actor.ID == "" {
		return Actor{}, false, ErrForbidden
	}
	return actor, false, nil
}
