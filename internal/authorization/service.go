package authorization

import (
	"context"
	"errors"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

// Service decides whether an actor, identified by the role and id supplied by the
// upstream auth provider, may perform action on object.
type Service interface {
	Authorize(ctx context.Context, role string, actorID string, object string, action string) error
}
