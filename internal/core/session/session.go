// Package session carries the signed-in actor through a request.
//
// There is no process-wide "current user": every operation that needs one
// receives it explicitly, either as an argument or through the context set by
// the auth middleware.
package session

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned when an operation requires a signed-in actor and none is present
var ErrNotAuthenticated = errors.New("not authenticated")

// Actor is the signed-in user an operation runs on behalf of
type Actor struct {
	UserID string
	Token  string
}

type contextKey struct{}

// WithActor returns a context carrying actor
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, if any
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	if !ok || actor.UserID == "" {
		return Actor{}, false
	}
	return actor, true
}

// RequireActor returns the actor stored in ctx or ErrNotAuthenticated
func RequireActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return Actor{}, ErrNotAuthenticated
	}
	return actor, nil
}

// UserID returns the actor's user id, or "" when nobody is signed in
func UserID(ctx context.Context) string {
	actor, _ := ActorFrom(ctx)
	return actor.UserID
}
