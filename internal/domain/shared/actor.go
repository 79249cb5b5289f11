package shared

import (
	"context"

	"github.com/google/uuid"
)

// Role is the caller's role as issued by the session provider
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleCashier Role = "Cashier"
)

// IsValid checks if the role is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCashier
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Actor identifies who is performing an operation. Every service call
// receives it through the request context.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor holds the Admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorKey struct{}

// WithActor returns a context carrying the given actor
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// RequireActor returns the actor in ctx or ErrUnauthenticated
func RequireActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID == uuid.Nil || !actor.Role.IsValid() {
		return Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

// RequireAdmin returns the actor in ctx if it holds the Admin role
func RequireAdmin(ctx context.Context) (Actor, error) {
	actor, err := RequireActor(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !actor.IsAdmin() {
		return Actor{}, ErrAdminOnly
	}
	return actor, nil
}
