package interceptors

import (
	"context"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

type contextKey struct{ name string }

var (
	actorIDKey      = contextKey{"actor_id"}
	actorTypeKey    = contextKey{"actor_type"}
	connectionIDKey = contextKey{"connection_id"}
)

// WithIdentity returns a context with actor_id, actor_type, and connection_id set.
// connectionID may be empty for calls not bound to a session.
func WithIdentity(ctx context.Context, actorID string, actorType orderdomain.ActorType, connectionID string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	ctx = context.WithValue(ctx, actorTypeKey, actorType)
	ctx = context.WithValue(ctx, connectionIDKey, connectionID)
	return ctx
}

// GetActorID returns the actor_id from context and true if set; otherwise "", false.
func GetActorID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(actorIDKey).(string)
	return v, ok
}

// GetActorType returns the actor_type from context and true if set; otherwise "", false.
func GetActorType(ctx context.Context) (orderdomain.ActorType, bool) {
	v, ok := ctx.Value(actorTypeKey).(orderdomain.ActorType)
	return v, ok
}

// GetConnectionID returns the connection_id from context and true if set and non-empty.
func GetConnectionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(connectionIDKey).(string)
	return v, ok && v != ""
}
