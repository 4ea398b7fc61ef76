package service

import "context"

type contextKey string

const actorKey contextKey = "actorID"

// SystemActor is recorded when no caller identity is known.
const SystemActor = "system"

// WithActor returns a context carrying the id of the admin or integration
// performing the operation.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// ActorFromContext returns the actor set by WithActor, or SystemActor.
func ActorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey).(string); ok && id != "" {
		return id
	}
	return SystemActor
}
