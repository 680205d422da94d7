package core

import "context"

// SystemActor is recorded in updatedBy when no user is attached to the
// request, e.g. for CLI repairs.
const SystemActor = "system"

type actorKey struct{}

// WithActor attaches the id of the user performing a mutation.
func WithActor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the user attached by WithActor, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return SystemActor
}
