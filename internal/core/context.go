package core

import "context"

type ctxKey int

const (
	actorKey ctxKey = iota
	taskKey
)

// ContextWithActorID attaches the ID of the actor issuing requests under ctx.
func ContextWithActorID(ctx context.Context, actorID int) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// ActorIDFromContext returns the actor ID set on ctx, or 0.
func ActorIDFromContext(ctx context.Context) int {
	id, _ := ctx.Value(actorKey).(int)
	return id
}

// ContextWithTask tags requests issued under ctx with the scheduling task name.
func ContextWithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskKey, task)
}

// TaskFromContext returns the task set on ctx, or "" for setup requests.
func TaskFromContext(ctx context.Context) string {
	name, _ := ctx.Value(taskKey).(string)
	return name
}
