package domain

import "context"

type workerKey struct{}

// WithWorker tags ctx with the id of the batch worker running it.
func WithWorker(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerKey{}, id)
}

// WorkerFrom returns the worker id stored in ctx, or 0 outside a batch.
func WorkerFrom(ctx context.Context) int {
	if id, ok := ctx.Value(workerKey{}).(int); ok {
		return id
	}
	return 0
}
