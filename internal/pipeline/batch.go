package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/metrics"
)

// Executor runs one item.
type Executor interface {
	Execute(ctx context.Context, req domain.GenerationRequest, caption string) domain.Outcome
}

// BatchRunner runs items over a fixed pool of workers.
type BatchRunner struct {
	exec     Executor
	log      *slog.Logger
	maxProcs func() int
}

// NewBatchRunner creates a batch runner bounded by GOMAXPROCS.
func NewBatchRunner(exec Executor, log *slog.Logger) *BatchRunner {
	if log == nil {
		log = slog.Default()
	}
	return &BatchRunner{
		exec:     exec,
		log:      log,
		maxProcs: func() int { return runtime.GOMAXPROCS(0) },
	}
}

// Workers returns the pool size used for n items at the requested concurrency.
func (b *BatchRunner) Workers(concurrency, n int) int {
	if n == 0 {
		return 0
	}
	return max(1, min(concurrency, b.maxProcs(), n))
}

// Run executes every item and returns their outcomes in input order. A
// failed item never stops the others.
func (b *BatchRunner) Run(ctx context.Context, items []domain.BatchItem, concurrency int) domain.BatchResult {
	results := make([]domain.Outcome, len(items))
	if len(items) == 0 {
		return domain.BatchResult{Outcomes: results}
	}

	workers := b.Workers(concurrency, len(items))
	b.log.Info("Starting batch", "items", len(items), "workers", workers)

	indices := make(chan int)
	var g errgroup.Group
	for w := 1; w <= workers; w++ {
		workerCtx := domain.WithWorker(ctx, w)
		g.Go(func() error {
			for i := range indices {
				metrics.BatchWorkers.Inc()
				results[i] = b.exec.Execute(workerCtx, items[i].Request, items[i].Caption)
				metrics.BatchWorkers.Dec()
			}
			return nil
		})
	}

	for i := range items {
		indices <- i
	}
	close(indices)
	_ = g.Wait()

	res := domain.BatchResult{Outcomes: results}
	b.log.Info("Batch finished", "succeeded", res.Succeeded(), "failed", res.Failed())
	return res
}
