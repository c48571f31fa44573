// Package recovery keeps failed pipeline runs in a dead-letter queue and
// replays them later.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage"
	"github.com/vietddude/genpost/internal/metrics"
)

// Replayer re-runs a single item.
type Replayer interface {
	Execute(ctx context.Context, req domain.GenerationRequest, caption string) domain.Outcome
}

// Result describes what ProcessNext did.
type Result int

const (
	ResultEmpty Result = iota
	ResultNotDue
	ResultResolved
	ResultFailed
	ResultIgnored
)

func (r Result) String() string {
	switch r {
	case ResultNotDue:
		return "not_due"
	case ResultResolved:
		return "resolved"
	case ResultFailed:
		return "failed"
	case ResultIgnored:
		return "ignored"
	default:
		return "empty"
	}
}

// Summary counts the results of a Drain.
type Summary struct {
	Resolved int
	Failed   int
	Ignored  int
}

// Handler records failed runs and replays them.
type Handler struct {
	repo     storage.FailedItemRepository
	replayer Replayer
	strategy *ExponentialBackoff
	log      *slog.Logger
	now      func() time.Time
}

// NewHandler creates a new failed item handler. replayer may be nil when the
// handler is only used to record failures.
func NewHandler(repo storage.FailedItemRepository, replayer Replayer, strategy *ExponentialBackoff, log *slog.Logger) *Handler {
	if strategy == nil {
		strategy = DefaultBackoff()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		repo:     repo,
		replayer: replayer,
		strategy: strategy,
		log:      log,
		now:      time.Now,
	}
}

// RecordFailure adds a failed run to the queue.
func (h *Handler) RecordFailure(ctx context.Context, item domain.BatchItem, serr *domain.StageError) error {
	now := uint64(h.now().Unix())
	failed := &domain.FailedItem{
		ID:          uuid.NewString(),
		Prompt:      item.Request.Prompt,
		Caption:     item.Caption,
		Kind:        serr.Kind,
		Stage:       serr.Stage,
		Error:       serr.Error(),
		Status:      domain.FailedItemStatusPending,
		LastAttempt: now,
		CreatedAt:   now,
	}
	if err := h.repo.Add(ctx, failed); err != nil {
		return fmt.Errorf("failed to add failed item: %w", err)
	}
	return nil
}

// ProcessNext replays the oldest pending item if its backoff has elapsed.
func (h *Handler) ProcessNext(ctx context.Context) (Result, error) {
	item, err := h.repo.GetNext(ctx)
	if err != nil {
		return ResultEmpty, fmt.Errorf("failed to get next failed item: %w", err)
	}
	if item == nil {
		return ResultEmpty, nil
	}

	log := h.log.With("id", item.ID, "retry_count", item.RetryCount)

	if !h.strategy.ShouldRetry(item.Kind, item.RetryCount) {
		if err := h.repo.MarkIgnored(ctx, item.ID); err != nil {
			return ResultEmpty, fmt.Errorf("failed to ignore item %s: %w", item.ID, err)
		}
		metrics.ReplayResults.WithLabelValues(ResultIgnored.String()).Inc()
		log.Warn("Failed item will not be replayed", "kind", item.Kind)
		return ResultIgnored, nil
	}

	delay := h.strategy.GetDelay(item.RetryCount)
	lastAttempt := time.Unix(int64(item.LastAttempt), 0)
	if h.now().Before(lastAttempt.Add(delay)) {
		return ResultNotDue, nil
	}

	if h.replayer == nil {
		return ResultEmpty, fmt.Errorf("no replayer configured")
	}

	out := h.replayer.Execute(ctx, domain.GenerationRequest{Prompt: item.Prompt}, item.Caption)
	if out.Succeeded() {
		if err := h.repo.MarkResolved(ctx, item.ID); err != nil {
			return ResultEmpty, fmt.Errorf("failed to resolve item %s: %w", item.ID, err)
		}
		metrics.ReplayResults.WithLabelValues(ResultResolved.String()).Inc()
		log.Info("Failed item replayed", "record_id", out.Result.RecordID)
		return ResultResolved, nil
	}

	if out.Err.Kind == domain.ErrorKindFatal {
		if err := h.repo.MarkIgnored(ctx, item.ID); err != nil {
			return ResultEmpty, fmt.Errorf("failed to ignore item %s: %w", item.ID, err)
		}
		metrics.ReplayResults.WithLabelValues(ResultIgnored.String()).Inc()
		log.Warn("Replay failed fatally", "error", out.Err)
		return ResultIgnored, nil
	}

	if err := h.repo.IncrementRetry(ctx, item.ID, out.Err.Error()); err != nil {
		return ResultEmpty, fmt.Errorf("failed to increment retry: %w", err)
	}
	metrics.ReplayResults.WithLabelValues(ResultFailed.String()).Inc()
	log.Warn("Replay failed", "kind", out.Err.Kind, "error", out.Err)
	return ResultFailed, nil
}

// Drain calls ProcessNext until the queue is empty, the head is not yet due,
// or limit replays were attempted (limit <= 0 means no limit).
func (h *Handler) Drain(ctx context.Context, limit int) (Summary, error) {
	var sum Summary
	for limit <= 0 || sum.Resolved+sum.Failed+sum.Ignored < limit {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := h.ProcessNext(ctx)
		if err != nil {
			return sum, err
		}
		switch res {
		case ResultResolved:
			sum.Resolved++
		case ResultFailed:
			sum.Failed++
		case ResultIgnored:
			sum.Ignored++
		default:
			return sum, nil
		}
	}
	return sum, nil
}
