// Package pipeline runs generate, stage, publish for one item and fans
// batches of items out over a worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/generation"
	"github.com/vietddude/genpost/internal/metrics"
	"github.com/vietddude/genpost/internal/publish"
)

// Controller obtains an artifact handle, retrying as its policy allows.
type Controller interface {
	Run(ctx context.Context, req domain.GenerationRequest) (domain.Handle, int, error)
}

// Stager brings a handle into local storage and removes it again.
type Stager interface {
	Stage(ctx context.Context, h domain.Handle) (*domain.StagedArtifact, error)
	Release(a *domain.StagedArtifact) error
}

// Publisher uploads a staged artifact and creates its record.
type Publisher interface {
	Publish(ctx context.Context, a *domain.StagedArtifact, caption string) (domain.PublishResult, error)
}

// FailureRecorder keeps failed runs for later replay.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, item domain.BatchItem, serr *domain.StageError) error
}

// Orchestrator runs a single item end to end. Execute never returns an
// error: every failure is folded into the Outcome.
type Orchestrator struct {
	ctrl     Controller
	stager   Stager
	pub      Publisher
	recorder FailureRecorder
	log      *slog.Logger
}

// NewOrchestrator creates an orchestrator. recorder may be nil.
func NewOrchestrator(ctrl Controller, stager Stager, pub Publisher, recorder FailureRecorder, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{ctrl: ctrl, stager: stager, pub: pub, recorder: recorder, log: log}
}

// WithoutRecorder returns a copy that does not record failures. Replays use
// it so a failing replay does not enqueue a duplicate.
func (o *Orchestrator) WithoutRecorder() *Orchestrator {
	cp := *o
	cp.recorder = nil
	return &cp
}

// Execute generates an artifact for req, stages it, and publishes it with caption.
func (o *Orchestrator) Execute(ctx context.Context, req domain.GenerationRequest, caption string) domain.Outcome {
	start := time.Now()
	out := o.execute(ctx, req, caption)

	log := o.log.With("worker", domain.WorkerFrom(ctx))
	if out.Succeeded() {
		metrics.PipelineOutcomes.WithLabelValues("success", "").Inc()
		log.Info("Pipeline run succeeded",
			"record_id", out.Result.RecordID,
			"duration", time.Since(start),
		)
		return out
	}

	metrics.PipelineOutcomes.WithLabelValues("failed", string(out.Err.Kind)).Inc()
	log.Error("Pipeline run failed",
		"stage", out.Err.Stage,
		"kind", out.Err.Kind,
		"attempts", out.Err.Attempts,
		"error", out.Err.Err,
	)

	if o.recorder != nil {
		item := domain.BatchItem{Request: req, Caption: caption}
		// The run's ctx may already be canceled; recording must still happen.
		if err := o.recorder.RecordFailure(context.WithoutCancel(ctx), item, out.Err); err != nil {
			log.Error("Failed to record failed run", "error", err)
		}
	}
	return out
}

func (o *Orchestrator) execute(ctx context.Context, req domain.GenerationRequest, caption string) (out domain.Outcome) {
	stage := domain.StageGenerate
	attempts := 0
	defer func() {
		if r := recover(); r != nil {
			out = domain.Failed(domain.ErrorKindFatal, stage, attempts, fmt.Errorf("panic: %v", r))
		}
	}()

	t := time.Now()
	handle, attempts, err := o.ctrl.Run(ctx, req)
	observeStage(domain.StageGenerate, t)
	if err != nil {
		kind := domain.ErrorKindFatal
		if generation.Classify(err) == generation.ClassRetryable {
			kind = domain.ErrorKindRetryable
		}
		return domain.Failed(kind, domain.StageGenerate, attempts, err)
	}

	stage = domain.StageStage
	t = time.Now()
	artifact, err := o.stager.Stage(ctx, handle)
	observeStage(domain.StageStage, t)
	if err != nil {
		return domain.Failed(domain.ErrorKindDownload, domain.StageStage, attempts, err)
	}
	defer func() {
		if err := o.stager.Release(artifact); err != nil {
			o.log.Warn("Failed to release staged artifact", "path", artifact.Path, "error", err)
		}
	}()

	stage = domain.StagePublish
	t = time.Now()
	res, err := o.pub.Publish(ctx, artifact, caption)
	observeStage(domain.StagePublish, t)
	if err != nil {
		if errors.Is(err, publish.ErrUpload) {
			return domain.Failed(domain.ErrorKindUpload, domain.StageUpload, attempts, err)
		}
		return domain.Failed(domain.ErrorKindPublish, domain.StagePublish, attempts, err)
	}
	return domain.Success(res)
}

func observeStage(stage domain.Stage, start time.Time) {
	metrics.StageLatency.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
