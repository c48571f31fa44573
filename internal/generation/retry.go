package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vietddude/genpost/internal/core/domain"
)

// Generator is the generation service client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.Handle, error)
}

// Policy defines retry behavior.
type Policy struct {
	MaxAttempts int
	Schedule    Schedule
	// AttemptTimeout bounds every single generation call. Zero means no bound.
	AttemptTimeout time.Duration
}

// DefaultPolicy provides the default three-attempt policy.
var DefaultPolicy = Policy{
	MaxAttempts:    3,
	Schedule:       DefaultSchedule,
	AttemptTimeout: 2 * time.Minute,
}

// Observer receives controller events. Either field may be nil.
type Observer struct {
	OnAttempt func(a domain.Attempt)
	OnWait    func(attempt int, d time.Duration)
}

// Controller drives generation attempts until success, a fatal error, or
// the attempt budget is spent.
type Controller struct {
	gen    Generator
	policy Policy
	obs    Observer
	log    *slog.Logger
}

// NewController creates a retry controller.
func NewController(gen Generator, policy Policy, obs Observer, log *slog.Logger) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{gen: gen, policy: policy, obs: obs, log: log}
}

// Run requests an artifact for req. On failure it returns the error of the
// last attempt unchanged, so callers can still Classify it, together with the
// number of attempts made.
func (c *Controller) Run(ctx context.Context, req domain.GenerationRequest) (domain.Handle, int, error) {
	var (
		handle   domain.Handle
		attempts int
	)

	backoff := retry.WithMaxRetries(
		uint64(c.policy.MaxAttempts-1),
		c.policy.Schedule.Backoff(func(attempt int, d time.Duration) {
			c.log.Warn("Generation attempt failed, backing off",
				"attempt", attempt,
				"max_attempts", c.policy.MaxAttempts,
				"delay", d,
			)
			if c.obs.OnWait != nil {
				c.obs.OnWait(attempt, d)
			}
		}),
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		h, err := c.attempt(ctx, req.Prompt)
		if c.obs.OnAttempt != nil {
			c.obs.OnAttempt(domain.Attempt{Number: attempts, Err: err})
		}
		if err == nil {
			handle = h
			return nil
		}

		class := Classify(err)
		c.log.Debug("Generation attempt result",
			"attempt", attempts,
			"class", class.String(),
			"error", err,
		)
		if class == ClassRetryable {
			return retry.RetryableError(err)
		}
		// Fatal and unclassified errors end the run on this attempt.
		return err
	})
	if err != nil {
		return domain.Handle{}, attempts, err
	}
	return handle, attempts, nil
}

func (c *Controller) attempt(ctx context.Context, prompt string) (domain.Handle, error) {
	if c.policy.AttemptTimeout <= 0 {
		return c.gen.Generate(ctx, prompt)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()

	h, err := c.gen.Generate(attemptCtx, prompt)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		var genErr *Error
		if !errors.As(err, &genErr) {
			return domain.Handle{}, NewError(KindTimeout, 0,
				fmt.Sprintf("no response within %s", c.policy.AttemptTimeout), err)
		}
	}
	return h, err
}
