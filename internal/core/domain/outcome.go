package domain

import (
	"fmt"
)

// ErrorKind identifies which class of failure ended a pipeline run.
type ErrorKind string

const (
	// ErrorKindRetryable means generation kept failing with retryable errors
	// until the attempt budget ran out.
	ErrorKindRetryable ErrorKind = "retryable"
	ErrorKindFatal     ErrorKind = "fatal"
	ErrorKindDownload  ErrorKind = "download"
	ErrorKindUpload    ErrorKind = "upload"
	ErrorKindPublish   ErrorKind = "publish"
)

// Stage names a pipeline step.
type Stage string

const (
	StageGenerate Stage = "generate"
	StageStage    Stage = "stage"
	StageUpload   Stage = "upload"
	StagePublish  Stage = "publish"
)

// StageError is the failure half of an Outcome.
type StageError struct {
	Kind     ErrorKind
	Stage    Stage
	Attempts int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Outcome is the only value a caller of the orchestrator observes: either a
// PublishResult or a StageError, never both.
type Outcome struct {
	Result PublishResult
	Err    *StageError
}

// Success builds a successful outcome.
func Success(res PublishResult) Outcome {
	return Outcome{Result: res}
}

// Failed builds a failed outcome.
func Failed(kind ErrorKind, stage Stage, attempts int, err error) Outcome {
	return Outcome{Err: &StageError{Kind: kind, Stage: stage, Attempts: attempts, Err: err}}
}

func (o Outcome) Succeeded() bool { return o.Err == nil }
func (o Outcome) Failed() bool    { return o.Err != nil }

// BatchResult holds one outcome per input item, in input order.
type BatchResult struct {
	Outcomes []Outcome
}

// Succeeded returns the number of successful outcomes.
func (r BatchResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (r BatchResult) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}
