package generation

import "errors"

// Class determines how the retry controller handles a failed attempt.
type Class int

const (
	// ClassUnknown marks errors that did not come from a generation call.
	ClassUnknown Class = iota
	ClassRetryable
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps a generation failure to its retry class.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var genErr *Error
	if !errors.As(err, &genErr) {
		return ClassUnknown
	}

	switch genErr.Kind {
	case KindRateLimited, KindServerError, KindTimeout:
		return ClassRetryable
	case KindContentPolicy:
		// The service is non-deterministic; an identical prompt may pass later.
		return ClassRetryable
	default:
		return ClassFatal
	}
}
