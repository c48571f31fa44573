package generation

import (
	"fmt"
)

// Kind is the failure taxonomy of a generation call.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindServerError
	KindContentPolicy
	KindInvalidRequest
	KindUnauthorized
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindContentPolicy:
		return "content_policy"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned by Generator implementations for any failed call.
type Error struct {
	Kind    Kind
	Status  int // upstream HTTP status, 0 if none
	Message string
	Err     error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("generation %s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("generation %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
