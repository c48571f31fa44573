package recovery

import (
	"math"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
)

// ExponentialBackoff spaces replays of a failed item.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultBackoff returns 1m, 2m, 4m, 8m, 16m (max 1h) over five replays.
func DefaultBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: time.Minute,
		MaxDelay:     time.Hour,
		MaxAttempts:  5,
	}
}

// GetDelay calculates delay: InitialDelay * 2^retryCount
func (s *ExponentialBackoff) GetDelay(retryCount int) time.Duration {
	delay := float64(s.InitialDelay) * math.Pow(2, float64(retryCount))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether an item that failed with kind may be replayed
// again after retryCount replays.
func (s *ExponentialBackoff) ShouldRetry(kind domain.ErrorKind, retryCount int) bool {
	if retryCount >= s.MaxAttempts {
		return false
	}
	return kind != domain.ErrorKindFatal
}
