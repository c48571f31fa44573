package generation

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Schedule computes the wait before the next generation attempt.
type Schedule struct {
	BaseDelay  time.Duration
	Multiplier float64
	// Jitter is the exclusive upper bound of the uniform random delay added
	// to every wait. Zero disables jitter.
	Jitter time.Duration
}

// DefaultSchedule waits ~5s then ~10s between attempts.
var DefaultSchedule = Schedule{
	BaseDelay:  5 * time.Second,
	Multiplier: 2,
	Jitter:     time.Second,
}

// Delay returns the wait after the given 1-indexed attempt failed:
// BaseDelay * Multiplier^(attempt-1) + U[0, Jitter).
func (s Schedule) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := s.Multiplier
	if mult <= 0 {
		mult = 1
	}
	delay := float64(s.BaseDelay) * math.Pow(mult, float64(attempt-1))
	d := time.Duration(math.MaxInt64)
	if delay < float64(math.MaxInt64) {
		d = time.Duration(delay)
	}
	if s.Jitter > 0 && d < time.Duration(math.MaxInt64)-s.Jitter {
		d += time.Duration(rand.Int64N(int64(s.Jitter)))
	}
	return d
}

// Backoff adapts the schedule to go-retry. The first Next call yields the
// wait after attempt 1. onWait, if set, sees every wait that is handed out.
func (s Schedule) Backoff(onWait func(attempt int, d time.Duration)) retry.Backoff {
	var mu sync.Mutex
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		mu.Lock()
		attempt++
		n := attempt
		mu.Unlock()

		d := s.Delay(n)
		if onWait != nil {
			onWait(n, d)
		}
		return d, false
	})
}
