package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/genpost/internal/metrics"
)

// FailedCounter reports the dead-letter queue depth.
type FailedCounter interface {
	Count(ctx context.Context) (int, error)
}

// Check probes one dependency.
type Check func(ctx context.Context) error

// Thresholds decide when queued failures degrade health.
type Thresholds struct {
	Degraded int
	Critical int
}

var DefaultThresholds = Thresholds{Degraded: 1, Critical: 50}

// Monitor aggregates health status from the dead-letter queue and dependency checks.
type Monitor struct {
	failed     FailedCounter
	checks     map[string]Check
	thresholds Thresholds
	cacheFor   time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *Report
}

// NewMonitor creates a new health monitor.
func NewMonitor(failed FailedCounter, thresholds Thresholds) *Monitor {
	return &Monitor{
		failed:     failed,
		checks:     make(map[string]Check),
		thresholds: thresholds,
		cacheFor:   10 * time.Second,
	}
}

// AddCheck registers a dependency probe. A failing probe makes the system critical.
func (m *Monitor) AddCheck(name string, c Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = c
	m.lastReport = nil
}

// CheckHealth builds a report, reusing the previous one for a short while.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.cacheFor {
		return *m.lastReport
	}

	report := Report{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentHealth, len(m.checks)),
	}

	for name, check := range m.checks {
		c := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := check(ctx); err != nil {
			c.Status = StatusCritical
			c.Error = err.Error()
			report.Status = StatusCritical
		}
		report.Components[name] = c
	}

	if m.failed != nil {
		count, err := m.failed.Count(ctx)
		if err != nil {
			report.Components["failed_items"] = ComponentHealth{
				Name:   "failed_items",
				Status: StatusDegraded,
				Error:  err.Error(),
			}
			report.Status = worst(report.Status, StatusDegraded)
		} else {
			report.FailedItems = count
			metrics.FailedItemsPending.Set(float64(count))
			switch {
			case m.thresholds.Critical > 0 && count >= m.thresholds.Critical:
				report.Status = StatusCritical
			case m.thresholds.Degraded > 0 && count >= m.thresholds.Degraded:
				report.Status = worst(report.Status, StatusDegraded)
			}
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
