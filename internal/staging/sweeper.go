package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vietddude/genpost/internal/metrics"
)

// Sweeper deletes staged files left behind by runs that never reached
// Release, e.g. because the process was killed.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	log    *slog.Logger
}

// NewSweeper creates a new Sweeper worker.
func NewSweeper(dir string, maxAge time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{dir: dir, maxAge: maxAge, log: log}
}

// Start runs the sweep loop until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	if s.maxAge <= 0 {
		return // Sweeping disabled
	}

	interval := min(s.maxAge/10, 10*time.Minute)
	interval = max(interval, 10*time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Sweep(time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}

// Sweep removes staged files modified before now-maxAge and returns how many
// were removed.
func (s *Sweeper) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error("Failed to read staging dir", "dir", s.dir, "error", err)
		}
		return 0
	}

	threshold := now.Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(threshold) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Error("Failed to remove stale artifact", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.StagingFilesSwept.Add(float64(removed))
		s.log.Info("Swept stale staged artifacts", "dir", s.dir, "removed", removed)
	}
	return removed
}
