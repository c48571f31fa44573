package staging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/metrics"
)

// ErrDownload marks any failure to bring an artifact into local storage.
var ErrDownload = errors.New("download failed")

const filePrefix = "artifact_"

// Stager downloads artifacts into a staging directory.
type Stager struct {
	dir     string
	fetcher Fetcher
	log     *slog.Logger
}

// NewStager creates a stager writing under dir.
func NewStager(dir string, fetcher Fetcher, log *slog.Logger) *Stager {
	if log == nil {
		log = slog.Default()
	}
	return &Stager{dir: dir, fetcher: fetcher, log: log}
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage writes the artifact referenced by h to a fresh local path.
// The returned artifact must be passed to Release.
func (s *Stager) Stage(ctx context.Context, h domain.Handle) (*domain.StagedArtifact, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: empty handle", ErrDownload)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure staging dir: %v", ErrDownload, err)
	}

	var (
		body        io.Reader
		contentType = h.MIMEType
	)
	if h.Inline() {
		body = bytes.NewReader(h.Data)
	} else {
		if s.fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher for %s", ErrDownload, h.URL)
		}
		rc, ct, err := s.fetcher.Fetch(ctx, h.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDownload, err)
		}
		defer rc.Close()
		body = rc
		if contentType == "" {
			contentType = ct
		}
	}

	path := filepath.Join(s.dir, s.fileName(ctx, contentType))
	// O_EXCL turns a path collision into an error instead of a shared file.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrDownload, path, err)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write %s: %v", ErrDownload, path, err)
	}

	metrics.StagedArtifacts.Inc()
	s.log.Debug("Artifact staged", "path", path, "bytes", n)
	return &domain.StagedArtifact{Path: path, Size: n, MIMEType: contentType}, nil
}

// Release removes the staged file. It is safe to call on a nil artifact or
// on one whose file is already gone.
func (s *Stager) Release(a *domain.StagedArtifact) error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	switch {
	case err == nil:
		metrics.StagedArtifacts.Dec()
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("release %s: %w", a.Path, err)
	}
	return nil
}

// fileName embeds time, process, worker and a random UUID so concurrent
// workers never pick the same path.
func (s *Stager) fileName(ctx context.Context, contentType string) string {
	return fmt.Sprintf("%s%s_p%d_w%d_%s%s",
		filePrefix,
		time.Now().Format("20060102_150405.000"),
		os.Getpid(),
		domain.WorkerFrom(ctx),
		uuid.NewString(),
		extensionFor(contentType),
	)
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".png"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	if strings.HasPrefix(mediaType, "image/") {
		return "." + strings.TrimPrefix(mediaType, "image/")
	}
	return ".bin"
}
