package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
)

func TestStager_StageInline(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, nil, nil)

	a, err := s.Stage(context.Background(), domain.Handle{Data: []byte("png-bytes"), MIMEType: "image/png"})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if a.Size != int64(len("png-bytes")) {
		t.Errorf("expected size %d, got %d", len("png-bytes"), a.Size)
	}
	if filepath.Dir(a.Path) != dir || filepath.Ext(a.Path) != ".png" {
		t.Errorf("unexpected path %s", a.Path)
	}
	data, err := os.ReadFile(a.Path)
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("unexpected file content %q (%v)", data, err)
	}

	if err := s.Release(a); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Errorf("expected file removed, stat err = %v", err)
	}
}

func TestStager_StageHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		io.WriteString(w, "jpeg-bytes")
	}))
	defer srv.Close()

	s := NewStager(t.TempDir(), NewHTTPFetcher(5*time.Second), nil)
	a, err := s.Stage(context.Background(), domain.Handle{URL: srv.URL + "/img"})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	defer s.Release(a)

	if filepath.Ext(a.Path) != ".jpg" || a.MIMEType != "image/jpeg" {
		t.Errorf("unexpected artifact %+v", a)
	}
}

func TestStager_DownloadFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := NewStager(dir, NewHTTPFetcher(5*time.Second), nil)

	tests := []struct {
		name   string
		handle domain.Handle
	}{
		{"non-2xx status", domain.Handle{URL: srv.URL}},
		{"unreachable host", domain.Handle{URL: "http://127.0.0.1:1/img"}},
		{"empty handle", domain.Handle{}},
	}

	for _, tt := range tests {
		a, err := s.Stage(context.Background(), tt.handle)
		if !errors.Is(err, ErrDownload) {
			t.Errorf("%s: expected ErrDownload, got %v", tt.name, err)
		}
		if a != nil {
			t.Errorf("%s: expected no artifact", tt.name)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files left, found %d", len(entries))
	}
}

type brokenFetcher struct{}

type brokenBody struct{}

func (brokenBody) Read(p []byte) (int, error) { return 0, errors.New("connection reset") }
func (brokenBody) Close() error               { return nil }

func (brokenFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, string, error) {
	return brokenBody{}, "image/png", nil
}

func TestStager_PartialWriteRemoved(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, brokenFetcher{}, nil)

	if _, err := s.Stage(context.Background(), domain.Handle{URL: "http://x"}); !errors.Is(err, ErrDownload) {
		t.Fatalf("expected ErrDownload, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected partial file removed, found %d entries", len(entries))
	}
}

func TestStager_ReleaseIdempotent(t *testing.T) {
	s := NewStager(t.TempDir(), nil, nil)

	if err := s.Release(nil); err != nil {
		t.Errorf("Release(nil) = %v", err)
	}
	missing := &domain.StagedArtifact{Path: filepath.Join(s.Dir(), "artifact_missing.png")}
	if err := s.Release(missing); err != nil {
		t.Errorf("Release(missing) = %v", err)
	}

	a, err := s.Stage(context.Background(), domain.Handle{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := s.Release(a); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if err := s.Release(a); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestStager_ConcurrentPathsUnique(t *testing.T) {
	s := NewStager(t.TempDir(), nil, nil)

	const workers, perWorker = 8, 25
	var (
		mu    sync.Mutex
		paths = make(map[string]bool)
		wg    sync.WaitGroup
	)
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ctx := domain.WithWorker(context.Background(), w)
			for i := 0; i < perWorker; i++ {
				a, err := s.Stage(ctx, domain.Handle{Data: []byte("same"), MIMEType: "image/png"})
				if err != nil {
					t.Errorf("Stage failed: %v", err)
					return
				}
				if !strings.Contains(filepath.Base(a.Path), fmt.Sprintf("_w%d_", w)) {
					t.Errorf("path %s lacks worker id %d", a.Path, w)
				}
				mu.Lock()
				if paths[a.Path] {
					t.Errorf("duplicate path %s", a.Path)
				}
				paths[a.Path] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if len(paths) != workers*perWorker {
		t.Errorf("expected %d unique paths, got %d", workers*perWorker, len(paths))
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/png":             ".png",
		"image/jpeg":            ".jpg",
		"image/webp; charset=x": ".webp",
		"":                      ".png",
	}
	for ct, want := range tests {
		if got := extensionFor(ct); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}
