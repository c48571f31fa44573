package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage/memory"
)

type mockUploader struct {
	mu    sync.Mutex
	err   error
	calls int
	body  []byte
	media Media
}

func (m *mockUploader) UploadMedia(ctx context.Context, media Media, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.media = media
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.body = data
	return "media-1", nil
}

type mockRecords struct {
	mu       sync.Mutex
	err      error
	calls    int
	caption  string
	mediaRef string
	deadline bool
}

func (m *mockRecords) CreateRecord(ctx context.Context, caption, mediaRef string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.caption = caption
	m.mediaRef = mediaRef
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return "", m.err
	}
	return "post-1", nil
}

func stageFile(t *testing.T, content string) *domain.StagedArtifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact_test.png")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return &domain.StagedArtifact{Path: path, Size: int64(len(content)), MIMEType: "image/png"}
}

func TestPublisher_Success(t *testing.T) {
	up := &mockUploader{}
	rec := &mockRecords{}
	p := NewPublisher(up, rec, Config{RecordTimeout: time.Second}, nil)

	res, err := p.Publish(context.Background(), stageFile(t, "pixels"), "a caption")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if res.RecordID != "post-1" || res.MediaRef != "media-1" {
		t.Errorf("unexpected result %+v", res)
	}
	if string(up.body) != "pixels" {
		t.Errorf("uploaded %q", up.body)
	}
	if up.media.ContentType != "image/png" || up.media.Name != "artifact_test.png" {
		t.Errorf("unexpected media %+v", up.media)
	}
	if rec.caption != "a caption" || rec.mediaRef != "media-1" {
		t.Errorf("record got caption=%q media=%q", rec.caption, rec.mediaRef)
	}
	if !rec.deadline {
		t.Error("expected record call to carry a deadline")
	}
}

func TestPublisher_UploadFailure(t *testing.T) {
	up := &mockUploader{err: errors.New("503")}
	rec := &mockRecords{}
	p := NewPublisher(up, rec, Config{}, nil)

	_, err := p.Publish(context.Background(), stageFile(t, "x"), "c")
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if rec.calls != 0 {
		t.Errorf("record should not be created after upload failure, got %d calls", rec.calls)
	}
	if up.calls != 1 {
		t.Errorf("upload must not be retried, got %d calls", up.calls)
	}
}

func TestPublisher_RecordFailure(t *testing.T) {
	up := &mockUploader{}
	rec := &mockRecords{err: errors.New("rejected")}
	p := NewPublisher(up, rec, Config{}, nil)

	_, err := p.Publish(context.Background(), stageFile(t, "x"), "c")
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("record must not be retried, got %d calls", rec.calls)
	}
}

func TestPublisher_MissingFile(t *testing.T) {
	p := NewPublisher(&mockUploader{}, &mockRecords{}, Config{}, nil)

	a := &domain.StagedArtifact{Path: filepath.Join(t.TempDir(), "gone.png")}
	if _, err := p.Publish(context.Background(), a, "c"); !errors.Is(err, ErrUpload) {
		t.Errorf("expected ErrUpload, got %v", err)
	}
	if _, err := p.Publish(context.Background(), nil, "c"); !errors.Is(err, ErrUpload) {
		t.Errorf("expected ErrUpload for nil artifact, got %v", err)
	}
}

func TestPostRecords(t *testing.T) {
	repo := memory.NewPostRepo(memory.NewMemoryStorage())
	records := NewPostRecords(repo)

	id, err := records.CreateRecord(context.Background(), "hello", "s3://b/k")
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	post, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if post.Caption != "hello" || post.MediaRef != "s3://b/k" || post.CreatedAt == 0 {
		t.Errorf("unexpected post %+v", post)
	}
}
