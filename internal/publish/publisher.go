// Package publish uploads staged artifacts and creates the public record
// that references them.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
)

var (
	// ErrUpload marks a failed media upload.
	ErrUpload = errors.New("media upload failed")
	// ErrPublish marks a failed record creation.
	ErrPublish = errors.New("record creation failed")
)

// Media describes an upload to the publishing service.
type Media struct {
	Name        string
	Size        int64
	ContentType string
}

// MediaUploader stores media bytes and returns a reference to them.
type MediaUploader interface {
	UploadMedia(ctx context.Context, m Media, body io.Reader) (string, error)
}

// RecordCreator creates the public record (post) for an uploaded media ref.
type RecordCreator interface {
	CreateRecord(ctx context.Context, caption, mediaRef string) (string, error)
}

// Config bounds the two publishing calls.
type Config struct {
	UploadTimeout time.Duration
	RecordTimeout time.Duration
}

// Publisher uploads a staged artifact and posts it. It never retries: a
// repeated CreateRecord could post twice.
type Publisher struct {
	media   MediaUploader
	records RecordCreator
	cfg     Config
	log     *slog.Logger
}

// NewPublisher creates a new Publisher.
func NewPublisher(media MediaUploader, records RecordCreator, cfg Config, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{media: media, records: records, cfg: cfg, log: log}
}

// Publish uploads a's bytes and creates a record captioned with caption.
// Failures wrap ErrUpload or ErrPublish.
func (p *Publisher) Publish(ctx context.Context, a *domain.StagedArtifact, caption string) (domain.PublishResult, error) {
	if a == nil {
		return domain.PublishResult{}, fmt.Errorf("%w: no artifact", ErrUpload)
	}

	mediaRef, err := p.upload(ctx, a)
	if err != nil {
		return domain.PublishResult{}, err
	}

	recordCtx, cancel := withTimeout(ctx, p.cfg.RecordTimeout)
	defer cancel()

	recordID, err := p.records.CreateRecord(recordCtx, caption, mediaRef)
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("%w: %v", ErrPublish, err)
	}

	p.log.Info("Record published", "record_id", recordID, "media_ref", mediaRef)
	return domain.PublishResult{RecordID: recordID, MediaRef: mediaRef}, nil
}

func (p *Publisher) upload(ctx context.Context, a *domain.StagedArtifact) (string, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrUpload, a.Path, err)
	}
	defer f.Close()

	contentType := a.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadCtx, cancel := withTimeout(ctx, p.cfg.UploadTimeout)
	defer cancel()

	ref, err := p.media.UploadMedia(uploadCtx, Media{
		Name:        filepath.Base(a.Path),
		Size:        a.Size,
		ContentType: contentType,
	}, f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return ref, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
