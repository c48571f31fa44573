package publish

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage"
)

// PostRecords creates records as rows in a post repository.
type PostRecords struct {
	repo storage.PostRepository
	now  func() time.Time
}

func NewPostRecords(repo storage.PostRepository) *PostRecords {
	return &PostRecords{repo: repo, now: time.Now}
}

// CreateRecord stores a post and returns its id.
func (r *PostRecords) CreateRecord(ctx context.Context, caption, mediaRef string) (string, error) {
	post := &domain.Post{
		ID:        uuid.NewString(),
		Caption:   caption,
		MediaRef:  mediaRef,
		CreatedAt: uint64(r.now().Unix()),
	}
	if err := r.repo.Create(ctx, post); err != nil {
		return "", err
	}
	return post.ID, nil
}

var _ RecordCreator = (*PostRecords)(nil)
