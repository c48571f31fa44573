package storage

import (
	"context"
	"errors"

	"github.com/vietddude/genpost/internal/core/domain"
)

var (
	// ErrPostNotFound is returned when a post doesn't exist
	ErrPostNotFound = errors.New("post not found")
)

// PostRepository handles published record storage
type PostRepository interface {
	// Create stores a new post
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by id
	GetByID(ctx context.Context, id string) (*domain.Post, error)

	// Count returns the number of stored posts
	Count(ctx context.Context) (int, error)
}

// FailedItemRepository handles the failed pipeline run queue
type FailedItemRepository interface {
	// Add adds a failed item
	Add(ctx context.Context, item *domain.FailedItem) error

	// GetNext retrieves the next pending item to retry (oldest attempt first)
	GetNext(ctx context.Context) (*domain.FailedItem, error)

	// IncrementRetry increments retry count and updates last attempt
	IncrementRetry(ctx context.Context, id string, errMsg string) error

	// MarkResolved marks an item as successfully replayed
	MarkResolved(ctx context.Context, id string) error

	// MarkIgnored marks an item that will never be replayed
	MarkIgnored(ctx context.Context, id string) error

	// GetAll retrieves all pending items
	GetAll(ctx context.Context) ([]*domain.FailedItem, error)

	// Count returns the count of pending items
	Count(ctx context.Context) (int, error)
}
