package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage"
)

type MemoryStorage struct {
	posts  map[string]*domain.Post
	failed map[string]*domain.FailedItem
	mu     sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		posts:  make(map[string]*domain.Post),
		failed: make(map[string]*domain.FailedItem),
	}
}

// -----------------------------------------------------------------------------
// Post Repository
// -----------------------------------------------------------------------------

type PostRepo struct {
	store *MemoryStorage
}

func NewPostRepo(store *MemoryStorage) *PostRepo {
	return &PostRepo{store: store}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *post
	r.store.posts[post.ID] = &cp
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.posts[id]
	if !ok {
		return nil, storage.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PostRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.posts), nil
}

// -----------------------------------------------------------------------------
// Failed Item Repository
// -----------------------------------------------------------------------------

type FailedRepo struct{ store *MemoryStorage }

func NewFailedRepo(s *MemoryStorage) *FailedRepo { return &FailedRepo{store: s} }

func (r *FailedRepo) Add(ctx context.Context, item *domain.FailedItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *item
	if cp.Status == "" {
		cp.Status = domain.FailedItemStatusPending
	}
	r.store.failed[item.ID] = &cp
	return nil
}

func (r *FailedRepo) GetNext(ctx context.Context) (*domain.FailedItem, error) {
	pending := r.pending()
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[0], nil
}

func (r *FailedRepo) IncrementRetry(ctx context.Context, id string, errMsg string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if item, ok := r.store.failed[id]; ok {
		item.RetryCount++
		item.LastAttempt = uint64(time.Now().Unix())
		if errMsg != "" {
			item.Error = errMsg
		}
	}
	return nil
}

func (r *FailedRepo) MarkResolved(ctx context.Context, id string) error {
	return r.setStatus(id, domain.FailedItemStatusResolved)
}

func (r *FailedRepo) MarkIgnored(ctx context.Context, id string) error {
	return r.setStatus(id, domain.FailedItemStatusIgnored)
}

func (r *FailedRepo) GetAll(ctx context.Context) ([]*domain.FailedItem, error) {
	return r.pending(), nil
}

func (r *FailedRepo) Count(ctx context.Context) (int, error) {
	return len(r.pending()), nil
}

func (r *FailedRepo) setStatus(id string, status domain.FailedItemStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if item, ok := r.store.failed[id]; ok {
		item.Status = status
	}
	return nil
}

// pending returns copies of pending items, oldest attempt first.
func (r *FailedRepo) pending() []*domain.FailedItem {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	items := make([]*domain.FailedItem, 0, len(r.store.failed))
	for _, item := range r.store.failed {
		if item.Status != domain.FailedItemStatusPending {
			continue
		}
		cp := *item
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].LastAttempt != items[j].LastAttempt {
			return items[i].LastAttempt < items[j].LastAttempt
		}
		return items[i].ID < items[j].ID
	})
	return items
}

var (
	_ storage.PostRepository       = (*PostRepo)(nil)
	_ storage.FailedItemRepository = (*FailedRepo)(nil)
)
