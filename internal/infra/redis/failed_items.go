package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage"
)

const defaultItemTTL = 7 * 24 * time.Hour

// FailedItemRepo implements storage.FailedItemRepository using Redis.
// Pending ids live in a sorted set scored by last attempt; payloads are JSON blobs.
type FailedItemRepo struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewFailedItemRepo creates a new Redis-backed failed item repository.
func NewFailedItemRepo(client *Client, ttl time.Duration) *FailedItemRepo {
	if ttl <= 0 {
		ttl = defaultItemTTL
	}
	return &FailedItemRepo{
		rdb:    client.rdb,
		prefix: client.keyPrefix,
		ttl:    ttl,
	}
}

func (r *FailedItemRepo) queueKey() string {
	return fmt.Sprintf("%s:failed_items", r.prefix)
}

func (r *FailedItemRepo) itemKey(id string) string {
	return fmt.Sprintf("%s:failed_item:%s", r.prefix, id)
}

// Add adds a failed item to the queue.
func (r *FailedItemRepo) Add(ctx context.Context, item *domain.FailedItem) error {
	cp := *item
	if cp.Status == "" {
		cp.Status = domain.FailedItemStatusPending
	}
	now := uint64(time.Now().Unix())
	if cp.LastAttempt == 0 {
		cp.LastAttempt = now
	}
	if cp.CreatedAt == 0 {
		cp.CreatedAt = now
	}
	return r.save(ctx, &cp)
}

// GetNext retrieves the pending item with the oldest attempt.
func (r *FailedItemRepo) GetNext(ctx context.Context) (*domain.FailedItem, error) {
	for {
		ids, err := r.rdb.ZRange(ctx, r.queueKey(), 0, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("zrange failed: %w", err)
		}
		if len(ids) == 0 {
			return nil, nil
		}

		item, err := r.load(ctx, ids[0])
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
		// Payload expired but id still queued
		if err := r.rdb.ZRem(ctx, r.queueKey(), ids[0]).Err(); err != nil {
			return nil, fmt.Errorf("zrem failed: %w", err)
		}
	}
}

// IncrementRetry increments retry count and updates last attempt.
func (r *FailedItemRepo) IncrementRetry(ctx context.Context, id string, errMsg string) error {
	item, err := r.load(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	item.RetryCount++
	item.LastAttempt = uint64(time.Now().Unix())
	if errMsg != "" {
		item.Error = errMsg
	}
	return r.save(ctx, item)
}

// MarkResolved removes a successfully replayed item.
func (r *FailedItemRepo) MarkResolved(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}

// MarkIgnored removes an item that will never be replayed.
func (r *FailedItemRepo) MarkIgnored(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}

// GetAll retrieves all pending items, oldest attempt first.
func (r *FailedItemRepo) GetAll(ctx context.Context) ([]*domain.FailedItem, error) {
	ids, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	items := make([]*domain.FailedItem, 0, len(ids))
	for _, id := range ids {
		item, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

// Count returns the count of queued items.
func (r *FailedItemRepo) Count(ctx context.Context) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

func (r *FailedItemRepo) load(ctx context.Context, id string) (*domain.FailedItem, error) {
	data, err := r.rdb.Get(ctx, r.itemKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed item: %w", err)
	}

	var item domain.FailedItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed item: %w", err)
	}
	return &item, nil
}

func (r *FailedItemRepo) save(ctx context.Context, item *domain.FailedItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal failed item: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.itemKey(item.ID), data, r.ttl)
		pipe.ZAdd(ctx, r.queueKey(), redis.Z{
			Score:  float64(item.LastAttempt),
			Member: item.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save failed item: %w", err)
	}
	return nil
}

func (r *FailedItemRepo) remove(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, r.queueKey(), id)
		pipe.Del(ctx, r.itemKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove failed item: %w", err)
	}
	return nil
}

var _ storage.FailedItemRepository = (*FailedItemRepo)(nil)
