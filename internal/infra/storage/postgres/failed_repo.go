package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage"
)

// FailedItemRepo implements storage.FailedItemRepository using PostgreSQL.
type FailedItemRepo struct {
	db *DB
}

// NewFailedItemRepo creates a new PostgreSQL failed item repository.
func NewFailedItemRepo(db *DB) *FailedItemRepo {
	return &FailedItemRepo{db: db}
}

type failedItemRow struct {
	ID          string `db:"id"`
	Prompt      string `db:"prompt"`
	Caption     string `db:"caption"`
	Kind        string `db:"kind"`
	Stage       string `db:"stage"`
	ErrorMsg    string `db:"error_msg"`
	RetryCount  int    `db:"retry_count"`
	Status      string `db:"status"`
	LastAttempt int64  `db:"last_attempt"`
	CreatedAt   int64  `db:"created_at"`
}

func (r *failedItemRow) toDomain() *domain.FailedItem {
	return &domain.FailedItem{
		ID:          r.ID,
		Prompt:      r.Prompt,
		Caption:     r.Caption,
		Kind:        domain.ErrorKind(r.Kind),
		Stage:       domain.Stage(r.Stage),
		Error:       r.ErrorMsg,
		RetryCount:  r.RetryCount,
		Status:      domain.FailedItemStatus(r.Status),
		LastAttempt: uint64(r.LastAttempt),
		CreatedAt:   uint64(r.CreatedAt),
	}
}

const failedItemColumns = `id, prompt, caption, kind, stage, error_msg, retry_count, status, last_attempt, created_at`

// Add adds a failed item.
func (r *FailedItemRepo) Add(ctx context.Context, item *domain.FailedItem) error {
	query := `
		INSERT INTO failed_items (` + failedItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	status := item.Status
	if status == "" {
		status = domain.FailedItemStatusPending
	}
	now := time.Now().Unix()
	lastAttempt := int64(item.LastAttempt)
	if lastAttempt == 0 {
		lastAttempt = now
	}
	createdAt := int64(item.CreatedAt)
	if createdAt == 0 {
		createdAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Prompt,
		item.Caption,
		string(item.Kind),
		string(item.Stage),
		item.Error,
		item.RetryCount,
		string(status),
		lastAttempt,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add failed item: %w", err)
	}
	return nil
}

// GetNext returns the next failed item to retry.
func (r *FailedItemRepo) GetNext(ctx context.Context) (*domain.FailedItem, error) {
	query := `
		SELECT ` + failedItemColumns + `
		FROM failed_items
		WHERE status = 'pending'
		ORDER BY last_attempt ASC
		LIMIT 1
	`
	var row failedItemRow
	err := r.db.GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed item: %w", err)
	}
	return row.toDomain(), nil
}

// IncrementRetry increments retry count and updates timestamp.
func (r *FailedItemRepo) IncrementRetry(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE failed_items
		SET retry_count = retry_count + 1,
			last_attempt = $2,
			error_msg = CASE WHEN $3 = '' THEN error_msg ELSE $3 END
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().Unix(), errMsg)
	return err
}

// MarkResolved marks a failed item as resolved.
func (r *FailedItemRepo) MarkResolved(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE failed_items SET status = 'resolved' WHERE id = $1`, id)
	return err
}

// MarkIgnored marks a failed item as ignored.
func (r *FailedItemRepo) MarkIgnored(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE failed_items SET status = 'ignored' WHERE id = $1`, id)
	return err
}

// GetAll returns all pending failed items.
func (r *FailedItemRepo) GetAll(ctx context.Context) ([]*domain.FailedItem, error) {
	query := `
		SELECT ` + failedItemColumns + `
		FROM failed_items
		WHERE status = 'pending'
		ORDER BY last_attempt ASC
	`
	var rows []failedItemRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get all failed items: %w", err)
	}

	items := make([]*domain.FailedItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toDomain())
	}
	return items, nil
}

// Count returns the number of pending failed items.
func (r *FailedItemRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM failed_items WHERE status = 'pending'`)
	if err != nil {
		return 0, fmt.Errorf("failed to count failed items: %w", err)
	}
	return count, nil
}

var _ storage.FailedItemRepository = (*FailedItemRepo)(nil)
