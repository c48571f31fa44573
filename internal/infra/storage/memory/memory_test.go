package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/infra/storage"
)

func TestPostRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepo(NewMemoryStorage())

	if err := repo.Create(ctx, &domain.Post{ID: "p1", Caption: "hi", MediaRef: "m1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := repo.GetByID(ctx, "p1")
	if err != nil || got.MediaRef != "m1" {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Errorf("expected 1 post, got %d", n)
	}
}

func TestFailedRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewFailedRepo(NewMemoryStorage())

	repo.Add(ctx, &domain.FailedItem{ID: "b", LastAttempt: 200})
	repo.Add(ctx, &domain.FailedItem{ID: "a", LastAttempt: 100})

	next, err := repo.GetNext(ctx)
	if err != nil || next == nil || next.ID != "a" {
		t.Fatalf("expected oldest item a, got %+v (%v)", next, err)
	}

	if err := repo.IncrementRetry(ctx, "a", "still failing"); err != nil {
		t.Fatal(err)
	}
	next, _ = repo.GetNext(ctx)
	if next.ID != "b" {
		t.Errorf("expected b after a was retried now, got %s", next.ID)
	}

	repo.MarkResolved(ctx, "b")
	repo.MarkIgnored(ctx, "a")
	if n, _ := repo.Count(ctx); n != 0 {
		t.Errorf("expected no pending items, got %d", n)
	}
	if next, _ := repo.GetNext(ctx); next != nil {
		t.Errorf("expected empty queue, got %+v", next)
	}
}
