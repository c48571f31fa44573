package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweeper_Sweep(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "artifact_old.png")
	fresh := filepath.Join(dir, "artifact_fresh.png")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, past, past); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(dir, time.Hour, nil)
	if n := s.Sweep(time.Now()); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expected old artifact removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("expected fresh artifact kept")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("expected non-artifact file kept")
	}
}

func TestSweeper_MissingDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "nope"), time.Hour, nil)
	if n := s.Sweep(time.Now()); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}
