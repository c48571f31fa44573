package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/genpost/internal/core/config"
	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/prompt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadItems(t *testing.T) {
	path := writeFile(t, "items.yaml", `
- prompt: a red fox
  caption: fox
- prompt: a blue whale
`)

	items, err := loadItems(path, "default")
	if err != nil {
		t.Fatalf("loadItems: %v", err)
	}
	want := []domain.BatchItem{
		{Request: domain.GenerationRequest{Prompt: "a red fox"}, Caption: "fox"},
		{Request: domain.GenerationRequest{Prompt: "a blue whale"}, Caption: "default"},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestLoadItemsRejectsEmptyPrompt(t *testing.T) {
	path := writeFile(t, "items.yaml", "- caption: only a caption\n")
	if _, err := loadItems(path, ""); err == nil {
		t.Fatal("expected error for item without prompt")
	}
}

func TestLoadItemsMissingFile(t *testing.T) {
	if _, err := loadItems(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPresetItem(t *testing.T) {
	cfg := config.Default()
	cfg.Prompt.Path = filepath.Join(t.TempDir(), "missing.yaml")

	item, err := presetItem(cfg, "explicit prompt", "")
	if err != nil {
		t.Fatalf("presetItem: %v", err)
	}
	if item.Request.Prompt != "explicit prompt" {
		t.Errorf("prompt = %q", item.Request.Prompt)
	}
	wantCaption := cfg.Prompt.Caption
	if wantCaption == "" {
		wantCaption = prompt.DefaultCaption
	}
	if item.Caption != wantCaption {
		t.Errorf("caption = %q, want %q", item.Caption, wantCaption)
	}

	item, err = presetItem(cfg, "", "custom")
	if err != nil {
		t.Fatalf("presetItem with preset: %v", err)
	}
	if item.Request.Prompt == "" {
		t.Error("expected rendered default prompt")
	}
	if item.Caption != "custom" {
		t.Errorf("caption = %q, want custom", item.Caption)
	}
}

func TestRepeatItem(t *testing.T) {
	item := domain.BatchItem{Request: domain.GenerationRequest{Prompt: "p"}, Caption: "c"}
	items := repeatItem(item, 3)
	if len(items) != 3 {
		t.Fatalf("got %d items", len(items))
	}
	for _, it := range items {
		if it != item {
			t.Errorf("item = %+v", it)
		}
	}
}
