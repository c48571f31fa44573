package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/genpost/internal/core/config"
	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/prompt"
)

// presetItem builds an item from explicit flags, falling back to the
// configured preset and caption.
func presetItem(cfg *config.AppConfig, text, caption string) (domain.BatchItem, error) {
	if strings.TrimSpace(text) == "" {
		rendered, err := prompt.Resolve(cfg.Prompt.Path, cfg.Prompt.Preset, slog.Default())
		if err != nil {
			return domain.BatchItem{}, err
		}
		text = rendered
	}
	return domain.BatchItem{
		Request: domain.GenerationRequest{Prompt: text},
		Caption: defaultCaption(cfg, caption),
	}, nil
}

func defaultCaption(cfg *config.AppConfig, caption string) string {
	if caption != "" {
		return caption
	}
	if cfg.Prompt.Caption != "" {
		return cfg.Prompt.Caption
	}
	return prompt.DefaultCaption
}

// loadItems reads a YAML list of {prompt, caption} entries. Entries without a
// caption get defaultCaption; entries without a prompt are rejected.
func loadItems(path, defaultCaption string) ([]domain.BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}
	var items []domain.BatchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse items file: %w", err)
	}
	for i := range items {
		if strings.TrimSpace(items[i].Request.Prompt) == "" {
			return nil, fmt.Errorf("item %d has no prompt", i)
		}
		if items[i].Caption == "" {
			items[i].Caption = defaultCaption
		}
	}
	return items, nil
}

// repeatItem returns n copies of item.
func repeatItem(item domain.BatchItem, n int) []domain.BatchItem {
	items := make([]domain.BatchItem, n)
	for i := range items {
		items[i] = item
	}
	return items
}
