package menuai

import (
	"context"

	"menu-lens-be/internal/progress"
)

// Engine is the AI backend for each content-producing pipeline stage. One
// method per stage keeps the pipeline service free of any provider detail.
type Engine interface {
	// ExtractText performs OCR on the menu photo and returns raw text lines.
	ExtractText(ctx context.Context, image []byte, mimeType string) ([]string, error)

	// ClassifyMenu groups the raw lines into categorized raw items.
	ClassifyMenu(ctx context.Context, lines []string) (map[string][]progress.MenuItem, error)

	// TranslateCategory fills english names for one category's items.
	TranslateCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error)

	// EnrichCategory fills descriptions for one category's items.
	EnrichCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error)

	// IllustrateItem produces an image for the dish and returns its URL.
	// Engines that cannot illustrate return "" and no error.
	IllustrateItem(ctx context.Context, item progress.MenuItem) (string, error)
}
