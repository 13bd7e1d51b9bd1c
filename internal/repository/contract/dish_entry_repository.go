package contract

import (
	"context"

	"menu-lens-be/internal/entity"
)

// ScoredDishEntry pairs a glossary hit with its cosine similarity to the
// query embedding.
type ScoredDishEntry struct {
	Entry      *entity.DishEntry
	Similarity float64
}

type DishEntryRepository interface {
	Upsert(ctx context.Context, entry *entity.DishEntry) error
	FindByJapaneseName(ctx context.Context, name string) (*entity.DishEntry, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredDishEntry, error)
}
