package implementation

import (
	"context"
	"errors"

	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/mapper"
	"menu-lens-be/internal/model"
	"menu-lens-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DishEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GlossaryMapper
}

func NewDishEntryRepository(db *gorm.DB) contract.DishEntryRepository {
	return &DishEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewGlossaryMapper(),
	}
}

func (r *DishEntryRepositoryImpl) Upsert(ctx context.Context, entry *entity.DishEntry) error {
	m := r.mapper.ToModel(entry)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "japanese_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"english_name", "description", "embedding"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *DishEntryRepositoryImpl) FindByJapaneseName(ctx context.Context, name string) (*entity.DishEntry, error) {
	var m model.DishEntry
	if err := r.db.WithContext(ctx).First(&m, "japanese_name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// SearchSimilar returns glossary entries whose name embedding is within the
// cosine similarity threshold, best first.
// Cosine distance in pgvector is 1 - cosine_similarity.
func (r *DishEntryRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredDishEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.DishEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("dish_entries").
		Select("dish_entries.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDishEntry, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDishEntry{
			Entry:      r.mapper.ToEntity(&res.DishEntry),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
