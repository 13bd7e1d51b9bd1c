package mapper

import (
	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type GlossaryMapper struct{}

func NewGlossaryMapper() *GlossaryMapper {
	return &GlossaryMapper{}
}

func (m *GlossaryMapper) ToEntity(d *model.DishEntry) *entity.DishEntry {
	if d == nil {
		return nil
	}
	return &entity.DishEntry{
		Id:           d.Id,
		JapaneseName: d.JapaneseName,
		EnglishName:  d.EnglishName,
		Description:  d.Description,
		Embedding:    d.Embedding.Slice(),
		CreatedAt:    d.CreatedAt,
	}
}

func (m *GlossaryMapper) ToModel(d *entity.DishEntry) *model.DishEntry {
	if d == nil {
		return nil
	}
	return &model.DishEntry{
		Id:           d.Id,
		JapaneseName: d.JapaneseName,
		EnglishName:  d.EnglishName,
		Description:  d.Description,
		Embedding:    pgvector.NewVector(d.Embedding),
		CreatedAt:    d.CreatedAt,
	}
}
