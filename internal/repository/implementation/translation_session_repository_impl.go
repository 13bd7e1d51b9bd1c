package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/mapper"
	"menu-lens-be/internal/model"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/contract"
	"menu-lens-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TranslationSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewTranslationSessionRepository(db *gorm.DB) contract.TranslationSessionRepository {
	return &TranslationSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *TranslationSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranslationSessionRepositoryImpl) Create(ctx context.Context, session *entity.TranslationSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *TranslationSessionRepositoryImpl) Update(ctx context.Context, session *entity.TranslationSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

// UpsertCategory rewrites one key of the categories JSONB column. A
// read-modify-write under SELECT FOR UPDATE keeps concurrent category writers
// for the same session from clobbering each other.
func (r *TranslationSessionRepositoryImpl) UpsertCategory(ctx context.Context, id uuid.UUID, category string, record progress.CategoryRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.TranslationSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error; err != nil {
			return err
		}

		categories := make(map[string]progress.CategoryRecord)
		if len(m.Categories) > 0 {
			if err := json.Unmarshal(m.Categories, &categories); err != nil {
				return err
			}
		}
		categories[category] = record

		raw, err := json.Marshal(categories)
		if err != nil {
			return err
		}
		return tx.Model(&model.TranslationSession{}).
			Where("id = ?", id).
			Update("categories", datatypes.JSON(raw)).Error
	})
}

func (r *TranslationSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TranslationSession{}, id).Error
}

func (r *TranslationSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranslationSession, error) {
	var m model.TranslationSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TranslationSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranslationSession, error) {
	var models []*model.TranslationSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TranslationSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
