package contract

import (
	"context"

	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TranslationSessionRepository interface {
	Create(ctx context.Context, session *entity.TranslationSession) error
	Update(ctx context.Context, session *entity.TranslationSession) error
	// UpsertCategory updates a single category record in place, stamping it
	// with the given observation time. The pipeline calls this as each stage
	// finishes a category; the whole-row Update is for status transitions.
	UpsertCategory(ctx context.Context, id uuid.UUID, category string, record progress.CategoryRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranslationSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranslationSession, error)
}
