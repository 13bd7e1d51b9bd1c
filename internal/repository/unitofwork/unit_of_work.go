package unitofwork

import (
	"context"

	"menu-lens-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TranslationSessionRepository() contract.TranslationSessionRepository
	DishEntryRepository() contract.DishEntryRepository
}
