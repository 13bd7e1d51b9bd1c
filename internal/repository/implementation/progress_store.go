package implementation

import (
	"context"
	"fmt"

	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/contract"
	"menu-lens-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ProgressSessionStore adapts the gorm-backed session repository to the
// coordinator's SessionStore collaborator, translating repository outcomes
// into the coordinator's error taxonomy.
type ProgressSessionStore struct {
	repo contract.TranslationSessionRepository
}

func NewProgressSessionStore(repo contract.TranslationSessionRepository) *ProgressSessionStore {
	return &ProgressSessionStore{repo: repo}
}

func (s *ProgressSessionStore) Get(ctx context.Context, sessionID string) (*progress.SessionRecord, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, progress.ErrSessionNotFound
	}

	session, err := s.repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrStoreUnavailable, err)
	}
	if session == nil {
		return nil, progress.ErrSessionNotFound
	}

	record := &progress.SessionRecord{
		SessionID:  sessionID,
		Stage:      session.Stage,
		Categories: session.Categories,
		UpdatedAt:  session.CreatedAt,
	}
	if session.UpdatedAt != nil {
		record.UpdatedAt = *session.UpdatedAt
	}
	return record, nil
}
