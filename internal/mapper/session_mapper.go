package mapper

import (
	"encoding/json"
	"time"

	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/model"
	"menu-lens-be/internal/progress"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.TranslationSession) *entity.TranslationSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var seedTexts []string
	if len(s.SeedTexts) > 0 {
		// A corrupt column should not sink the read; the session simply
		// loses its seed texts.
		_ = json.Unmarshal(s.SeedTexts, &seedTexts)
	}

	categories := make(map[string]progress.CategoryRecord)
	if len(s.Categories) > 0 {
		_ = json.Unmarshal(s.Categories, &categories)
	}

	return &entity.TranslationSession{
		Id:         s.Id,
		Status:     s.Status,
		Stage:      s.Stage,
		ImagePath:  s.ImagePath,
		SeedTexts:  seedTexts,
		Categories: categories,
		StreamOnly: s.StreamOnly,
		FailReason: s.FailReason,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.TranslationSession) *model.TranslationSession {
	if s == nil {
		return nil
	}

	seedTexts, _ := json.Marshal(s.SeedTexts)
	categories, _ := json.Marshal(s.Categories)

	out := &model.TranslationSession{
		Id:         s.Id,
		Status:     s.Status,
		Stage:      s.Stage,
		ImagePath:  s.ImagePath,
		SeedTexts:  datatypes.JSON(seedTexts),
		Categories: datatypes.JSON(categories),
		StreamOnly: s.StreamOnly,
		FailReason: s.FailReason,
		CreatedAt:  s.CreatedAt,
	}
	if s.UpdatedAt != nil {
		out.UpdatedAt = *s.UpdatedAt
	}
	return out
}
