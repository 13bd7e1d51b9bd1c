package entity

import (
	"time"

	"menu-lens-be/internal/progress"

	"github.com/google/uuid"
)

type TranslationSession struct {
	Id         uuid.UUID
	Status     string
	Stage      int
	ImagePath  string
	SeedTexts  []string
	Categories map[string]progress.CategoryRecord
	StreamOnly bool
	FailReason string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

const (
	SessionStatusUploading  = "uploading"
	SessionStatusProcessing = "processing"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
)
