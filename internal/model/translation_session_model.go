package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TranslationSession struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status     string         `gorm:"type:text;not null;default:'uploading'"`
	Stage      int            `gorm:"not null;default:1"`
	ImagePath  string         `gorm:"type:text"`
	SeedTexts  datatypes.JSON `gorm:"type:jsonb"`
	Categories datatypes.JSON `gorm:"type:jsonb"` // category name -> {items, completed, updated_at}
	StreamOnly bool           `gorm:"not null;default:false"`
	FailReason string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (TranslationSession) TableName() string {
	return "translation_sessions"
}
