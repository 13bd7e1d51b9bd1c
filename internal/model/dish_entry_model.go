package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DishEntry struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	JapaneseName string          `gorm:"type:text;not null;uniqueIndex"`
	EnglishName  string          `gorm:"type:text;not null"`
	Description  string          `gorm:"type:text"`
	Embedding    pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
}

func (DishEntry) TableName() string {
	return "dish_entries"
}
