package entity

import (
	"time"

	"github.com/google/uuid"
)

// DishEntry is one previously enriched dish in the shared glossary. The
// embedding of the Japanese name lets the pipeline reuse descriptions for
// dishes it has already seen instead of calling the LLM again.
type DishEntry struct {
	Id           uuid.UUID
	JapaneseName string
	EnglishName  string
	Description  string
	Embedding    []float32
	CreatedAt    time.Time
}
