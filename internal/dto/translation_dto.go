package dto

import (
	"time"

	"github.com/google/uuid"

	"menu-lens-be/internal/progress"
)

type CreateSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

type StageProgress struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type CategoryProgress struct {
	Category   string `json:"category"`
	ItemCount  int    `json:"item_count"`
	Completed  bool   `json:"completed"`
	Processing bool   `json:"processing"`
}

type SessionProgressResponse struct {
	SessionId   string             `json:"session_id"`
	State       string             `json:"state"`
	Stages      []StageProgress    `json:"stages"`
	Overall     float64            `json:"overall"`
	Determinate bool               `json:"determinate"`
	StreamOnly  bool               `json:"stream_only"`
	Categories  []CategoryProgress `json:"categories"`
}

type MenuCategory struct {
	Category string              `json:"category"`
	Items    []progress.MenuItem `json:"items"`
}

type MenuViewResponse struct {
	SessionId  string         `json:"session_id"`
	Fidelity   string         `json:"fidelity"`
	Categories []MenuCategory `json:"categories"`
}

type ItemStatusResponse struct {
	Key                   string `json:"key"`
	IsTranslated          bool   `json:"is_translated"`
	IsComplete            bool   `json:"is_complete"`
	IsPartiallyComplete   bool   `json:"is_partially_complete"`
	IsCurrentlyProcessing bool   `json:"is_currently_processing"`
}

type EntrySourceResponse struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Live   bool   `json:"live"`
}

type ShareMenuRequest struct {
	SessionId string
	Email     string `json:"email" validate:"required,email"`
}

type ListSessionsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=uploading processing completed failed"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type SessionSummary struct {
	SessionId  uuid.UUID  `json:"session_id"`
	Status     string     `json:"status"`
	Stage      int        `json:"stage"`
	StreamOnly bool       `json:"stream_only"`
	FailReason string     `json:"fail_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
