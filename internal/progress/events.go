package progress

import (
	"context"
	"time"
)

// EventKind discriminates the closed set of pipeline events. The coordinator
// dispatches over this union exhaustively; unknown kinds are dropped and
// logged, never partially applied.
type EventKind string

const (
	EventStageAdvance      EventKind = "STAGE_ADVANCE"
	EventStageComplete     EventKind = "STAGE_COMPLETE"
	EventCategoryExtracted EventKind = "CATEGORY_EXTRACTED"
	EventCategoryChunk     EventKind = "CATEGORY_CHUNK"
	EventCategoryCompleted EventKind = "CATEGORY_COMPLETED"
	EventSessionFailed     EventKind = "SESSION_FAILED"
)

// ChunkStage tells a CATEGORY_CHUNK event which fidelity pass produced it.
type ChunkStage string

const (
	ChunkTranslate ChunkStage = "translate"
	ChunkEnrich    ChunkStage = "enrich"
)

// Event is one entry of the ordered, session-scoped progress stream. Fields
// beyond Kind/SessionID/At are populated per kind:
//
//	STAGE_ADVANCE      Stage, Message
//	STAGE_COMPLETE     Stage
//	CATEGORY_EXTRACTED Categories (category -> seeded raw items)
//	CATEGORY_CHUNK     Category, Items, ChunkStage
//	CATEGORY_COMPLETED Category
//	SESSION_FAILED     Reason
type Event struct {
	Kind       EventKind             `json:"kind"`
	SessionID  string                `json:"session_id"`
	Stage      int                   `json:"stage,omitempty"`
	Message    string                `json:"message,omitempty"`
	Category   string                `json:"category,omitempty"`
	Categories map[string][]MenuItem `json:"categories,omitempty"`
	Items      []MenuItem            `json:"items,omitempty"`
	ChunkStage ChunkStage            `json:"chunk_stage,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	At         time.Time             `json:"at"`
}

// EventSource is the push-event channel collaborator. Delivery is reliable
// and in-order per session; the returned release func is always safe to call,
// including more than once.
type EventSource interface {
	Subscribe(sessionID string) (events <-chan Event, release func(), err error)
}

// SessionRecord is the durable session store's view of one translation job.
// Category timestamps drive the hybrid tie-break at reconciliation.
type SessionRecord struct {
	SessionID  string
	Stage      int
	Categories map[string]CategoryRecord
	UpdatedAt  time.Time
}

// CategoryRecord is one persisted category inside a SessionRecord.
type CategoryRecord struct {
	Items     []MenuItem `json:"items"`
	Completed bool       `json:"completed"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SessionStore is the durable session store collaborator. Get returns
// ErrSessionNotFound when absent and ErrStoreUnavailable on transport
// failure.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)
}
