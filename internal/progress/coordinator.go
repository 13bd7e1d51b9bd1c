package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"menu-lens-be/internal/pkg/logger"
)

// State is the coordinator's lifecycle for one translation session.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

const reconcileTimeout = 5 * time.Second

// CategoryKey is the hybrid-store key for one category's data.
func CategoryKey(sessionID, category string) string {
	return fmt.Sprintf("%s/category/%s", sessionID, category)
}

// StageKey is the hybrid-store key for one stage's data.
func StageKey(sessionID string, ordinal int) string {
	return fmt.Sprintf("%s/stage/%d", sessionID, ordinal)
}

// CategoryProgress is the derived per-category read model.
type CategoryProgress struct {
	Category   string `json:"category"`
	Items      int    `json:"items"`
	Completed  bool   `json:"completed"`
	Processing bool   `json:"processing"`
}

// Coordinator tracks the six-stage pipeline for one session at a time. It
// merges partial results from the ordered push-event stream with data
// persisted in the durable session store and exposes one consistent read
// model despite the two sources racing or disagreeing.
//
// All mutations for a session flow through a single run-loop goroutine, one
// event at a time in delivery order; readers take a shared lock and never
// observe a half-applied event. Collaborators are injected so tests run with
// fakes.
type Coordinator struct {
	mu     sync.RWMutex
	source EventSource
	store  SessionStore
	logger logger.ILogger

	state     State
	sessionID string
	ledger    *StageLedger
	acc       *CategoryAccumulator
	hybrid    *HybridStore

	// expected is the category count learned from extraction; 0 when the
	// pipeline has not told us yet.
	expected int

	// streamOnly is set when the durable store was unreachable at
	// reconciliation and the session completed on stream data alone.
	streamOnly bool

	release     func()
	onCompleted func(sessionID string, streamOnly bool)
}

// NewCoordinator builds an idle coordinator around the injected push-event
// source and durable session store.
func NewCoordinator(source EventSource, store SessionStore, log logger.ILogger) *Coordinator {
	return &Coordinator{
		source: source,
		store:  store,
		logger: log,
		state:  StateIdle,
		ledger: NewStageLedger(),
		acc:    NewCategoryAccumulator(),
		hybrid: NewHybridStore(),
	}
}

// OnCompleted registers a callback invoked once per session, after
// reconciliation, as the coordinator enters completed. It carries the
// session's stream-only outcome so callers can record it durably. Register
// before StartSession; the callback runs outside the coordinator's lock.
func (c *Coordinator) OnCompleted(fn func(sessionID string, streamOnly bool)) {
	c.mu.Lock()
	c.onCompleted = fn
	c.mu.Unlock()
}

// StartSession clears any prior session state, subscribes to the session's
// event stream and enters uploading. The transition to processing happens
// when the first stage-advance event is observed. Starting while a session is
// still uploading or processing fails with ErrSessionActive.
func (c *Coordinator) StartSession(sessionID string) error {
	c.mu.Lock()
	if c.state == StateUploading || c.state == StateProcessing {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.clearLocked()
	c.sessionID = sessionID
	c.state = StateUploading
	c.mu.Unlock()

	events, release, err := c.source.Subscribe(sessionID)
	if err != nil {
		c.mu.Lock()
		c.state = StateFailed
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	// Session may have been reset between unlock and subscribe.
	if c.sessionID != sessionID || c.state != StateUploading {
		c.mu.Unlock()
		release()
		return nil
	}
	c.release = release
	c.mu.Unlock()

	go c.run(sessionID, events)
	return nil
}

// run is the single writer for the session: events are applied one at a time
// in delivery order until the stream ends or a terminal state is reached.
func (c *Coordinator) run(sessionID string, events <-chan Event) {
	for ev := range events {
		if c.dispatch(sessionID, ev) {
			break
		}
	}
	c.finalize(sessionID)
}

// dispatch applies one event atomically and reports whether the session
// reached a point where the run loop should stop (ledger terminal or failed).
func (c *Coordinator) dispatch(sessionID string, ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != sessionID {
		// Stale loop for a session that was reset; let the channel drain.
		return true
	}
	if ev.SessionID != "" && ev.SessionID != sessionID {
		return false
	}

	switch ev.Kind {
	case EventStageAdvance:
		if c.state == StateUploading {
			c.state = StateProcessing
		}
		if err := c.ledger.Advance(ev.Stage, ev.Message); err != nil {
			c.logger.Warn("Coordinator", "Dropped stage advance", map[string]interface{}{
				"session_id": sessionID, "stage": ev.Stage, "error": err.Error(),
			})
			return false
		}
		c.hybrid.PutFromStream(StageKey(sessionID, ev.Stage), ev.Message, ev.At)

	case EventStageComplete:
		if err := c.ledger.Complete(ev.Stage); err != nil {
			c.logger.Warn("Coordinator", "Dropped stage complete", map[string]interface{}{
				"session_id": sessionID, "stage": ev.Stage, "error": err.Error(),
			})
			return false
		}
		c.hybrid.PutFromStream(StageKey(sessionID, ev.Stage), ev.Message, ev.At)
		if c.ledger.Terminal() {
			return true
		}

	case EventCategoryExtracted:
		c.acc.ApplyExtraction(ev.Categories)
		if n := c.acc.CategoryCount(); n > c.expected {
			c.expected = n
		}
		for category := range ev.Categories {
			c.putCategoryFromStream(sessionID, category, ev.At)
		}

	case EventCategoryChunk:
		c.acc.SetProcessingCategory(ev.Category)
		switch ev.ChunkStage {
		case ChunkEnrich:
			c.acc.ApplyEnrichment(ev.Category, ev.Items)
		default:
			c.acc.ApplyTranslationChunk(ev.Category, ev.Items)
		}
		c.putCategoryFromStream(sessionID, ev.Category, ev.At)

	case EventCategoryCompleted:
		c.acc.MarkCategoryCompleted(ev.Category)
		c.putCategoryFromStream(sessionID, ev.Category, ev.At)

	case EventSessionFailed:
		// Keep the last-known view for inspection; only the state flips.
		c.state = StateFailed
		c.logger.Error("Coordinator", "Session failed", map[string]interface{}{
			"session_id": sessionID, "reason": ev.Reason,
		})
		return true

	default:
		c.logger.Warn("Coordinator", "Unknown event kind", map[string]interface{}{
			"session_id": sessionID, "kind": string(ev.Kind),
		})
	}
	return false
}

// putCategoryFromStream upserts the category's merged view into the hybrid
// store as a stream observation. A rejected write means the durable store
// already holds something at least as fresh; that is expected and only worth
// a debug line.
func (c *Coordinator) putCategoryFromStream(sessionID, category string, at time.Time) {
	snapshot := c.acc.CurrentView(FidelityFinal)[category]
	if !c.hybrid.PutFromStream(CategoryKey(sessionID, category), snapshot, at) {
		c.logger.Debug("Coordinator", "Stream write superseded by store", map[string]interface{}{
			"session_id": sessionID, "category": category,
		})
	}
}

// finalize runs on every run-loop exit. When the ledger is terminal it
// reconciles against the durable store before entering completed; on every
// path it guarantees the subscription is released.
func (c *Coordinator) finalize(sessionID string) {
	c.mu.RLock()
	needsReconcile := c.sessionID == sessionID && c.state == StateProcessing && c.ledger.Terminal()
	c.mu.RUnlock()

	var record *SessionRecord
	var storeErr error
	if needsReconcile {
		// The store read happens outside the lock so readers stay
		// non-blocking even when the store is slow.
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		record, storeErr = c.store.Get(ctx, sessionID)
		cancel()
	}

	var notify func(string, bool)
	var streamOnly bool
	c.mu.Lock()
	if c.sessionID == sessionID {
		if needsReconcile && c.state == StateProcessing {
			c.reconcileLocked(sessionID, record, storeErr)
			c.state = StateCompleted
			notify = c.onCompleted
			streamOnly = c.streamOnly
		}
		c.releaseLocked()
	}
	c.mu.Unlock()

	if notify != nil {
		notify(sessionID, streamOnly)
	}
}

// reconcileLocked folds the durable record into the hybrid store and the
// accumulator. Late-arriving persisted data supersedes any stale stream
// snapshot per the store-preferred tie rule; an unreachable store downgrades
// the session to stream-only rather than failing it.
func (c *Coordinator) reconcileLocked(sessionID string, record *SessionRecord, storeErr error) {
	if storeErr != nil {
		c.streamOnly = true
		c.logger.Warn("Coordinator", "Completing on stream data only", map[string]interface{}{
			"session_id": sessionID, "error": storeErr.Error(),
		})
		return
	}
	if record == nil {
		return
	}
	if record.Stage > 0 {
		c.hybrid.PutFromStore(StageKey(sessionID, record.Stage), nil, record.UpdatedAt)
	}
	for category, cr := range record.Categories {
		if !c.hybrid.PutFromStore(CategoryKey(sessionID, category), cr.Items, cr.UpdatedAt) {
			continue
		}
		// The store won for this key: its fields overwrite, its items
		// merge in, and nothing already observed is dropped.
		c.acc.ApplyEnrichment(category, cr.Items)
		if cr.Completed {
			c.acc.MarkCategoryCompleted(category)
		}
	}
}

// Abort cancels the session: the subscription is released and the
// coordinator enters failed with the last-known view preserved. Aborting
// twice, or with no session running, is a no-op.
func (c *Coordinator) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUploading && c.state != StateProcessing {
		return
	}
	c.state = StateFailed
	c.releaseLocked()
}

// Reset clears all session state and re-enters idle. Safe to call from any
// state, any number of times. No subscription survives it.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Coordinator) clearLocked() {
	c.releaseLocked()
	c.ledger.Reset()
	c.acc.Reset()
	c.hybrid.Clear()
	c.sessionID = ""
	c.expected = 0
	c.streamOnly = false
	c.state = StateIdle
}

func (c *Coordinator) releaseLocked() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SessionID returns the active session id, or "" when idle.
func (c *Coordinator) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// CurrentStageSnapshot returns the six stage records, or nil when no session
// is active.
func (c *Coordinator) CurrentStageSnapshot() []StageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == StateIdle {
		return nil
	}
	return c.ledger.Snapshot()
}

// OverallProgress returns the fraction of the pipeline completed. ok is false
// when no session is active; consumers must treat that as nothing to show,
// not as zero progress. Within the active stage the fraction refines by
// completed categories when the expected total is known.
func (c *Coordinator) OverallProgress() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == StateIdle {
		return 0, false
	}
	p := float64(c.ledger.CompletedCount()) / StageCount
	if !c.ledger.Terminal() && c.expected > 0 {
		p += float64(c.acc.CompletedCount()) / float64(c.expected) / StageCount
	}
	if p > 1 {
		p = 1
	}
	return p, true
}

// CategoryProgress returns the derived read model for one category.
func (c *Coordinator) CategoryProgress(category string) CategoryProgress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CategoryProgress{
		Category:   category,
		Items:      c.acc.ItemCount(category),
		Completed:  c.acc.IsCategoryCompleted(category),
		Processing: c.acc.ProcessingCategory() == category,
	}
}

// CompletedCategories returns the sorted completed category names.
func (c *Coordinator) CompletedCategories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.CompletedCategories()
}

// MenuView returns the merged categorized menu at the requested fidelity.
func (c *Coordinator) MenuView(fidelity Fidelity) map[string][]MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.CurrentView(fidelity)
}

// ItemStatus returns the derived status of one item by category and stable
// key.
func (c *Coordinator) ItemStatus(category, key string) (ItemStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.ItemStatus(category, key)
}

// IsDataSourceLive reports whether the retained value for the key came from
// the live stream rather than the durable store.
func (c *Coordinator) IsDataSourceLive(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	source, ok := c.hybrid.SourceOf(key)
	return ok && source == SourceStream
}

// DataSourceOf reports which source the retained value for the key came
// from; ok is false when the key is absent.
func (c *Coordinator) DataSourceOf(key string) (Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hybrid.SourceOf(key)
}

// StreamOnly reports whether the session completed without durable
// reconciliation because the store was unreachable.
func (c *Coordinator) StreamOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streamOnly
}
