package integration

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"
	"menu-lens-be/pkg/eventbus"
	"menu-lens-be/pkg/menuai"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memoryStore mimics the durable session row for runs without Postgres.
type memoryStore struct {
	mu     sync.Mutex
	record progress.SessionRecord
}

func (m *memoryStore) Get(ctx context.Context, sessionID string) (*progress.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record.SessionID != sessionID {
		return nil, progress.ErrSessionNotFound
	}
	rec := m.record
	return &rec, nil
}

func (m *memoryStore) putCategory(category string, items []progress.MenuItem, completed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record.Categories == nil {
		m.record.Categories = map[string]progress.CategoryRecord{}
	}
	m.record.Categories[category] = progress.CategoryRecord{
		Items:     items,
		Completed: completed,
		UpdatedAt: time.Now(),
	}
	m.record.UpdatedAt = time.Now()
}

func waitForState(t *testing.T, coord *progress.Coordinator, want progress.State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if coord.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, want, coord.State(), "coordinator did not reach state in time")
}

// TestFullTranslationFlow drives the entire six-stage event sequence through
// the real event bus, with the fake engine providing stage output, and checks
// the coordinator's read model end to end including store reconciliation.
func TestFullTranslationFlow(t *testing.T) {
	log := logger.NewNopLogger()
	bus := eventbus.New(log)
	defer bus.Close()

	sessionID := uuid.New().String()
	store := &memoryStore{record: progress.SessionRecord{SessionID: sessionID}}

	coord := progress.NewCoordinator(bus, store, log)
	require.NoError(t, coord.StartSession(sessionID))

	engine := menuai.NewFakeEngine()
	ctx := context.Background()

	publish := func(ev progress.Event) {
		ev.SessionID = sessionID
		ev.At = time.Now()
		require.NoError(t, bus.Publish(ev))
	}

	lines, err := engine.ExtractText(ctx, nil, "image/jpeg")
	require.NoError(t, err)
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 1})
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 1})

	categories, err := engine.ClassifyMenu(ctx, lines)
	require.NoError(t, err)
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 2})
	publish(progress.Event{Kind: progress.EventCategoryExtracted, Categories: categories})
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 2})

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 3})
	for _, name := range names {
		items, err := engine.TranslateCategory(ctx, name, categories[name])
		require.NoError(t, err)
		publish(progress.Event{Kind: progress.EventCategoryChunk, Category: name, Items: items, ChunkStage: progress.ChunkTranslate})
	}
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 3})

	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 4})
	for _, name := range names {
		items, err := engine.EnrichCategory(ctx, name, categories[name])
		require.NoError(t, err)
		publish(progress.Event{Kind: progress.EventCategoryChunk, Category: name, Items: items, ChunkStage: progress.ChunkEnrich})
	}
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 4})

	// The store carries a description the stream never saw, stamped ahead of
	// the stream's observations: reconciliation must prefer it.
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 5})
	for _, name := range names {
		publish(progress.Event{Kind: progress.EventCategoryCompleted, Category: name})
	}
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 5})

	store.putCategory("mains", []progress.MenuItem{
		{JapaneseName: "ラーメン", EnglishName: "Ramen", Description: "Hand-pulled noodles, twelve-hour broth.", Price: "¥900"},
	}, true)

	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 6})
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 6})

	waitForState(t, coord, progress.StateCompleted)

	overall, determinate := coord.OverallProgress()
	require.True(t, determinate)
	require.InDelta(t, 1.0, overall, 1e-9)
	require.False(t, coord.StreamOnly())

	view := coord.MenuView(progress.FidelityFinal)
	require.Contains(t, view, "mains")

	var ramen *progress.MenuItem
	for i := range view["mains"] {
		if view["mains"][i].JapaneseName == "ラーメン" {
			ramen = &view["mains"][i]
		}
	}
	require.NotNil(t, ramen, "ラーメン missing from final view")
	require.Equal(t, "Ramen", ramen.EnglishName)
	require.Equal(t, "Hand-pulled noodles, twelve-hour broth.", ramen.Description,
		"fresher store description must win reconciliation")

	source, ok := coord.DataSourceOf(progress.CategoryKey(sessionID, "mains"))
	require.True(t, ok)
	require.Equal(t, progress.SourceStore, source)

	completed := coord.CompletedCategories()
	require.ElementsMatch(t, names, completed)

	coord.Reset()
	require.Equal(t, progress.StateIdle, coord.State())
}

// TestStreamOnlyFallback completes a session while the store is unreachable;
// the stream view must survive untouched and the session must be flagged
// stream-only.
func TestStreamOnlyFallback(t *testing.T) {
	log := logger.NewNopLogger()
	bus := eventbus.New(log)
	defer bus.Close()

	sessionID := uuid.New().String()
	store := &failingStore{}

	coord := progress.NewCoordinator(bus, store, log)
	require.NoError(t, coord.StartSession(sessionID))

	publish := func(ev progress.Event) {
		ev.SessionID = sessionID
		ev.At = time.Now()
		require.NoError(t, bus.Publish(ev))
	}

	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 1})
	publish(progress.Event{Kind: progress.EventCategoryExtracted, Categories: map[string][]progress.MenuItem{
		"mains": {{JapaneseName: "カレーライス"}},
	}})
	publish(progress.Event{Kind: progress.EventCategoryChunk, Category: "mains", ChunkStage: progress.ChunkTranslate, Items: []progress.MenuItem{
		{JapaneseName: "カレーライス", EnglishName: "Curry Rice"},
	}})
	publish(progress.Event{Kind: progress.EventCategoryCompleted, Category: "mains"})
	for ordinal := 1; ordinal <= progress.StageCount; ordinal++ {
		publish(progress.Event{Kind: progress.EventStageAdvance, Stage: ordinal})
		publish(progress.Event{Kind: progress.EventStageComplete, Stage: ordinal})
	}

	waitForState(t, coord, progress.StateCompleted)

	require.True(t, coord.StreamOnly())
	view := coord.MenuView(progress.FidelityTranslated)
	require.Len(t, view["mains"], 1)
	require.Equal(t, "Curry Rice", view["mains"][0].EnglishName)
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, sessionID string) (*progress.SessionRecord, error) {
	return nil, progress.ErrStoreUnavailable
}
