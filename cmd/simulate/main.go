package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"
	"menu-lens-be/pkg/eventbus"
	"menu-lens-be/pkg/menuai"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// memoryStore is an in-process stand-in for the durable session row: the
// simulated pipeline writes category snapshots into it the same way the real
// pipeline writes to Postgres, so reconciliation has something to compare
// against.
type memoryStore struct {
	record progress.SessionRecord
}

func (m *memoryStore) Get(ctx context.Context, sessionID string) (*progress.SessionRecord, error) {
	if m.record.SessionID != sessionID {
		return nil, progress.ErrSessionNotFound
	}
	rec := m.record
	return &rec, nil
}

func (m *memoryStore) putCategory(category string, items []progress.MenuItem, completed bool) {
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

func main() {
	title := color.New(color.FgCyan, color.Bold)
	stage := color.New(color.FgYellow)
	ok := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	title.Println("=== Menu Translation Simulation ===")

	log := logger.NewNopLogger()
	bus := eventbus.New(log)
	defer bus.Close()

	sessionID := uuid.New().String()
	store := &memoryStore{record: progress.SessionRecord{SessionID: sessionID}}

	coord := progress.NewCoordinator(bus, store, log)
	if err := coord.StartSession(sessionID); err != nil {
		color.Red("start session: %v", err)
		return
	}

	fmt.Printf("Session: %s\n\n", sessionID)

	engine := menuai.NewFakeEngine()
	ctx := context.Background()

	publish := func(ev progress.Event) {
		ev.SessionID = sessionID
		ev.At = time.Now()
		if err := bus.Publish(ev); err != nil {
			color.Red("publish: %v", err)
		}
		time.Sleep(30 * time.Millisecond)
	}

	// Stage 1: extract
	stage.Println("[1/6] extract")
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 1, Message: "Reading the menu photo"})
	lines, _ := engine.ExtractText(ctx, nil, "image/jpeg")
	dim.Printf("      %d lines of text\n", len(lines))
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 1})

	// Stage 2: classify
	stage.Println("[2/6] classify")
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 2, Message: "Grouping dishes"})
	categories, _ := engine.ClassifyMenu(ctx, lines)
	publish(progress.Event{Kind: progress.EventCategoryExtracted, Categories: categories})
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 2})

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	dim.Printf("      categories: %v\n", names)

	// Stage 3: translate
	stage.Println("[3/6] translate")
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 3, Message: "Translating dish names"})
	for _, name := range names {
		items, _ := engine.TranslateCategory(ctx, name, categories[name])
		publish(progress.Event{Kind: progress.EventCategoryChunk, Category: name, Items: items, ChunkStage: progress.ChunkTranslate})
	}
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 3})

	// Stage 4: enrich
	stage.Println("[4/6] enrich")
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 4, Message: "Writing descriptions"})
	for _, name := range names {
		items, _ := engine.EnrichCategory(ctx, name, categories[name])
		publish(progress.Event{Kind: progress.EventCategoryChunk, Category: name, Items: items, ChunkStage: progress.ChunkEnrich})
	}
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 4})

	// Stage 5: illustrate, then close out each category. The store gets the
	// same snapshots, which is what the coordinator reconciles against.
	stage.Println("[5/6] illustrate")
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 5, Message: "Finding dish images"})
	for _, name := range names {
		view := coord.MenuView(progress.FidelityFinal)
		store.putCategory(name, view[name], true)
		publish(progress.Event{Kind: progress.EventCategoryCompleted, Category: name})
	}
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 5})

	// Stage 6: finalize triggers reconciliation against the store.
	stage.Println("[6/6] finalize")
	publish(progress.Event{Kind: progress.EventStageAdvance, Stage: 6, Message: "Finishing up"})
	publish(progress.Event{Kind: progress.EventStageComplete, Stage: 6})

	deadline := time.Now().Add(2 * time.Second)
	for coord.State() != progress.StateCompleted && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Println()
	overall, _ := coord.OverallProgress()
	ok.Printf("state=%s overall=%.0f%% streamOnly=%v\n\n", coord.State(), overall*100, coord.StreamOnly())

	view := coord.MenuView(progress.FidelityFinal)
	for _, name := range names {
		title.Printf("%s\n", name)
		for _, item := range view[name] {
			live := "store"
			if coord.IsDataSourceLive(progress.CategoryKey(sessionID, name)) {
				live = "stream"
			}
			fmt.Printf("  %s - %s", item.JapaneseName, item.EnglishName)
			if item.Price != "" {
				fmt.Printf(" (%s)", item.Price)
			}
			dim.Printf("  [%s]\n", live)
			if item.Description != "" {
				dim.Printf("    %s\n", item.Description)
			}
		}
	}

	coord.Reset()
	ok.Println("\ndone")
}
