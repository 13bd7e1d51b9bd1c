package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/specification"
	"menu-lens-be/internal/repository/unitofwork"
	"menu-lens-be/pkg/eventbus"
	"menu-lens-be/pkg/events"
	"menu-lens-be/pkg/menuai"
	pktNats "menu-lens-be/pkg/nats"

	"github.com/google/uuid"
)

// translateChunkSize bounds how many items go into one model call; each chunk
// is also one CATEGORY_CHUNK event, so smaller chunks mean smoother progress.
const translateChunkSize = 4

const (
	stageExtract = iota + 1
	stageClassify
	stageTranslate
	stageEnrich
	stageIllustrate
	stageFinalize
)

// IPipelineService runs the six-stage translation job for one uploaded menu
// photo: every stage transition and category result goes out on the event bus
// and is persisted to the session row, so both the live stream and the store
// tell the same story.
type IPipelineService interface {
	Run(ctx context.Context, sessionID uuid.UUID, image []byte, mimeType string)
}

type pipelineService struct {
	engine         menuai.Engine
	bus            *eventbus.Bus
	uowFactory     unitofwork.RepositoryFactory
	glossary       IGlossaryService
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewPipelineService(
	engine menuai.Engine,
	bus *eventbus.Bus,
	uowFactory unitofwork.RepositoryFactory,
	glossary IGlossaryService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		engine:         engine,
		bus:            bus,
		uowFactory:     uowFactory,
		glossary:       glossary,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// Run executes the whole pipeline synchronously; callers start it in a
// goroutine. Failures mark the session failed and emit SESSION_FAILED, they
// never panic out.
func (s *pipelineService) Run(ctx context.Context, sessionID uuid.UUID, image []byte, mimeType string) {
	sid := sessionID.String()
	started := time.Now()

	if err := s.process(ctx, sessionID, sid, image, mimeType); err != nil {
		s.logger.Error("PipelineService", "Pipeline failed", map[string]interface{}{
			"session_id": sid, "error": err.Error(),
		})
		s.fail(ctx, sessionID, sid, err)
		return
	}

	s.logger.Info("PipelineService", "Pipeline completed", map[string]interface{}{
		"session_id": sid, "elapsed": time.Since(started).String(),
	})
	s.publishTerminal(ctx, "SESSION_COMPLETED", sid, nil)
}

func (s *pipelineService) process(ctx context.Context, id uuid.UUID, sid string, image []byte, mimeType string) error {
	// Stage 1: extract
	s.advance(sid, stageExtract, "Reading the menu photo")
	lines, err := s.engine.ExtractText(ctx, image, mimeType)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("extract: no text found in image")
	}
	if err := s.persistStage(ctx, id, stageExtract, func(session *entity.TranslationSession) {
		session.Status = entity.SessionStatusProcessing
		session.SeedTexts = lines
	}); err != nil {
		return err
	}
	s.complete(sid, stageExtract)

	// Stage 2: classify
	s.advance(sid, stageClassify, "Grouping dishes into categories")
	categories, err := s.engine.ClassifyMenu(ctx, lines)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if err := s.seedCategories(ctx, id, sid, categories); err != nil {
		return err
	}
	s.complete(sid, stageClassify)

	ordered := sortedCategories(categories)

	// Stage 3: translate
	s.advance(sid, stageTranslate, "Translating dish names")
	for _, category := range ordered {
		translated, err := s.translateCategory(ctx, category, categories[category])
		if err != nil {
			return fmt.Errorf("translate %q: %w", category, err)
		}
		categories[category] = mergeItems(categories[category], translated)
		if err := s.emitChunks(ctx, id, sid, category, translated, progress.ChunkTranslate, categories[category]); err != nil {
			return err
		}
	}
	if err := s.persistStage(ctx, id, stageTranslate, nil); err != nil {
		return err
	}
	s.complete(sid, stageTranslate)

	// Stage 4: enrich
	s.advance(sid, stageEnrich, "Writing dish descriptions")
	for _, category := range ordered {
		enriched, err := s.enrichCategory(ctx, category, categories[category])
		if err != nil {
			return fmt.Errorf("enrich %q: %w", category, err)
		}
		categories[category] = mergeItems(categories[category], enriched)
		if err := s.emitChunks(ctx, id, sid, category, enriched, progress.ChunkEnrich, categories[category]); err != nil {
			return err
		}
	}
	if err := s.persistStage(ctx, id, stageEnrich, nil); err != nil {
		return err
	}
	s.complete(sid, stageEnrich)

	// Stage 5: illustrate. Image URLs ride enrich chunks so they merge into
	// the accumulated items like any other late-arriving field.
	s.advance(sid, stageIllustrate, "Finding dish images")
	for _, category := range ordered {
		illustrated := s.illustrateCategory(ctx, sid, categories[category])
		if len(illustrated) > 0 {
			categories[category] = mergeItems(categories[category], illustrated)
			if err := s.emitChunks(ctx, id, sid, category, illustrated, progress.ChunkEnrich, categories[category]); err != nil {
				return err
			}
		}
		if err := s.completeCategory(ctx, id, sid, category, categories[category]); err != nil {
			return err
		}
	}
	if err := s.persistStage(ctx, id, stageIllustrate, nil); err != nil {
		return err
	}
	s.complete(sid, stageIllustrate)

	// Stage 6: finalize
	s.advance(sid, stageFinalize, "Finishing up")
	for _, category := range ordered {
		for _, item := range categories[category] {
			if err := s.glossary.Record(ctx, item); err != nil {
				s.logger.Warn("PipelineService", "Glossary record failed", map[string]interface{}{
					"session_id": sid, "item": item.JapaneseName, "error": err.Error(),
				})
			}
		}
	}
	if err := s.persistStage(ctx, id, stageFinalize, func(session *entity.TranslationSession) {
		session.Status = entity.SessionStatusCompleted
	}); err != nil {
		return err
	}
	s.complete(sid, stageFinalize)

	return nil
}

// translateCategory consults the glossary before the model: dishes seen in
// earlier sessions keep their stored translation and are excluded from the
// model call.
func (s *pipelineService) translateCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	out := make([]progress.MenuItem, 0, len(items))
	var unknown []progress.MenuItem

	for _, item := range items {
		entry, err := s.glossary.Lookup(ctx, item.JapaneseName)
		if err == nil && entry != nil && entry.EnglishName != "" {
			out = append(out, progress.MenuItem{
				Key:          item.Key,
				JapaneseName: item.JapaneseName,
				EnglishName:  entry.EnglishName,
			})
			continue
		}
		unknown = append(unknown, item)
	}

	if len(unknown) > 0 {
		translated, err := s.engine.TranslateCategory(ctx, category, unknown)
		if err != nil {
			return nil, err
		}
		out = append(out, translated...)
	}
	return out, nil
}

func (s *pipelineService) enrichCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	out := make([]progress.MenuItem, 0, len(items))
	var unknown []progress.MenuItem

	for _, item := range items {
		entry, err := s.glossary.Lookup(ctx, item.JapaneseName)
		if err == nil && entry != nil && entry.Description != "" {
			out = append(out, progress.MenuItem{
				Key:          item.Key,
				JapaneseName: item.JapaneseName,
				Description:  entry.Description,
			})
			continue
		}
		unknown = append(unknown, item)
	}

	if len(unknown) > 0 {
		enriched, err := s.engine.EnrichCategory(ctx, category, unknown)
		if err != nil {
			return nil, err
		}
		out = append(out, enriched...)
	}
	return out, nil
}

// illustrateCategory is best-effort: a missing image never fails the session.
func (s *pipelineService) illustrateCategory(ctx context.Context, sid string, items []progress.MenuItem) []progress.MenuItem {
	var out []progress.MenuItem
	for _, item := range items {
		url, err := s.engine.IllustrateItem(ctx, item)
		if err != nil {
			s.logger.Warn("PipelineService", "Illustration failed", map[string]interface{}{
				"session_id": sid, "item": item.JapaneseName, "error": err.Error(),
			})
			continue
		}
		if url == "" {
			continue
		}
		out = append(out, progress.MenuItem{
			Key:          item.Key,
			JapaneseName: item.JapaneseName,
			ImageURL:     url,
		})
	}
	return out
}

func (s *pipelineService) seedCategories(ctx context.Context, id uuid.UUID, sid string, categories map[string][]progress.MenuItem) error {
	s.publish(progress.Event{
		Kind:       progress.EventCategoryExtracted,
		SessionID:  sid,
		Categories: categories,
		At:         time.Now(),
	})

	uow := s.uowFactory.NewUnitOfWork(ctx)
	for _, category := range sortedCategories(categories) {
		record := progress.CategoryRecord{
			Items:     categories[category],
			UpdatedAt: time.Now(),
		}
		if err := uow.TranslationSessionRepository().UpsertCategory(ctx, id, category, record); err != nil {
			return fmt.Errorf("seed category %q: %w", category, err)
		}
	}
	return nil
}

// emitChunks publishes stage results in bounded chunks and persists the
// category's running snapshot after each one. The store write happens before
// the event, so by the time a consumer reconciles against the store the store
// is at least as fresh as the stream.
func (s *pipelineService) emitChunks(ctx context.Context, id uuid.UUID, sid, category string, items []progress.MenuItem, stage progress.ChunkStage, snapshot []progress.MenuItem) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	for start := 0; start < len(items); start += translateChunkSize {
		end := start + translateChunkSize
		if end > len(items) {
			end = len(items)
		}

		record := progress.CategoryRecord{
			Items:     snapshot,
			UpdatedAt: time.Now(),
		}
		if err := uow.TranslationSessionRepository().UpsertCategory(ctx, id, category, record); err != nil {
			return fmt.Errorf("persist category %q: %w", category, err)
		}

		s.publish(progress.Event{
			Kind:       progress.EventCategoryChunk,
			SessionID:  sid,
			Category:   category,
			Items:      items[start:end],
			ChunkStage: stage,
			At:         time.Now(),
		})
	}
	return nil
}

func (s *pipelineService) completeCategory(ctx context.Context, id uuid.UUID, sid, category string, items []progress.MenuItem) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	record := progress.CategoryRecord{
		Items:     items,
		Completed: true,
		UpdatedAt: time.Now(),
	}
	if err := uow.TranslationSessionRepository().UpsertCategory(ctx, id, category, record); err != nil {
		return fmt.Errorf("complete category %q: %w", category, err)
	}

	s.publish(progress.Event{
		Kind:      progress.EventCategoryCompleted,
		SessionID: sid,
		Category:  category,
		At:        time.Now(),
	})
	return nil
}

func (s *pipelineService) fail(ctx context.Context, id uuid.UUID, sid string, cause error) {
	if err := s.persistStage(ctx, id, 0, func(session *entity.TranslationSession) {
		session.Status = entity.SessionStatusFailed
		session.FailReason = cause.Error()
	}); err != nil {
		s.logger.Error("PipelineService", "Failed to persist failure state", map[string]interface{}{
			"session_id": sid, "error": err.Error(),
		})
	}

	s.publish(progress.Event{
		Kind:      progress.EventSessionFailed,
		SessionID: sid,
		Reason:    cause.Error(),
		At:        time.Now(),
	})
	s.publishTerminal(ctx, "SESSION_FAILED", sid, map[string]interface{}{"reason": cause.Error()})
}

// persistStage re-reads the row and applies the mutation, so concurrent
// category upserts are not clobbered. A zero stage leaves the stage untouched.
func (s *pipelineService) persistStage(ctx context.Context, id uuid.UUID, stage int, mutate func(*entity.TranslationSession)) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.TranslationSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %s disappeared mid-pipeline", id)
	}

	if stage > 0 {
		session.Stage = stage
	}
	if mutate != nil {
		mutate(session)
	}
	now := time.Now()
	session.UpdatedAt = &now

	return uow.TranslationSessionRepository().Update(ctx, session)
}

func (s *pipelineService) advance(sid string, stage int, message string) {
	s.publish(progress.Event{
		Kind:      progress.EventStageAdvance,
		SessionID: sid,
		Stage:     stage,
		Message:   message,
		At:        time.Now(),
	})
}

func (s *pipelineService) complete(sid string, stage int) {
	s.publish(progress.Event{
		Kind:      progress.EventStageComplete,
		SessionID: sid,
		Stage:     stage,
		At:        time.Now(),
	})
}

func (s *pipelineService) publish(ev progress.Event) {
	if err := s.bus.Publish(ev); err != nil {
		s.logger.Error("PipelineService", "Event publish failed", map[string]interface{}{
			"session_id": ev.SessionID, "kind": string(ev.Kind), "error": err.Error(),
		})
	}
}

func (s *pipelineService) publishTerminal(ctx context.Context, eventType, sid string, extra map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	data := map[string]interface{}{"session_id": sid}
	for k, v := range extra {
		data[k] = v
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("PipelineService", "Terminal event publish failed", map[string]interface{}{
			"session_id": sid, "type": eventType, "error": err.Error(),
		})
	}
}

func sortedCategories(categories map[string][]progress.MenuItem) []string {
	out := make([]string, 0, len(categories))
	for category := range categories {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// mergeItems folds partial stage output back into the category's running
// snapshot, matching by stable key. Unmatched partials are appended.
func mergeItems(base, partial []progress.MenuItem) []progress.MenuItem {
	index := make(map[string]int, len(base))
	for i, item := range base {
		index[item.StableKey()] = i
	}

	out := append([]progress.MenuItem(nil), base...)
	for _, p := range partial {
		i, ok := index[p.StableKey()]
		if !ok {
			out = append(out, p)
			continue
		}
		if p.EnglishName != "" {
			out[i].EnglishName = p.EnglishName
		}
		if p.Description != "" {
			out[i].Description = p.Description
		}
		if p.Price != "" {
			out[i].Price = p.Price
		}
		if p.ImageURL != "" {
			out[i].ImageURL = p.ImageURL
		}
	}
	return out
}
