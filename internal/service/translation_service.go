package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"menu-lens-be/internal/dto"
	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/pkg/mailer"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/memory"
	"menu-lens-be/internal/repository/specification"
	"menu-lens-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITranslationService interface {
	Create(ctx context.Context, image []byte, mimeType, imagePath string) (*dto.CreateSessionResponse, error)
	Progress(ctx context.Context, sessionID string) (*dto.SessionProgressResponse, error)
	MenuView(ctx context.Context, sessionID, fidelity string) (*dto.MenuViewResponse, error)
	ItemStatus(ctx context.Context, sessionID, category, key string) (*dto.ItemStatusResponse, error)
	EntrySource(ctx context.Context, sessionID, key string) (*dto.EntrySourceResponse, error)
	List(ctx context.Context, query *dto.ListSessionsRequest) ([]*dto.SessionSummary, error)
	Delete(ctx context.Context, sessionID string) error
	Share(ctx context.Context, req *dto.ShareMenuRequest) error
}

type translationService struct {
	uowFactory unitofwork.RepositoryFactory
	source     progress.EventSource
	store      progress.SessionStore
	registry   *memory.CoordinatorRegistry
	pipeline   IPipelineService
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewTranslationService(
	uowFactory unitofwork.RepositoryFactory,
	source progress.EventSource,
	store progress.SessionStore,
	registry *memory.CoordinatorRegistry,
	pipeline IPipelineService,
	email mailer.IEmailService,
	log logger.ILogger,
) ITranslationService {
	return &translationService{
		uowFactory: uowFactory,
		source:     source,
		store:      store,
		registry:   registry,
		pipeline:   pipeline,
		mailer:     email,
		logger:     log,
	}
}

// Create persists the new session, spins up its coordinator and starts the
// pipeline in the background. The response returns immediately; progress is
// consumed over the websocket or the progress endpoint.
func (s *translationService) Create(ctx context.Context, image []byte, mimeType, imagePath string) (*dto.CreateSessionResponse, error) {
	id := uuid.New()
	now := time.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := &entity.TranslationSession{
		Id:         id,
		Status:     entity.SessionStatusUploading,
		ImagePath:  imagePath,
		Categories: map[string]progress.CategoryRecord{},
		CreatedAt:  now,
	}
	if err := uow.TranslationSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	coord := progress.NewCoordinator(s.source, s.store, s.logger)
	coord.OnCompleted(func(sessionID string, streamOnly bool) {
		if streamOnly {
			s.markStreamOnly(sessionID)
		}
	})
	if err := coord.StartSession(id.String()); err != nil {
		return nil, err
	}
	s.registry.Save(id.String(), coord)

	// The request context dies with the response; the pipeline gets its own.
	go s.pipeline.Run(context.Background(), id, image, mimeType)

	return &dto.CreateSessionResponse{
		SessionId: id,
		Status:    entity.SessionStatusUploading,
	}, nil
}

func (s *translationService) Progress(ctx context.Context, sessionID string) (*dto.SessionProgressResponse, error) {
	if coord, ok := s.liveCoordinator(sessionID); ok {
		return s.progressFromCoordinator(coord), nil
	}
	return s.progressFromStore(ctx, sessionID)
}

func (s *translationService) progressFromCoordinator(coord *progress.Coordinator) *dto.SessionProgressResponse {
	overall, determinate := coord.OverallProgress()

	var stages []dto.StageProgress
	for _, rec := range coord.CurrentStageSnapshot() {
		stages = append(stages, dto.StageProgress{
			Ordinal: rec.Ordinal,
			Name:    rec.Name,
			Status:  string(rec.Status),
			Message: rec.Message,
		})
	}

	view := coord.MenuView(progress.FidelityFinal)
	categories := make([]dto.CategoryProgress, 0, len(view))
	for _, category := range sortedKeys(view) {
		cp := coord.CategoryProgress(category)
		categories = append(categories, dto.CategoryProgress{
			Category:   cp.Category,
			ItemCount:  cp.Items,
			Completed:  cp.Completed,
			Processing: cp.Processing,
		})
	}

	return &dto.SessionProgressResponse{
		SessionId:   coord.SessionID(),
		State:       string(coord.State()),
		Stages:      stages,
		Overall:     overall,
		Determinate: determinate,
		StreamOnly:  coord.StreamOnly(),
		Categories:  categories,
	}
}

// progressFromStore reconstructs a progress view from the durable row alone,
// for sessions whose coordinator has been evicted (server restart, idle
// expiry).
func (s *translationService) progressFromStore(ctx context.Context, sessionID string) (*dto.SessionProgressResponse, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stages := make([]dto.StageProgress, 0, progress.StageCount)
	for ordinal := 1; ordinal <= progress.StageCount; ordinal++ {
		status := progress.StagePending
		switch {
		case session.Status == entity.SessionStatusCompleted:
			status = progress.StageCompleted
		case ordinal < session.Stage:
			status = progress.StageCompleted
		case ordinal == session.Stage && session.Status == entity.SessionStatusProcessing:
			status = progress.StageActive
		}
		stages = append(stages, dto.StageProgress{
			Ordinal: ordinal,
			Name:    progress.StageName(ordinal),
			Status:  string(status),
		})
	}

	overall := 0.0
	if session.Status == entity.SessionStatusCompleted {
		overall = 1.0
	} else if session.Stage > 1 {
		overall = float64(session.Stage-1) / progress.StageCount
	}

	categories := make([]dto.CategoryProgress, 0, len(session.Categories))
	for _, category := range sortedRecordKeys(session.Categories) {
		rec := session.Categories[category]
		categories = append(categories, dto.CategoryProgress{
			Category:  category,
			ItemCount: len(rec.Items),
			Completed: rec.Completed,
		})
	}

	return &dto.SessionProgressResponse{
		SessionId:   sessionID,
		State:       session.Status,
		Stages:      stages,
		Overall:     overall,
		Determinate: true,
		StreamOnly:  session.StreamOnly,
		Categories:  categories,
	}, nil
}

func (s *translationService) MenuView(ctx context.Context, sessionID, fidelity string) (*dto.MenuViewResponse, error) {
	f, err := parseFidelity(fidelity)
	if err != nil {
		return nil, err
	}

	var view map[string][]progress.MenuItem
	if coord, ok := s.liveCoordinator(sessionID); ok {
		view = coord.MenuView(f)
	} else {
		session, err := s.findSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		view = make(map[string][]progress.MenuItem, len(session.Categories))
		for category, rec := range session.Categories {
			items := make([]progress.MenuItem, len(rec.Items))
			copy(items, rec.Items)
			view[category] = items
		}
	}

	categories := make([]dto.MenuCategory, 0, len(view))
	for _, category := range sortedKeys(view) {
		categories = append(categories, dto.MenuCategory{
			Category: category,
			Items:    view[category],
		})
	}

	return &dto.MenuViewResponse{
		SessionId:  sessionID,
		Fidelity:   string(f),
		Categories: categories,
	}, nil
}

// ItemStatus resolves the item by stable key; when the caller does not name
// the category, every category is scanned.
func (s *translationService) ItemStatus(ctx context.Context, sessionID, category, key string) (*dto.ItemStatusResponse, error) {
	coord, ok := s.liveCoordinator(sessionID)
	if !ok {
		return nil, progress.ErrSessionNotFound
	}

	candidates := []string{category}
	if category == "" {
		candidates = sortedKeys(coord.MenuView(progress.FidelityRaw))
	}

	for _, cat := range candidates {
		if status, found := coord.ItemStatus(cat, key); found {
			return &dto.ItemStatusResponse{
				Key:                   key,
				IsTranslated:          status.IsTranslated,
				IsComplete:            status.IsComplete,
				IsPartiallyComplete:   status.IsPartiallyComplete,
				IsCurrentlyProcessing: status.IsCurrentlyProcessing,
			}, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("item %q not found in session", key))
}

func (s *translationService) EntrySource(ctx context.Context, sessionID, key string) (*dto.EntrySourceResponse, error) {
	coord, ok := s.liveCoordinator(sessionID)
	if !ok {
		return nil, progress.ErrSessionNotFound
	}

	source, found := coord.DataSourceOf(key)
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no tracked entry for key %q", key))
	}

	return &dto.EntrySourceResponse{
		Key:    key,
		Source: string(source),
		Live:   coord.IsDataSourceLive(key),
	}, nil
}

func (s *translationService) List(ctx context.Context, query *dto.ListSessionsRequest) ([]*dto.SessionSummary, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.TranslationSessionRepository().FindAll(ctx, listSpecs(query)...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, &dto.SessionSummary{
			SessionId:  session.Id,
			Status:     session.Status,
			Stage:      session.Stage,
			StreamOnly: session.StreamOnly,
			FailReason: session.FailReason,
			CreatedAt:  session.CreatedAt,
			UpdatedAt:  session.UpdatedAt,
		})
	}
	return out, nil
}

func listSpecs(query *dto.ListSessionsRequest) []specification.Specification {
	specs := []specification.Specification{specification.RecentFirst()}
	if query == nil {
		return specs
	}
	if query.Status != "" {
		specs = append(specs, specification.SessionByStatus{Status: query.Status})
	}
	if query.Limit > 0 {
		specs = append(specs, specification.Pagination{Limit: query.Limit, Offset: query.Offset})
	}
	return specs
}

// Delete aborts a live coordinator if one exists, then removes the durable
// row. Deleting an unknown session returns ErrSessionNotFound.
func (s *translationService) Delete(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return progress.ErrSessionNotFound
	}

	if coord, ok := s.registry.Get(sessionID); ok {
		coord.Abort()
		coord.Reset()
		s.registry.Delete(sessionID)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.TranslationSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if session == nil {
		return progress.ErrSessionNotFound
	}
	return uow.TranslationSessionRepository().Delete(ctx, id)
}

// Share emails the final menu to the given address.
func (s *translationService) Share(ctx context.Context, req *dto.ShareMenuRequest) error {
	view, err := s.MenuView(ctx, req.SessionId, string(progress.FidelityFinal))
	if err != nil {
		return err
	}
	if len(view.Categories) == 0 {
		return fiber.NewError(fiber.StatusConflict, "session has no menu to share yet")
	}

	body := renderMenuHTML(view)
	if err := s.mailer.SendMenuExport(req.Email, "Your translated menu", body); err != nil {
		s.logger.Error("TranslationService", "Menu export failed", map[string]interface{}{
			"session_id": req.SessionId, "error": err.Error(),
		})
		return err
	}
	return nil
}

func (s *translationService) liveCoordinator(sessionID string) (*progress.Coordinator, bool) {
	coord, ok := s.registry.Get(sessionID)
	if !ok || coord.State() == progress.StateIdle {
		return nil, false
	}
	return coord, true
}

// markStreamOnly records a stream-only completion on the durable row, so
// reads that outlive the coordinator still report the degraded
// reconciliation. The store was unreachable moments ago; best-effort.
func (s *translationService) markStreamOnly(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn("TranslationService", "Could not record stream-only completion", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
		return
	}
	session.StreamOnly = true
	now := time.Now()
	session.UpdatedAt = &now

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TranslationSessionRepository().Update(ctx, session); err != nil {
		s.logger.Warn("TranslationService", "Could not record stream-only completion", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
	}
}

func (s *translationService) findSession(ctx context.Context, sessionID string) (*entity.TranslationSession, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, progress.ErrSessionNotFound
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.TranslationSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, progress.ErrSessionNotFound
	}
	return session, nil
}

// renderMenuHTML builds the export email body. Every interpolated string is
// model output, so it all goes through EscapeString.
func renderMenuHTML(view *dto.MenuViewResponse) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	b.WriteString("<h2>Your translated menu</h2>")
	for _, category := range view.Categories {
		b.WriteString(fmt.Sprintf("<h3>%s</h3><ul>", html.EscapeString(category.Category)))
		for _, item := range category.Items {
			b.WriteString("<li><strong>")
			b.WriteString(html.EscapeString(item.EnglishName))
			b.WriteString("</strong> (")
			b.WriteString(html.EscapeString(item.JapaneseName))
			b.WriteString(")")
			if item.Price != "" {
				b.WriteString(" - " + html.EscapeString(item.Price))
			}
			if item.Description != "" {
				b.WriteString("<br/>" + html.EscapeString(item.Description))
			}
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</div>")
	return b.String()
}

func parseFidelity(raw string) (progress.Fidelity, error) {
	switch raw {
	case "", string(progress.FidelityFinal):
		return progress.FidelityFinal, nil
	case string(progress.FidelityRaw):
		return progress.FidelityRaw, nil
	case string(progress.FidelityTranslated):
		return progress.FidelityTranslated, nil
	default:
		return "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown fidelity %q", raw))
	}
}

func sortedKeys(m map[string][]progress.MenuItem) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRecordKeys(m map[string]progress.CategoryRecord) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
