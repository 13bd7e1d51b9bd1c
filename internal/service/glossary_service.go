package service

import (
	"context"
	"time"

	"menu-lens-be/internal/dto"
	"menu-lens-be/internal/entity"
	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/unitofwork"
	"menu-lens-be/pkg/embedding"

	"github.com/google/uuid"
)

const (
	glossarySearchLimit    = 10
	glossaryReuseThreshold = 0.92
)

// IGlossaryService is the dish glossary: translations and descriptions the
// pipeline has already produced, reusable across sessions so the same dish is
// not sent to the model twice.
type IGlossaryService interface {
	// Lookup returns the stored entry for an exact Japanese name, nil if unseen.
	Lookup(ctx context.Context, japaneseName string) (*entity.DishEntry, error)
	// Record stores a fully enriched item for future reuse.
	Record(ctx context.Context, item progress.MenuItem) error
	Search(ctx context.Context, req *dto.GlossarySearchRequest) ([]*dto.GlossaryEntryResponse, error)
}

type glossaryService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	logger            logger.ILogger
}

func NewGlossaryService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	log logger.ILogger,
) IGlossaryService {
	return &glossaryService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *glossaryService) Lookup(ctx context.Context, japaneseName string) (*entity.DishEntry, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DishEntryRepository().FindByJapaneseName(ctx, japaneseName)
}

func (s *glossaryService) Record(ctx context.Context, item progress.MenuItem) error {
	if item.JapaneseName == "" || item.EnglishName == "" {
		return nil
	}

	var vec []float32
	if s.embeddingProvider != nil {
		v, err := s.embeddingProvider.Generate(item.JapaneseName+" "+item.EnglishName, "RETRIEVAL_DOCUMENT")
		if err != nil {
			// Entry is still worth keeping for exact-name lookups.
			s.logger.Warn("GlossaryService", "Embedding generation failed, storing without vector", map[string]interface{}{
				"japanese_name": item.JapaneseName, "error": err.Error(),
			})
		} else {
			vec = v
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DishEntryRepository().Upsert(ctx, &entity.DishEntry{
		Id:           uuid.New(),
		JapaneseName: item.JapaneseName,
		EnglishName:  item.EnglishName,
		Description:  item.Description,
		Embedding:    vec,
		CreatedAt:    time.Now(),
	})
}

func (s *glossaryService) Search(ctx context.Context, req *dto.GlossarySearchRequest) ([]*dto.GlossaryEntryResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = glossarySearchLimit
	}

	vec, err := s.embeddingProvider.Generate(req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DishEntryRepository().SearchSimilar(ctx, vec, limit, 0)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GlossaryEntryResponse, 0, len(scored))
	for _, hit := range scored {
		sim := hit.Similarity
		res = append(res, &dto.GlossaryEntryResponse{
			JapaneseName: hit.Entry.JapaneseName,
			EnglishName:  hit.Entry.EnglishName,
			Description:  hit.Entry.Description,
			Similarity:   &sim,
		})
	}
	return res, nil
}
