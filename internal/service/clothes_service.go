package service

import (
	"context"
	"fmt"

	"bhesbhusa/internal/model"
	"bhesbhusa/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var errClothesNotFound = model.NewDomainError(model.KindNotFound, model.ErrCodeClothesNotFound, "Clothing item not found")

type clothesService struct {
	repo   repository.ClothesRepository
	logger zerolog.Logger
}

// NewClothesService creates a new catalog service.
func NewClothesService(repo repository.ClothesRepository, logger zerolog.Logger) ClothesService {
	return &clothesService{
		repo:   repo,
		logger: logger.With().Str("service", "clothes").Logger(),
	}
}

func (s *clothesService) GetAll(ctx context.Context, limit, offset int) ([]model.Clothes, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	clothes, err := s.repo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list clothes")
		return nil, fmt.Errorf("failed to list clothes: %w", err)
	}
	return clothes, nil
}

func (s *clothesService) GetByID(ctx context.Context, id uuid.UUID) (*model.Clothes, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("cloth_id", id.String()).Msg("failed to get clothes")
		return nil, fmt.Errorf("failed to get clothes: %w", err)
	}
	if c == nil {
		return nil, errClothesNotFound
	}
	return c, nil
}
