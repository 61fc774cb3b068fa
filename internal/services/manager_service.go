package services

import (
	"context"
	"log/slog"

	"github.com/ghakobyan/contactdesk/internal/models"
)

// ManagerService handles manager account business logic
type ManagerService struct {
	repo   ManagerRepository
	logger *slog.Logger
}

// NewManagerService creates a new ManagerService
func NewManagerService(repo ManagerRepository, logger *slog.Logger) *ManagerService {
	return &ManagerService{
		repo:   repo,
		logger: logger,
	}
}

// ListManagers returns all manager accounts
func (s *ManagerService) ListManagers(ctx context.Context) ([]*models.Manager, error) {
	managers, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list managers", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return managers, nil
}
