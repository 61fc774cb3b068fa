package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ghakobyan/contactdesk/internal/models"
)

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	List(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	GetByPhone(ctx context.Context, phone string) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	UpdateBatch(ctx context.Context, contacts []*models.Contact) error
	Delete(ctx context.Context, id string) error
}

// ContactService handles contact-record business logic
type ContactService struct {
	repo   ContactRepository
	logger *slog.Logger
}

// NewContactService creates a new ContactService
func NewContactService(repo ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger,
	}
}

// ListContacts retrieves contact records with pagination
func (s *ContactService) ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	contacts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list contacts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return contacts, nil
}

// CreateContact stores a new contact record. Phone numbers are unique; a
// duplicate submission is a conflict, not a new record.
func (s *ContactService) CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	existing, err := s.repo.GetByPhone(ctx, contact.Phone)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing phone", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if existing != nil {
		s.logger.Info("contact submission rejected: phone already exists")
		return nil, models.ErrConflict
	}

	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		// The unique index can still fire under concurrent submissions
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create contact", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("contact created", slog.String("contact_id", created.ID))
	return created, nil
}

// UpdateContacts applies a bulk update; either every row updates or none do
func (s *ContactService) UpdateContacts(ctx context.Context, contacts []*models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	err := s.repo.UpdateBatch(ctx, contacts)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		if errors.Is(err, models.ErrConflict) {
			return models.ErrConflict
		}
		s.logger.Error("failed to update contacts", slog.Int("count", len(contacts)), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("contacts updated", slog.Int("count", len(contacts)))
	return nil
}

// DeleteContact removes a contact record by ID
func (s *ContactService) DeleteContact(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete contact", slog.String("contact_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("contact deleted", slog.String("contact_id", id))
	return nil
}
