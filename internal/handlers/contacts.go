package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	pkghttp "github.com/ghakobyan/contactdesk/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ContactServiceInterface defines the interface for contact business logic
type ContactServiceInterface interface {
	ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	UpdateContacts(ctx context.Context, contacts []*models.Contact) error
	DeleteContact(ctx context.Context, id string) error
}

// ContactHandler handles contact-record HTTP requests
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// CreateContactRequest represents the public submission form
type CreateContactRequest struct {
	Name                 string `json:"name" validate:"required,min=1,max=200"`
	Phone                string `json:"phone" validate:"required,min=5,max=20"`
	DateOfSend           string `json:"date_of_send" validate:"omitempty"`
	InformationAboutUser string `json:"information_about_user" validate:"omitempty,max=2000"`
}

// UpdateContactRequest represents one row of a bulk contact update
type UpdateContactRequest struct {
	ID                   string `json:"id" validate:"required"`
	Name                 string `json:"name" validate:"required,min=1,max=200"`
	Phone                string `json:"phone" validate:"required,min=5,max=20"`
	DateOfSend           string `json:"date_of_send" validate:"omitempty"`
	InformationAboutUser string `json:"information_about_user" validate:"omitempty,max=2000"`
}

// ContactResponse represents a contact record on the wire
type ContactResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Phone                string `json:"phone"`
	DateOfSend           string `json:"date_of_send"`
	InformationAboutUser string `json:"information_about_user,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

func toContactResponse(c *models.Contact) ContactResponse {
	return ContactResponse{
		ID:                   c.ID,
		Name:                 c.Name,
		Phone:                c.Phone,
		DateOfSend:           c.SentAt.UTC().Format(time.RFC3339),
		InformationAboutUser: c.Notes,
		CreatedAt:            c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// List handles listing contact records with pagination
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			pkghttp.WriteBadRequest(w, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			pkghttp.WriteBadRequest(w, "offset must be non-negative")
			return
		}
		offset = parsed
	}

	contacts, err := h.service.ListContacts(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		resp = append(resp, toContactResponse(c))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Create handles a public contact-form submission
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	contact := &models.Contact{
		Name:   strings.TrimSpace(req.Name),
		Phone:  strings.TrimSpace(req.Phone),
		Notes:  strings.TrimSpace(req.InformationAboutUser),
		SentAt: time.Now().UTC(),
	}
	if req.DateOfSend != "" {
		parsed, err := time.Parse(time.RFC3339, req.DateOfSend)
		if err != nil {
			pkghttp.WriteBadRequest(w, "date_of_send must be RFC 3339")
			return
		}
		contact.SentAt = parsed.UTC()
	}

	created, err := h.service.CreateContact(r.Context(), contact)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "A contact with this phone number already exists")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toContactResponse(created))
}

// Update handles a bulk contact update; all rows update or none do
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	var reqs []UpdateContactRequest

	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	contacts := make([]*models.Contact, 0, len(reqs))
	for _, req := range reqs {
		if err := ValidateRequest(req); err != nil {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}

		contact := &models.Contact{
			ID:    req.ID,
			Name:  strings.TrimSpace(req.Name),
			Phone: strings.TrimSpace(req.Phone),
			Notes: strings.TrimSpace(req.InformationAboutUser),
		}
		if req.DateOfSend != "" {
			parsed, err := time.Parse(time.RFC3339, req.DateOfSend)
			if err != nil {
				pkghttp.WriteBadRequest(w, "date_of_send must be RFC 3339")
				return
			}
			contact.SentAt = parsed.UTC()
		}
		contacts = append(contacts, contact)
	}

	if err := h.service.UpdateContacts(r.Context(), contacts); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "One or more contacts do not exist")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Update would duplicate a phone number")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles removing a contact record
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Contact ID is required")
		return
	}

	if err := h.service.DeleteContact(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Contact not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
