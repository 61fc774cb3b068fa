package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	pkghttp "github.com/ghakobyan/contactdesk/pkg/http"
)

// ManagerServiceInterface defines the interface for manager business logic
type ManagerServiceInterface interface {
	ListManagers(ctx context.Context) ([]*models.Manager, error)
}

// ManagerHandler handles manager-account HTTP requests
type ManagerHandler struct {
	service ManagerServiceInterface
}

// NewManagerHandler creates a new ManagerHandler
func NewManagerHandler(service ManagerServiceInterface) *ManagerHandler {
	return &ManagerHandler{service: service}
}

// ManagerResponse represents a manager account on the wire. Password hashes
// never leave the service.
type ManagerResponse struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	CreatedAt string `json:"created_at"`
}

// List handles listing manager accounts
func (h *ManagerHandler) List(w http.ResponseWriter, r *http.Request) {
	managers, err := h.service.ListManagers(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]ManagerResponse, 0, len(managers))
	for _, m := range managers {
		resp = append(resp, ManagerResponse{
			ID:        m.ID,
			Login:     m.Login,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
