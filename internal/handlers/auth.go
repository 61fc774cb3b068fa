package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	pkghttp "github.com/ghakobyan/contactdesk/pkg/http"
	"github.com/mssola/useragent"
)

// LoginGateInterface defines the interface for the login gate
type LoginGateInterface interface {
	AttemptLogin(ctx context.Context, login, password, device, ip string, at time.Time) (string, error)
}

// AuthHandler handles manager login requests
type AuthHandler struct {
	gate     LoginGateInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(gate LoginGateInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		gate:     gate,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for a manager login attempt.
// Device, IP address, and timestamp may be supplied by the client; when
// absent the server derives them from the request itself.
type LoginRequest struct {
	Login       string `json:"login" validate:"required,min=1,max=100"`
	Password    string `json:"password" validate:"required"`
	Device      string `json:"device" validate:"omitempty,max=255"`
	IPAddress   string `json:"ip_address" validate:"omitempty,ip"`
	DateOfLogin string `json:"date_of_login" validate:"omitempty"`
}

// LoginResponse carries the signed session token
type LoginResponse struct {
	Token string `json:"token"`
}

// Login handles a manager login attempt.
//
// Blocked IPs and bad credentials produce the same response on the wire so a
// caller cannot tell which defense rejected them.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Login = strings.TrimSpace(req.Login)

	ipAddress := req.IPAddress
	if ipAddress == "" {
		ipAddress = pkghttp.ExtractClientIP(r, h.ipConfig)
	}

	device := strings.TrimSpace(req.Device)
	if device == "" {
		device = deviceFingerprint(r.Header.Get("User-Agent"))
	}

	attemptedAt := time.Now().UTC()
	if req.DateOfLogin != "" {
		if parsed, err := time.Parse(time.RFC3339, req.DateOfLogin); err == nil {
			attemptedAt = parsed.UTC()
		}
	}

	token, err := h.gate.AttemptLogin(r.Context(), req.Login, req.Password, device, ipAddress, attemptedAt)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBlocked),
			errors.Is(err, models.ErrInvalidCredentials):
			// Deliberately identical for both rejections
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		case errors.Is(err, models.ErrStoreUnavailable):
			pkghttp.WriteInternalError(w, "Service temporarily unavailable")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LoginResponse{Token: token})
}

// deviceFingerprint derives a coarse device label from the User-Agent header
// so clients that omit the device field still get a stable ledger key.
func deviceFingerprint(uaHeader string) string {
	if uaHeader == "" {
		return "unknown"
	}

	ua := useragent.New(uaHeader)
	browser, _ := ua.Browser()
	os := ua.OS()

	switch {
	case browser != "" && os != "":
		return browser + "/" + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "unknown"
	}
}
