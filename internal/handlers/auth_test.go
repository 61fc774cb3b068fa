package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	t.Run("successful login returns token", func(t *testing.T) {
		gate := &MockLoginGate{
			AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
				assert.Equal(t, "alice", login)
				assert.Equal(t, "dev1", device)
				assert.Equal(t, "1.2.3.4", ip)
				return "signed-token", nil
			},
		}
		handler := NewAuthHandler(gate, nil)

		req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{
			Login:     "alice",
			Password:  "correct-horse-1",
			Device:    "dev1",
			IPAddress: "1.2.3.4",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		var resp LoginResponse
		AssertJSONResponse(t, w, http.StatusCreated, &resp)
		assert.Equal(t, "signed-token", resp.Token)
	})

	t.Run("client-supplied login timestamp is passed through", func(t *testing.T) {
		want := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
		gate := &MockLoginGate{
			AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
				assert.True(t, at.Equal(want))
				return "signed-token", nil
			},
		}
		handler := NewAuthHandler(gate, nil)

		req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{
			Login:       "alice",
			Password:    "correct-horse-1",
			Device:      "dev1",
			IPAddress:   "1.2.3.4",
			DateOfLogin: "2026-08-01T12:30:00Z",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("blocked and invalid credentials are indistinguishable", func(t *testing.T) {
		for name, gateErr := range map[string]error{
			"blocked":             models.ErrBlocked,
			"invalid credentials": models.ErrInvalidCredentials,
		} {
			t.Run(name, func(t *testing.T) {
				gate := &MockLoginGate{
					AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
						return "", gateErr
					},
				}
				handler := NewAuthHandler(gate, nil)

				req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{
					Login:    "alice",
					Password: "wrong",
					Device:   "dev1",
				})
				w := httptest.NewRecorder()
				handler.Login(w, req)

				AssertErrorResponse(t, w, http.StatusBadRequest, "invalid_credentials")
			})
		}
	})

	t.Run("store unavailable maps to 500", func(t *testing.T) {
		gate := &MockLoginGate{
			AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
				return "", models.ErrStoreUnavailable
			},
		}
		handler := NewAuthHandler(gate, nil)

		req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{
			Login:    "alice",
			Password: "pw",
			Device:   "dev1",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
	})

	t.Run("missing fields rejected before the gate runs", func(t *testing.T) {
		called := false
		gate := &MockLoginGate{
			AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
				called = true
				return "", nil
			},
		}
		handler := NewAuthHandler(gate, nil)

		req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{Login: "alice"})
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})

	t.Run("invalid request body", func(t *testing.T) {
		handler := NewAuthHandler(&MockLoginGate{}, nil)

		req := httptest.NewRequest("POST", "/managers/logins", nil)
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ip falls back to remote address", func(t *testing.T) {
		gate := &MockLoginGate{
			AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
				assert.Equal(t, "10.0.0.9", ip)
				return "signed-token", nil
			},
		}
		handler := NewAuthHandler(gate, nil)

		req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{
			Login:    "alice",
			Password: "pw",
			Device:   "dev1",
		})
		req.RemoteAddr = "10.0.0.9:51234"
		w := httptest.NewRecorder()
		handler.Login(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("device falls back to user-agent fingerprint", func(t *testing.T) {
		var gotDevice string
		gate := &MockLoginGate{
			AttemptLoginFunc: func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
				gotDevice = device
				return "signed-token", nil
			},
		}
		handler := NewAuthHandler(gate, nil)

		req := NewTestRequest(t, "POST", "/managers/logins", LoginRequest{
			Login:    "alice",
			Password: "pw",
		})
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		w := httptest.NewRecorder()
		handler.Login(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, gotDevice)
		assert.NotEqual(t, "unknown", gotDevice)
	})
}

func TestDeviceFingerprint(t *testing.T) {
	assert.Equal(t, "unknown", deviceFingerprint(""))
	assert.Equal(t, "unknown", deviceFingerprint("-"))

	fp := deviceFingerprint("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, fp, "Chrome")
}
