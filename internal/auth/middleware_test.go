package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedProbe(t *testing.T, captured **http.Request) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, 1*time.Hour)
	handler := Middleware(tm)(protectedProbe(t, nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/managers", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 1*time.Hour)
	handler := Middleware(tm)(protectedProbe(t, nil))

	req := httptest.NewRequest("GET", "/managers", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	expired := NewTokenManager(testSecret, -1*time.Minute)
	token, err := expired.Issue("manager-1")
	require.NoError(t, err)

	tm := NewTokenManager(testSecret, 1*time.Hour)
	handler := Middleware(tm)(protectedProbe(t, nil))

	req := httptest.NewRequest("GET", "/managers", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_ValidToken_BearerForm(t *testing.T) {
	tm := NewTokenManager(testSecret, 1*time.Hour)
	token, err := tm.Issue("manager-1")
	require.NoError(t, err)

	var captured *http.Request
	handler := Middleware(tm)(protectedProbe(t, &captured))

	req := httptest.NewRequest("GET", "/managers", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	claims := GetManagerFromContext(captured)
	require.NotNil(t, claims)
	assert.Equal(t, "manager-1", claims.ManagerID)
}

func TestMiddleware_ValidToken_RawHeader(t *testing.T) {
	// The original contact-form client sends the token without a scheme
	tm := NewTokenManager(testSecret, 1*time.Hour)
	token, err := tm.Issue("manager-1")
	require.NoError(t, err)

	var captured *http.Request
	handler := Middleware(tm)(protectedProbe(t, &captured))

	req := httptest.NewRequest("GET", "/managers", nil)
	req.Header.Set("Authorization", token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	claims := GetManagerFromContext(captured)
	require.NotNil(t, claims)
	assert.Equal(t, "manager-1", claims.ManagerID)
}

func TestGetManagerFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest("GET", "/managers", nil)
	assert.Nil(t, GetManagerFromContext(req))
}
