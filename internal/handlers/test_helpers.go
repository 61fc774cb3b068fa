package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	pkghttp "github.com/ghakobyan/contactdesk/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockLoginGate implements LoginGateInterface for testing
type MockLoginGate struct {
	AttemptLoginFunc func(ctx context.Context, login, password, device, ip string, at time.Time) (string, error)
}

func (m *MockLoginGate) AttemptLogin(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
	if m.AttemptLoginFunc == nil {
		return "", models.ErrInvalidCredentials
	}
	return m.AttemptLoginFunc(ctx, login, password, device, ip, at)
}

// MockContactService implements ContactServiceInterface for testing
type MockContactService struct {
	ListContactsFunc   func(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	CreateContactFunc  func(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	UpdateContactsFunc func(ctx context.Context, contacts []*models.Contact) error
	DeleteContactFunc  func(ctx context.Context, id string) error
}

func (m *MockContactService) ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	if m.ListContactsFunc == nil {
		return []*models.Contact{}, nil
	}
	return m.ListContactsFunc(ctx, limit, offset)
}

func (m *MockContactService) CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if m.CreateContactFunc == nil {
		return contact, nil
	}
	return m.CreateContactFunc(ctx, contact)
}

func (m *MockContactService) UpdateContacts(ctx context.Context, contacts []*models.Contact) error {
	if m.UpdateContactsFunc == nil {
		return nil
	}
	return m.UpdateContactsFunc(ctx, contacts)
}

func (m *MockContactService) DeleteContact(ctx context.Context, id string) error {
	if m.DeleteContactFunc == nil {
		return nil
	}
	return m.DeleteContactFunc(ctx, id)
}

// MockManagerService implements ManagerServiceInterface for testing
type MockManagerService struct {
	ListManagersFunc func(ctx context.Context) ([]*models.Manager, error)
}

func (m *MockManagerService) ListManagers(ctx context.Context) ([]*models.Manager, error) {
	if m.ListManagersFunc == nil {
		return []*models.Manager{}, nil
	}
	return m.ListManagersFunc(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing.
// Lets tests set URL parameters the router would normally extract from the
// path, e.g.:
//
//	req := httptest.NewRequest("DELETE", "/contacts/c1", nil)
//	req = WithChiRouteContext(req, map[string]string{"id": "c1"})
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
