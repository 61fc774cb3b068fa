package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghakobyan/contactdesk/internal/auth"
	"github.com/ghakobyan/contactdesk/internal/config"
	"github.com/ghakobyan/contactdesk/internal/database"
	"github.com/ghakobyan/contactdesk/internal/handlers"
	"github.com/ghakobyan/contactdesk/internal/metrics"
	middlewareCustom "github.com/ghakobyan/contactdesk/internal/middleware"
	"github.com/ghakobyan/contactdesk/internal/routes"
	"github.com/ghakobyan/contactdesk/internal/services"
	pkghttp "github.com/ghakobyan/contactdesk/pkg/http"
	pkglogger "github.com/ghakobyan/contactdesk/pkg/logger"
)

// TestServer wraps httptest.Server with the full application stack over a
// real database.
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Config *config.Config
	logger *slog.Logger
}

// NewTestServer initializes a complete HTTP server wired the way production is
func NewTestServer(db *database.DB) *TestServer {
	return NewTestServerWithPolicy(db, services.DefaultGatePolicy())
}

// NewTestServerWithPolicy builds the stack with a custom login-gate policy
func NewTestServerWithPolicy(db *database.DB, policy services.GatePolicy) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret-32-characters-long-for-testing",
			TokenExpiry:           1 * time.Hour,
			FailureThreshold:      policy.FailureThreshold,
			BlacklistUnknownLogin: policy.BlacklistUnknownLogin,
			BlacklistTTL:          policy.BlacklistTTL,
			CleanupInterval:       1 * time.Hour,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
	}

	managerRepo, ledgerRepo, blacklistRepo, contactRepo := InitializeRepositories(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)
	appMetrics := metrics.New(prometheus.NewRegistry())

	loginGate := services.NewLoginGate(
		managerRepo,
		ledgerRepo,
		blacklistRepo,
		tokenManager,
		policy,
		appMetrics,
		logger,
		auditLogger,
	)

	contactService := services.NewContactService(contactRepo, logger)
	managerService := services.NewManagerService(managerRepo, logger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: []string{"0.0.0.0/0"}}
	authHandler := handlers.NewAuthHandler(loginGate, ipConfig)
	contactHandler := handlers.NewContactHandler(contactService)
	managerHandler := handlers.NewManagerHandler(managerService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, authHandler, contactHandler, managerHandler, tokenManager)

	server := httptest.NewServer(r)

	return &TestServer{
		Server: server,
		DB:     db,
		Config: cfg,
		logger: logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a session token
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses a JSON response body into the target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractToken extracts the session token from a login response
func ExtractToken(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	var loginResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}

	token, _ := loginResp["token"].(string)
	return token, nil
}

// GetErrorMessage extracts the error message from an error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
