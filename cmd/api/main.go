package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghakobyan/contactdesk/internal/auth"
	"github.com/ghakobyan/contactdesk/internal/background"
	"github.com/ghakobyan/contactdesk/internal/config"
	"github.com/ghakobyan/contactdesk/internal/database"
	"github.com/ghakobyan/contactdesk/internal/handlers"
	"github.com/ghakobyan/contactdesk/internal/metrics"
	middlewareCustom "github.com/ghakobyan/contactdesk/internal/middleware"
	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/ghakobyan/contactdesk/internal/repositories"
	"github.com/ghakobyan/contactdesk/internal/routes"
	"github.com/ghakobyan/contactdesk/internal/services"
	"github.com/ghakobyan/contactdesk/migrations"
	pkgauth "github.com/ghakobyan/contactdesk/pkg/auth"
	pkghttp "github.com/ghakobyan/contactdesk/pkg/http"
	pkglogger "github.com/ghakobyan/contactdesk/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := migrateDatabase(db); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	// Initialize repositories
	managerRepo := repositories.NewManagerRepository(db)
	ledgerRepo := repositories.NewAttemptLedgerRepository(db)
	blacklistRepo := repositories.NewBlacklistRepository(db)
	contactRepo := repositories.NewContactRepository(db)

	// Metrics registry
	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Login gate
	gatePolicy := services.GatePolicy{
		FailureThreshold:      cfg.Auth.FailureThreshold,
		BlacklistUnknownLogin: cfg.Auth.BlacklistUnknownLogin,
		BlacklistTTL:          cfg.Auth.BlacklistTTL,
	}
	loginGate := services.NewLoginGate(
		managerRepo,
		ledgerRepo,
		blacklistRepo,
		tokenManager,
		gatePolicy,
		appMetrics,
		logger,
		auditLogger,
	)

	// Initialize services
	contactService := services.NewContactService(contactRepo, logger)
	managerService := services.NewManagerService(managerRepo, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: trustedProxies()}
	authHandler := handlers.NewAuthHandler(loginGate, ipConfig)
	contactHandler := handlers.NewContactHandler(contactService)
	managerHandler := handlers.NewManagerHandler(managerService)

	// Bootstrap first manager account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureManager(ctx, managerRepo, logger); err != nil {
		logger.Error("failed to ensure manager account", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, contactHandler, managerHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Prometheus metrics
	router.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start blacklist sweeper
	sweeper := background.NewBlacklistSweeper(blacklistRepo, logger, cfg.Auth.BlacklistTTL, cfg.Auth.CleanupInterval)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()

	go sweeper.Start(sweeperCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweeperCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// migrateDatabase applies the embedded schema migrations through goose,
// reusing the pool's connection config via the pgx stdlib adapter.
func migrateDatabase(db *database.DB) error {
	sqlDB := stdlib.OpenDB(*db.Pool.Config().ConnConfig)
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return migrations.Up(ctx, sqlDB)
}

// trustedProxies parses the TRUSTED_PROXIES env var (comma-separated CIDR
// ranges). Forwarding headers are honored only from these addresses.
func trustedProxies() []string {
	raw := os.Getenv("TRUSTED_PROXIES")
	if raw == "" {
		return nil
	}

	ranges := strings.Split(raw, ",")
	for i, r := range ranges {
		ranges[i] = strings.TrimSpace(r)
	}
	return ranges
}

// ensureManager creates the first manager account if MANAGER_LOGIN and
// MANAGER_PASSWORD are set. Managers are otherwise provisioned out-of-band;
// there is no registration endpoint.
func ensureManager(ctx context.Context, managerRepo *repositories.ManagerRepository, logger *slog.Logger) error {
	login := os.Getenv("MANAGER_LOGIN")
	password := os.Getenv("MANAGER_PASSWORD")

	if login == "" || password == "" {
		logger.Info("no MANAGER_LOGIN or MANAGER_PASSWORD set, skipping manager bootstrap")
		return nil
	}

	_, err := managerRepo.GetByLogin(ctx, login)
	if err == nil {
		logger.Info("manager account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check for existing manager: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash manager password: %w", err)
	}

	manager := &models.Manager{
		Login:        login,
		PasswordHash: hashedPassword,
	}

	if _, err := managerRepo.Create(ctx, manager); err != nil {
		return fmt.Errorf("failed to create manager account: %w", err)
	}

	logger.Info("manager account created", slog.String("login", pkglogger.SanitizedLogin(login)))
	return nil
}
