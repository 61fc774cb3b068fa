package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ghakobyan/contactdesk/internal/database"
	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/ghakobyan/contactdesk/internal/repositories"
	"github.com/ghakobyan/contactdesk/migrations"
	"github.com/ghakobyan/contactdesk/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("contactdesk"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations applies the embedded goose migrations via the pgx stdlib adapter
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := migrations.Up(ctx, sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"login_attempts",
		"ip_blacklist",
		"contacts",
		"managers",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from the database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.ManagerRepository,
	*repositories.AttemptLedgerRepository,
	*repositories.BlacklistRepository,
	*repositories.ContactRepository,
) {
	return repositories.NewManagerRepository(db),
		repositories.NewAttemptLedgerRepository(db),
		repositories.NewBlacklistRepository(db),
		repositories.NewContactRepository(db)
}

// SeedManager inserts a manager account with a hashed password
func SeedManager(ctx context.Context, db *database.DB, login, password string) (*models.Manager, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	repo := repositories.NewManagerRepository(db)
	manager, err := repo.Create(ctx, &models.Manager{
		Login:        login,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert manager: %w", err)
	}

	return manager, nil
}

// SeedBlacklistedIP inserts an IP into the blacklist with the given added_at
func SeedBlacklistedIP(ctx context.Context, pool *pgxpool.Pool, ip string, addedAt time.Time) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO ip_blacklist (ip_address, added_at) VALUES ($1, $2)`,
		ip, addedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert blacklist entry: %w", err)
	}
	return nil
}

// GetFailureCount reads the ledger counter for a pair directly from the database
func GetFailureCount(ctx context.Context, pool *pgxpool.Pool, ip, device string) (int, error) {
	var count int
	err := pool.QueryRow(ctx,
		`SELECT failure_count FROM login_attempts WHERE ip_address = $1 AND device = $2`,
		ip, device,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetBlacklistAddedAt reads the added_at timestamp for a blacklisted IP
func GetBlacklistAddedAt(ctx context.Context, pool *pgxpool.Pool, ip string) (time.Time, error) {
	var addedAt time.Time
	err := pool.QueryRow(ctx,
		`SELECT added_at FROM ip_blacklist WHERE ip_address = $1`,
		ip,
	).Scan(&addedAt)
	return addedAt, err
}

// IsBlacklisted checks whether an IP is in the blacklist table
func IsBlacklisted(ctx context.Context, pool *pgxpool.Pool, ip string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ip_blacklist WHERE ip_address = $1)`,
		ip,
	).Scan(&exists)
	return exists, err
}
