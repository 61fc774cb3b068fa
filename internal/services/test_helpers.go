package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ghakobyan/contactdesk/internal/metrics"
	"github.com/ghakobyan/contactdesk/internal/models"
	pkglogger "github.com/ghakobyan/contactdesk/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// MockManagerRepository implements ManagerRepository for testing
type MockManagerRepository struct {
	GetByLoginFunc func(ctx context.Context, login string) (*models.Manager, error)
	ListFunc       func(ctx context.Context) ([]*models.Manager, error)
}

func (m *MockManagerRepository) GetByLogin(ctx context.Context, login string) (*models.Manager, error) {
	if m.GetByLoginFunc != nil {
		return m.GetByLoginFunc(ctx, login)
	}
	return nil, models.ErrNotFound
}

func (m *MockManagerRepository) List(ctx context.Context) ([]*models.Manager, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Manager{}, nil
}

// MockAttemptLedgerRepository implements AttemptLedgerRepository for testing
type MockAttemptLedgerRepository struct {
	GetFunc           func(ctx context.Context, ip, device string) (*models.LoginAttempt, error)
	TouchFunc         func(ctx context.Context, ip, device string, managerID *string, at time.Time) (*models.LoginAttempt, error)
	RecordFailureFunc func(ctx context.Context, ip, device string, at time.Time) (int, error)
	ResetFailuresFunc func(ctx context.Context, ip, device string, at time.Time) error
}

func (m *MockAttemptLedgerRepository) Get(ctx context.Context, ip, device string) (*models.LoginAttempt, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ip, device)
	}
	return nil, models.ErrNotFound
}

func (m *MockAttemptLedgerRepository) Touch(ctx context.Context, ip, device string, managerID *string, at time.Time) (*models.LoginAttempt, error) {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, ip, device, managerID, at)
	}
	return &models.LoginAttempt{IPAddress: ip, Device: device, ManagerID: managerID, AttemptedAt: at}, nil
}

func (m *MockAttemptLedgerRepository) RecordFailure(ctx context.Context, ip, device string, at time.Time) (int, error) {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, ip, device, at)
	}
	return 1, nil
}

func (m *MockAttemptLedgerRepository) ResetFailures(ctx context.Context, ip, device string, at time.Time) error {
	if m.ResetFailuresFunc != nil {
		return m.ResetFailuresFunc(ctx, ip, device, at)
	}
	return nil
}

// MockBlacklistRepository implements BlacklistRepository for testing
type MockBlacklistRepository struct {
	GetFunc func(ctx context.Context, ip string) (*models.BlacklistEntry, error)
	AddFunc func(ctx context.Context, ip string, at time.Time) error
}

func (m *MockBlacklistRepository) Get(ctx context.Context, ip string) (*models.BlacklistEntry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ip)
	}
	return nil, nil
}

func (m *MockBlacklistRepository) Add(ctx context.Context, ip string, at time.Time) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, ip, at)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(managerID string) (string, error)
}

func (m *MockTokenIssuer) Issue(managerID string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(managerID)
	}
	return "token-" + managerID, nil
}

// MockContactRepository implements ContactRepository for testing
type MockContactRepository struct {
	ListFunc        func(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	GetByPhoneFunc  func(ctx context.Context, phone string) (*models.Contact, error)
	CreateFunc      func(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	UpdateBatchFunc func(ctx context.Context, contacts []*models.Contact) error
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockContactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Contact{}, nil
}

func (m *MockContactRepository) GetByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone)
	}
	return nil, models.ErrNotFound
}

func (m *MockContactRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contact)
	}
	return contact, nil
}

func (m *MockContactRepository) UpdateBatch(ctx context.Context, contacts []*models.Contact) error {
	if m.UpdateBatchFunc != nil {
		return m.UpdateBatchFunc(ctx, contacts)
	}
	return nil
}

func (m *MockContactRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MemoryLedger is a mutex-guarded in-memory attempt ledger with the same
// atomicity guarantees the Postgres upserts provide. Used to exercise the
// gate's concurrent-failure behavior without a database.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]*models.LoginAttempt
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]*models.LoginAttempt)}
}

func ledgerKey(ip, device string) string {
	return ip + "|" + device
}

func (l *MemoryLedger) Get(ctx context.Context, ip, device string) (*models.LoginAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[ledgerKey(ip, device)]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (l *MemoryLedger) Touch(ctx context.Context, ip, device string, managerID *string, at time.Time) (*models.LoginAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(ip, device)
	record, ok := l.records[key]
	if !ok {
		record = &models.LoginAttempt{IPAddress: ip, Device: device}
		l.records[key] = record
	}
	record.AttemptedAt = at
	if managerID != nil {
		record.ManagerID = managerID
	}
	copied := *record
	return &copied, nil
}

func (l *MemoryLedger) RecordFailure(ctx context.Context, ip, device string, at time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(ip, device)
	record, ok := l.records[key]
	if !ok {
		record = &models.LoginAttempt{IPAddress: ip, Device: device}
		l.records[key] = record
	}
	record.FailureCount++
	record.AttemptedAt = at
	return record.FailureCount, nil
}

func (l *MemoryLedger) ResetFailures(ctx context.Context, ip, device string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if record, ok := l.records[ledgerKey(ip, device)]; ok {
		record.FailureCount = 0
		record.AttemptedAt = at
	}
	return nil
}

// MemoryBlacklist is a mutex-guarded in-memory blacklist with the same
// upsert semantics as the Postgres store: Add refreshes added_at. AddCalls
// counts every Add invocation so tests can assert trigger counts separately
// from set membership.
type MemoryBlacklist struct {
	mu       sync.Mutex
	entries  map[string]*models.BlacklistEntry
	AddCalls int
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]*models.BlacklistEntry)}
}

func (b *MemoryBlacklist) Get(ctx context.Context, ip string) (*models.BlacklistEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[ip]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (b *MemoryBlacklist) Add(ctx context.Context, ip string, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.AddCalls++
	b.entries[ip] = &models.BlacklistEntry{IPAddress: ip, AddedAt: at}
	return nil
}

func (b *MemoryBlacklist) Contains(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.entries[ip]
	return ok
}

// testMetrics returns gate metrics backed by a throwaway registry
func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// testAudit returns an audit logger writing through slog's default handler
func testAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(slog.Default())
}
