package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	pkgauth "github.com/ghakobyan/contactdesk/pkg/auth"
	pkglogger "github.com/ghakobyan/contactdesk/pkg/logger"
)

// ManagerRepository resolves manager identities by login name
type ManagerRepository interface {
	GetByLogin(ctx context.Context, login string) (*models.Manager, error)
	List(ctx context.Context) ([]*models.Manager, error)
}

// AttemptLedgerRepository persists per-(IP, device) failure history.
// RecordFailure must be atomic: two concurrent failures from the same pair
// must produce two distinct counter values.
type AttemptLedgerRepository interface {
	Get(ctx context.Context, ip, device string) (*models.LoginAttempt, error)
	Touch(ctx context.Context, ip, device string, managerID *string, at time.Time) (*models.LoginAttempt, error)
	RecordFailure(ctx context.Context, ip, device string, at time.Time) (int, error)
	ResetFailures(ctx context.Context, ip, device string, at time.Time) error
}

// BlacklistRepository persists the set of barred source IPs. Add upserts:
// re-adding an IP refreshes its added_at so a fresh trigger always produces
// a live entry even when an expired one is still sitting in the store.
type BlacklistRepository interface {
	Get(ctx context.Context, ip string) (*models.BlacklistEntry, error)
	Add(ctx context.Context, ip string, at time.Time) error
}

// TokenIssuer signs session tokens for authenticated managers
type TokenIssuer interface {
	Issue(managerID string) (string, error)
}

// GateMetrics records login-gate observability counters
type GateMetrics interface {
	ObserveLoginOutcome(outcome string)
	ObserveBlacklistAddition(trigger string)
	ObserveFailureCount(count int)
}

// GatePolicy holds the tunable parts of the login-gate state machine.
type GatePolicy struct {
	// FailureThreshold is the consecutive-failure count per (IP, device)
	// pair at which the source IP is blacklisted.
	FailureThreshold int
	// BlacklistUnknownLogin blacklists the source IP when the login name
	// resolves to no manager. This deliberately punishes typos to shut
	// down login enumeration; it is policy, not an accident.
	BlacklistUnknownLogin bool
	// BlacklistTTL makes entries expire. Zero means permanent.
	BlacklistTTL time.Duration
}

// DefaultGatePolicy matches the original system: three strikes per pair,
// unknown logins blacklist immediately, entries never expire.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		FailureThreshold:      3,
		BlacklistUnknownLogin: true,
		BlacklistTTL:          0,
	}
}

// LoginGate decides whether a login attempt succeeds. It consults the
// blacklist first, then resolves the identity, then walks the attempt
// ledger. All repository failures surface as ErrStoreUnavailable; callers
// never see storage internals.
type LoginGate struct {
	managers  ManagerRepository
	ledger    AttemptLedgerRepository
	blacklist BlacklistRepository
	tokens    TokenIssuer
	policy    GatePolicy
	metrics   GateMetrics
	logger    *slog.Logger
	audit     *pkglogger.AuditLogger
}

// NewLoginGate creates a new LoginGate
func NewLoginGate(
	managers ManagerRepository,
	ledger AttemptLedgerRepository,
	blacklist BlacklistRepository,
	tokens TokenIssuer,
	policy GatePolicy,
	metrics GateMetrics,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *LoginGate {
	return &LoginGate{
		managers:  managers,
		ledger:    ledger,
		blacklist: blacklist,
		tokens:    tokens,
		policy:    policy,
		metrics:   metrics,
		logger:    logger,
		audit:     audit,
	}
}

// AttemptLogin runs the full gate for one login attempt and returns a signed
// session token on success.
//
// Ordering matters: the blacklist check runs before any credential or ledger
// work so blocked IPs learn nothing and cost nothing, and blacklist
// additions run after the ledger write that justifies them, so a failed
// ledger write never leaves a blacklist-only mutation behind.
func (g *LoginGate) AttemptLogin(ctx context.Context, login, password, device, ip string, at time.Time) (string, error) {
	login = strings.TrimSpace(login)

	// 1. Blacklist check. An expired entry counts as absent; the sweeper
	// removes it eventually but the gate must not depend on that.
	entry, err := g.blacklist.Get(ctx, ip)
	if err != nil {
		return "", g.storeFailure("blacklist lookup", ip, err)
	}
	if entry != nil && !entry.Expired(g.policy.BlacklistTTL, at) {
		g.metrics.ObserveLoginOutcome("blocked")
		g.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			IPAddress:     ip,
			Device:        device,
			FailureReason: "ip_blacklisted",
			Success:       false,
		})
		return "", models.ErrBlocked
	}

	// 2. Resolve the identity. Unknown login names are punished with an
	// immediate blacklist addition when the policy says so.
	manager, err := g.managers.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", g.rejectUnknownLogin(ctx, login, device, ip, at)
		}
		return "", g.storeFailure("manager lookup", ip, err)
	}

	// 3-4. Load or create the pair's ledger record and stamp it with this
	// attempt, binding the resolved manager to the pair.
	if _, err := g.ledger.Touch(ctx, ip, device, &manager.ID, at); err != nil {
		return "", g.storeFailure("ledger touch", ip, err)
	}

	// 5-6. Verify the password; a mismatch increments the pair's counter
	// and may cross the blacklist threshold.
	if err := pkgauth.ComparePassword(manager.PasswordHash, password); err != nil {
		return "", g.rejectBadPassword(ctx, manager, device, ip, at)
	}

	// 7. Success resets the counter and issues a session token.
	if err := g.ledger.ResetFailures(ctx, ip, device, at); err != nil {
		return "", g.storeFailure("ledger reset", ip, err)
	}

	token, err := g.tokens.Issue(manager.ID)
	if err != nil {
		g.logger.Error("failed to issue session token",
			slog.String("manager_id", manager.ID), slog.Any("error", err))
		g.metrics.ObserveLoginOutcome("store_error")
		return "", models.ErrInternalServer
	}

	g.metrics.ObserveLoginOutcome("success")
	g.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		ManagerID: manager.ID,
		IPAddress: ip,
		Device:    device,
		Success:   true,
	})

	return token, nil
}

func (g *LoginGate) rejectUnknownLogin(ctx context.Context, login, device, ip string, at time.Time) error {
	if g.policy.BlacklistUnknownLogin {
		if err := g.blacklist.Add(ctx, ip, at); err != nil {
			return g.storeFailure("blacklist add", ip, err)
		}
		g.metrics.ObserveBlacklistAddition("unknown_login")
		g.audit.LogBlacklistAddition(ip, "unknown_login")
	}

	g.metrics.ObserveLoginOutcome("unknown_login")
	g.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		IPAddress:     ip,
		Device:        device,
		FailureReason: "unknown_login",
		Success:       false,
	})
	g.logger.Info("login failed: unknown login name",
		slog.String("login", pkglogger.SanitizedLogin(login)),
		slog.String("ip_address", ip))

	return models.ErrInvalidCredentials
}

func (g *LoginGate) rejectBadPassword(ctx context.Context, manager *models.Manager, device, ip string, at time.Time) error {
	count, err := g.ledger.RecordFailure(ctx, ip, device, at)
	if err != nil {
		return g.storeFailure("ledger increment", ip, err)
	}
	g.metrics.ObserveFailureCount(count)

	if count >= g.policy.FailureThreshold {
		if err := g.blacklist.Add(ctx, ip, at); err != nil {
			return g.storeFailure("blacklist add", ip, err)
		}
		g.metrics.ObserveBlacklistAddition("failure_threshold")
		g.audit.LogBlacklistAddition(ip, "failure_threshold")
	}

	g.metrics.ObserveLoginOutcome("invalid_credentials")
	g.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		ManagerID:     manager.ID,
		IPAddress:     ip,
		Device:        device,
		FailureReason: "invalid_credentials",
		Success:       false,
	})

	return models.ErrInvalidCredentials
}

func (g *LoginGate) storeFailure(op, ip string, err error) error {
	g.logger.Error("login gate store failure",
		slog.String("op", op),
		slog.String("ip_address", ip),
		slog.Any("error", err))
	g.metrics.ObserveLoginOutcome("store_error")
	return models.ErrStoreUnavailable
}
