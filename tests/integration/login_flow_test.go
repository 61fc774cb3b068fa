package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ghakobyan/contactdesk/internal/services"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	db.Teardown(ctx)
	os.Exit(code)
}

func loginBody(login, password, device, ip string) map[string]string {
	return map[string]string{
		"login":      login,
		"password":   password,
		"device":     device,
		"ip_address": ip,
	}
}

func TestLoginFlow_SuccessIssuesUsableToken(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("success")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	resp, err := ts.Request("POST", "/managers/logins", loginBody(login, password, "dev1", "203.0.113.10"), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token, err := ExtractToken(resp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The token opens the protected surface
	listResp, err := ts.RequestWithAuth("GET", "/contacts", token, nil)
	require.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestLoginFlow_ThreeFailuresBlacklistTheIP(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("threshold")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	ip := "203.0.113.20"

	for i := 1; i <= 3; i++ {
		resp, err := ts.Request("POST", "/managers/logins", loginBody(login, "wrong-password", "dev1", ip), nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "attempt %d", i)

		blacklisted, err := IsBlacklisted(ctx, testDB.Pool, ip)
		require.NoError(t, err)
		assert.Equal(t, i >= 3, blacklisted, "blacklist state after %d failures", i)
	}

	count, err := GetFailureCount(ctx, testDB.Pool, ip, "dev1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Correct credentials no longer help; the response is the same generic
	// rejection as a bad password
	resp, err := ts.Request("POST", "/managers/logins", loginBody(login, password, "dev1", ip), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginFlow_UnknownLoginBlacklistsImmediately(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("victim")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	ip := "203.0.113.30"

	resp, err := ts.Request("POST", "/managers/logins", loginBody("no-such-manager", "whatever", "dev1", ip), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	blacklisted, err := IsBlacklisted(ctx, testDB.Pool, ip)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// Even a valid account from this IP is now blocked
	resp, err = ts.Request("POST", "/managers/logins", loginBody(login, password, "dev2", ip), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginFlow_SuccessResetsFailureCounter(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("reset")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	ip := "203.0.113.40"

	for i := 0; i < 2; i++ {
		resp, err := ts.Request("POST", "/managers/logins", loginBody(login, "wrong-password", "dev1", ip), nil)
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := ts.Request("POST", "/managers/logins", loginBody(login, password, "dev1", ip), nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	count, err := GetFailureCount(ctx, testDB.Pool, ip, "dev1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	blacklisted, err := IsBlacklisted(ctx, testDB.Pool, ip)
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestLoginFlow_ConcurrentFailuresLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("concurrent")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	ip := "203.0.113.50"

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			resp, err := ts.Request("POST", "/managers/logins", loginBody(login, "wrong-password", "dev1", ip), nil)
			if err != nil {
				return err
			}
			resp.Body.Close()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Attempts that arrive after the blacklist add are rejected before the
	// ledger, so the final count is between the threshold and 5.
	// TestAttemptLedger_ConcurrentIncrementsAreExact pins down the
	// no-lost-updates property of the increment itself.
	count, err := GetFailureCount(ctx, testDB.Pool, ip, "dev1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 3)
	assert.LessOrEqual(t, count, 5)

	blacklisted, err := IsBlacklisted(ctx, testDB.Pool, ip)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestAttemptLedger_ConcurrentIncrementsAreExact(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	_, ledgerRepo, _, _ := InitializeRepositories(testDB.DB)

	ip, device := "203.0.113.55", "dev1"

	var mu sync.Mutex
	var counts []int
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			count, err := ledgerRepo.RecordFailure(ctx, ip, device, time.Now())
			if err != nil {
				return err
			}
			mu.Lock()
			counts = append(counts, count)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Five concurrent increments return five distinct consecutive counts:
	// the single-statement upsert never loses an update
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, counts)

	final, err := GetFailureCount(ctx, testDB.Pool, ip, device)
	require.NoError(t, err)
	assert.Equal(t, 5, final)
}

func TestLoginFlow_ExpiredBlacklistEntryIsReArmed(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	policy := services.DefaultGatePolicy()
	policy.BlacklistTTL = 1 * time.Hour
	ts := NewTestServerWithPolicy(testDB.DB, policy)
	defer ts.Close()

	login, password := TestManager("rearm")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	ip := "203.0.113.80"

	// A long-expired entry the sweeper has not removed yet
	stale := time.Now().Add(-3 * time.Hour)
	require.NoError(t, SeedBlacklistedIP(ctx, testDB.Pool, ip, stale))

	// The expired entry does not block, so three failures cross the
	// threshold again
	for i := 1; i <= 3; i++ {
		resp, err := ts.Request("POST", "/managers/logins", loginBody(login, "wrong-password", "dev1", ip), nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "attempt %d", i)
	}

	// The row's timestamp was refreshed, so the ban is live again
	addedAt, err := GetBlacklistAddedAt(ctx, testDB.Pool, ip)
	require.NoError(t, err)
	assert.True(t, addedAt.After(stale))

	resp, err := ts.Request("POST", "/managers/logins", loginBody(login, password, "dev1", ip), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The blocked attempt never touched the ledger
	count, err := GetFailureCount(ctx, testDB.Pool, ip, "dev1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTokenGuard(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	// No Authorization header: unauthenticated
	resp, err := ts.Request("GET", "/contacts", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Garbage token: forbidden
	resp, err = ts.RequestWithAuth("GET", "/contacts", "not-a-real-token", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestContactLifecycle(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("contacts")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	// The submission form is public
	phone := TestPhone()
	submission := map[string]string{
		"name":                   "Anna",
		"phone":                  phone,
		"information_about_user": "wants a callback",
	}
	resp, err := ts.Request("POST", "/contacts", submission, nil)
	require.NoError(t, err)

	var created map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &created))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	contactID, _ := created["id"].(string)
	require.NotEmpty(t, contactID)

	// Duplicate phone is a conflict
	resp, err = ts.Request("POST", "/contacts", submission, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Manager logs in to work the records
	resp, err = ts.Request("POST", "/managers/logins", loginBody(login, password, "dev1", "203.0.113.60"), nil)
	require.NoError(t, err)
	token, err := ExtractToken(resp)
	require.NoError(t, err)

	listResp, err := ts.RequestWithAuth("GET", "/contacts", token, nil)
	require.NoError(t, err)
	var contacts []map[string]interface{}
	require.NoError(t, ParseJSONResponse(listResp, &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "Anna", contacts[0]["name"])

	// Bulk update
	update := []map[string]string{
		{
			"id":    contactID,
			"name":  "Anna K",
			"phone": phone,
		},
	}
	resp, err = ts.RequestWithAuth("PUT", "/contacts", token, update)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Delete, then deleting again is a 404
	resp, err = ts.RequestWithAuth("DELETE", "/contacts/"+contactID, token, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = ts.RequestWithAuth("DELETE", "/contacts/"+contactID, token, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManagerListing(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login, password := TestManager("listing")
	_, err := SeedManager(ctx, testDB.DB, login, password)
	require.NoError(t, err)

	resp, err := ts.Request("POST", "/managers/logins", loginBody(login, password, "dev1", "203.0.113.70"), nil)
	require.NoError(t, err)
	token, err := ExtractToken(resp)
	require.NoError(t, err)

	listResp, err := ts.RequestWithAuth("GET", "/managers", token, nil)
	require.NoError(t, err)
	var managers []map[string]interface{}
	require.NoError(t, ParseJSONResponse(listResp, &managers))
	require.Len(t, managers, 1)
	assert.Equal(t, login, managers[0]["login"])
	assert.NotContains(t, managers[0], "password_hash")
}
