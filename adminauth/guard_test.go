package adminauth_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/essexfb/backend/adminauth"
	"github.com/essexfb/backend/kvstore"
	"github.com/essexfb/backend/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "EssexPM"

func digestOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingKv struct {
	kvstore.Store
	failSet    bool
	failRemove bool
}

func (s *failingKv) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errors.New("storage unavailable")
	}
	return s.Store.Set(ctx, key, value)
}

func (s *failingKv) Remove(ctx context.Context, key string) error {
	if s.failRemove {
		return errors.New("storage unavailable")
	}
	return s.Store.Remove(ctx, key)
}

func newGuard(t *testing.T, kv kvstore.Store, clock *fakeClock) *adminauth.Guard {
	t.Helper()
	guard, err := adminauth.NewGuard(kv, digestOf(testPassword),
		adminauth.WithClock(clock.Now))
	require.NoError(t, err)
	return guard
}

func TestNewGuardRejectsBadDigest(t *testing.T) {
	_, err := adminauth.NewGuard(kvstore.NewMem(), "not-hex")
	require.Error(t, err)

	_, err = adminauth.NewGuard(kvstore.NewMem(), "abcd") // too short
	require.Error(t, err)
}

func TestVerifyCredential(t *testing.T) {
	guard := newGuard(t, kvstore.NewMem(), newFakeClock())

	assert.True(t, guard.VerifyCredential(testPassword))

	for _, candidate := range []string{"", "essexpm", "EssexPM ", "wrong-pass", testPassword + "x"} {
		assert.False(t, guard.VerifyCredential(candidate), "candidate %q must fail", candidate)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	guard := newGuard(t, kvstore.NewMem(), newFakeClock())

	session, err := guard.Login(ctx, "wrong-pass")
	require.Error(t, err)
	assert.Nil(t, session)

	srvcErr := &srvcerror.Error{}
	require.ErrorAs(t, err, &srvcErr)
	assert.Equal(t, adminauth.ErrCodeInvalidPassword, srvcErr.ErrorCode())
	assert.Equal(t, "Invalid password", srvcErr.Error())

	assert.False(t, guard.IsValid(ctx))
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	guard := newGuard(t, kvstore.NewMem(), clock)

	session, err := guard.Login(ctx, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, session.IssuedAt.Add(30*time.Minute), session.ExpiresAt)
	assert.True(t, guard.IsValid(ctx))

	clock.Advance(29 * time.Minute)
	assert.True(t, guard.IsValid(ctx))

	clock.Advance(time.Minute)
	assert.True(t, guard.IsValid(ctx), "expiry boundary is inclusive")

	clock.Advance(time.Second)
	assert.False(t, guard.IsValid(ctx))
}

func TestLazyExpiryClearsPersistedSession(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := kvstore.NewMem()
	guard := newGuard(t, kv, clock)

	_, err := guard.Login(ctx, testPassword)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	assert.False(t, guard.IsValid(ctx))

	_, ok, err := kv.Get(ctx, adminauth.DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok, "expired session must be removed on read")
}

func TestExtendResetsWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	guard := newGuard(t, kvstore.NewMem(), clock)

	_, err := guard.Login(ctx, testPassword)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	extended, err := guard.Extend(ctx)
	require.NoError(t, err)
	require.NotNil(t, extended)
	assert.Equal(t, clock.Now().Add(30*time.Minute), extended.ExpiresAt)

	// 45 minutes after login, but only 25 after the extend
	clock.Advance(25 * time.Minute)
	assert.True(t, guard.IsValid(ctx))

	clock.Advance(6 * time.Minute)
	assert.False(t, guard.IsValid(ctx))
}

func TestExtendWithoutSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	guard := newGuard(t, kvstore.NewMem(), newFakeClock())

	session, err := guard.Extend(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	guard := newGuard(t, kvstore.NewMem(), clock)

	_, err := guard.Login(ctx, testPassword)
	require.NoError(t, err)
	require.True(t, guard.IsValid(ctx))

	require.NoError(t, guard.Logout(ctx))
	assert.False(t, guard.IsValid(ctx))

	// logging out twice is fine
	require.NoError(t, guard.Logout(ctx))
}

func TestLoginStorageFailureIsNotLoggedIn(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := &failingKv{Store: kvstore.NewMem(), failSet: true}
	guard, err := adminauth.NewGuard(kv, digestOf(testPassword),
		adminauth.WithClock(clock.Now))
	require.NoError(t, err)

	session, err := guard.Login(ctx, testPassword)
	require.Error(t, err)
	assert.Nil(t, session)
	assert.False(t, guard.IsValid(ctx), "a session that could not be persisted must not validate")
}

func TestExpiredSessionRemoveFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := &failingKv{Store: kvstore.NewMem(), failRemove: true}

	var logBuf bytes.Buffer
	guard, err := adminauth.NewGuard(kv, digestOf(testPassword),
		adminauth.WithClock(clock.Now),
		adminauth.WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))))
	require.NoError(t, err)

	_, err = guard.Login(ctx, testPassword)
	require.NoError(t, err)

	clock.Advance(adminauth.DefaultTimeout + time.Second)
	assert.False(t, guard.IsValid(ctx),
		"an expired session must stay invalid even when it cannot be cleared")
	assert.Contains(t, logBuf.String(), "failed to clear admin session")
}

func TestCustomTimeout(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	guard, err := adminauth.NewGuard(kvstore.NewMem(), digestOf(testPassword),
		adminauth.WithClock(clock.Now),
		adminauth.WithTimeout(5*time.Minute))
	require.NoError(t, err)

	_, err = guard.Login(ctx, testPassword)
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	assert.True(t, guard.IsValid(ctx))

	clock.Advance(2 * time.Minute)
	assert.False(t, guard.IsValid(ctx))
}
