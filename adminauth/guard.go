// Package adminauth gates the admin view behind a single shared credential.
// The credential is never stored or compared in cleartext: the guard holds
// a pre-computed SHA-256 digest and compares candidate digests against it
// in constant time. A successful login persists a time-boxed session; reads
// treat an expired session as absent and clear it on sight.
//
// This is deterrence, not access control: anything running in the same
// process can call the store directly. The contract is that every
// privileged entry point checks IsValid before acting.
package adminauth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/essexfb/backend/kvstore"
	"github.com/google/uuid"
)

// DefaultSessionKey matches the key of the browser build, same reasoning as
// feedback.DefaultLogKey.
const DefaultSessionKey = "essex-admin-session"

const DefaultTimeout = 30 * time.Minute

// Session is the persisted proof that the credential was presented.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"isAuthenticated"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type Guard struct {
	kv         kvstore.Store
	refDigest  []byte
	sessionKey string
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

type GuardOption func(*Guard)

func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) { g.timeout = d }
}

func WithSessionKey(key string) GuardOption {
	return func(g *Guard) { g.sessionKey = key }
}

func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) { g.logger = logger }
}

// NewGuard builds a guard around the hex-encoded SHA-256 digest of the
// admin credential.
func NewGuard(kv kvstore.Store, refDigestHex string, opts ...GuardOption) (*Guard, error) {
	digest, err := hex.DecodeString(refDigestHex)
	if err != nil {
		return nil, fmt.Errorf("invalid reference digest: %w", err)
	}
	if len(digest) != sha256.Size {
		return nil, fmt.Errorf("invalid reference digest: want %d bytes, got %d",
			sha256.Size, len(digest))
	}
	g := &Guard{
		kv:         kv,
		refDigest:  digest,
		sessionKey: DefaultSessionKey,
		timeout:    DefaultTimeout,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// VerifyCredential digests the candidate and compares it against the
// reference digest in constant time.
func (g *Guard) VerifyCredential(candidate string) bool {
	digest := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(digest[:], g.refDigest) == 1
}

// Login verifies the candidate and, on success, persists a fresh session.
// A storage failure surfaces as an error: the caller is NOT logged in if
// the session could not be written.
func (g *Guard) Login(ctx context.Context, candidate string) (*Session, error) {
	if !g.VerifyCredential(candidate) {
		return nil, newErrInvalidPassword()
	}

	now := g.now()
	session := &Session{
		ID:            uuid.New().String(),
		Authenticated: true,
		IssuedAt:      now,
		ExpiresAt:     now.Add(g.timeout),
	}
	if err := g.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Current returns the live session, or nil if no valid session exists.
// Finding a persisted session past its expiry clears it (lazy expiry), so
// no background timer is needed for correctness.
func (g *Guard) Current(ctx context.Context) *Session {
	raw, ok, err := g.kv.Get(ctx, g.sessionKey)
	if err != nil || !ok {
		return nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		g.clearStale(ctx, "corrupt session")
		return nil
	}
	if !session.Authenticated {
		return nil
	}
	if g.now().After(session.ExpiresAt) {
		g.clearStale(ctx, "expired session")
		return nil
	}
	return &session
}

// IsValid reports whether a live session exists right now.
func (g *Guard) IsValid(ctx context.Context) bool {
	return g.Current(ctx) != nil
}

// Extend pushes the expiry of the current session a full timeout window
// into the future. Without a valid session it does nothing and returns nil.
func (g *Guard) Extend(ctx context.Context) (*Session, error) {
	session := g.Current(ctx)
	if session == nil {
		return nil, nil
	}
	session.ExpiresAt = g.now().Add(g.timeout)
	if err := g.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout clears the persisted session regardless of its state.
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.kv.Remove(ctx, g.sessionKey); err != nil {
		return newErrSessionPersistence("clear session", err)
	}
	return nil
}

// clearStale drops a session that can no longer be honored. A failed
// removal is not fatal: the session stays invalid either way, the next
// read will retry. It is still worth a log line.
func (g *Guard) clearStale(ctx context.Context, reason string) {
	if err := g.kv.Remove(ctx, g.sessionKey); err != nil {
		g.logger.Warn("failed to clear admin session",
			"reason", reason, "error", err)
	}
}

func (g *Guard) persist(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return newErrSessionPersistence("encode session", err)
	}
	if err := g.kv.Set(ctx, g.sessionKey, string(data)); err != nil {
		return newErrSessionPersistence("write session", err)
	}
	return nil
}
