// Package session manages admin sessions for the two consoles. Tokens are
// opaque, persisted in the sessions table and namespaced by kind so a token
// issued by one console never validates on the other.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// ErrNotFound is returned by a Store when no session exists for a token.
var ErrNotFound = errors.New("session not found")

// Store persists sessions keyed by token.
type Store interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, token string) error
}

// Config controls cookies and lifetime.
type Config struct {
	CookieNames map[domain.SessionKind]string
	MaxAge      time.Duration
	Secure      bool
}

// Result is the outcome of Validate. Error is a diagnostic, never shown to clients.
type Result struct {
	Valid   bool
	Session *domain.Session
	Error   string
}

// Manager creates, validates and destroys sessions.
type Manager struct {
	store Store
	cfg   Config
	now   func() time.Time
	log   *logger.Logger
}

// NewManager creates a session manager backed by store.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	return &Manager{store: store, cfg: cfg, now: time.Now, log: logger.With("session")}
}

// WithClock overrides the time source; used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CookieName returns the cookie that carries sessions of kind.
func (m *Manager) CookieName(kind domain.SessionKind) string {
	if name, ok := m.cfg.CookieNames[kind]; ok && name != "" {
		return name
	}
	return strings.ReplaceAll(string(kind), "-", "_")
}

// Token reads the raw session token for kind from the request, or "".
func (m *Manager) Token(r *http.Request, kind domain.SessionKind) string {
	c, err := r.Cookie(m.CookieName(kind))
	if err != nil {
		return ""
	}
	return c.Value
}

// Validate checks the request's session cookie for kind. Lookup failures
// fail closed: the session is treated as invalid and the store error is
// reported in Result.Error.
func (m *Manager) Validate(r *http.Request, kind domain.SessionKind) Result {
	token := m.Token(r, kind)
	if token == "" {
		return Result{Error: "no session token"}
	}
	if !strings.HasPrefix(token, domain.SessionTokenPrefix) {
		return Result{Error: "invalid session token format"}
	}

	ctx := r.Context()
	s, err := m.store.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return Result{Error: "session not found"}
	}
	if err != nil {
		return Result{Error: fmt.Sprintf("session lookup failed: %v", err)}
	}
	if s.Kind != kind {
		return Result{Error: fmt.Sprintf("session kind mismatch: have %s, want %s", s.Kind, kind)}
	}
	if s.Status != domain.SessionStatusActive {
		return Result{Error: fmt.Sprintf("session is %s", s.Status)}
	}
	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			m.log.Warn("failed to delete expired session", "error", err)
		}
		return Result{Error: "session expired"}
	}
	return Result{Valid: true, Session: s}
}

// Create issues a new active session for identity.
func (m *Manager) Create(ctx context.Context, identity string, kind domain.SessionKind) (*domain.Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown session kind %q", kind)
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	s := &domain.Session{
		Token:     token,
		Identity:  identity,
		Kind:      kind,
		Status:    domain.SessionStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.MaxAge),
		TTL:       now.Add(m.cfg.MaxAge).Unix(),
	}
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return s, nil
}

// Destroy deletes the session record. Missing sessions are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// SetCookie writes the session cookie for kind.
func (m *Manager) SetCookie(w http.ResponseWriter, kind domain.SessionKind, s *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(kind),
		Value:    s.Token,
		Path:     "/",
		MaxAge:   int(m.cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie for kind.
func (m *Manager) ClearCookie(w http.ResponseWriter, kind domain.SessionKind) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(kind),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return domain.SessionTokenPrefix + hex.EncodeToString(b), nil
}
