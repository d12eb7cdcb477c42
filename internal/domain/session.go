package domain

import "time"

// SessionKind namespaces sessions by admin surface.
type SessionKind string

const (
	SessionWhatsApp SessionKind = "whatsapp-session"
	SessionEmail    SessionKind = "email-session"
)

// Valid reports whether k is a known surface.
func (k SessionKind) Valid() bool {
	return k == SessionWhatsApp || k == SessionEmail
}

// SessionStatusActive is the only status that validates.
const SessionStatusActive = "active"

// SessionTokenPrefix marks every session token; other keys in the sessions
// table (rate-limit records) never carry it.
const SessionTokenPrefix = "sess_"

// Session is an authenticated admin session keyed by its opaque token.
type Session struct {
	Token     string      `json:"-" dynamodbav:"id"`
	Identity  string      `json:"identity" dynamodbav:"identity"`
	Kind      SessionKind `json:"kind" dynamodbav:"kind"`
	Status    string      `json:"status" dynamodbav:"status"`
	CreatedAt time.Time   `json:"createdAt" dynamodbav:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt" dynamodbav:"expiresAt"`
	TTL       int64       `json:"-" dynamodbav:"ttl"`
}

// Expired reports whether now is past the session expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// RateLimitRecord counts failed logins for one client IP.
type RateLimitRecord struct {
	IP          string    `json:"ip" dynamodbav:"ip"`
	Attempts    int       `json:"attempts" dynamodbav:"attempts"`
	LockUntil   time.Time `json:"lockUntil,omitempty" dynamodbav:"lockUntil,omitempty"`
	LastAttempt time.Time `json:"lastAttempt" dynamodbav:"lastAttempt"`
	TTL         int64     `json:"-" dynamodbav:"ttl"`
}

// Locked reports whether the record is inside its lock window.
func (r *RateLimitRecord) Locked(now time.Time) bool {
	return !r.LockUntil.IsZero() && now.Before(r.LockUntil)
}

// AdminSurface names the console an admin credential belongs to.
type AdminSurface string

const (
	SurfaceWhatsApp AdminSurface = "whatsapp"
	SurfaceEmail    AdminSurface = "email"
)

// SessionKind returns the session namespace of the surface.
func (s AdminSurface) SessionKind() SessionKind {
	if s == SurfaceEmail {
		return SessionEmail
	}
	return SessionWhatsApp
}

// Admin is a stored console credential.
type Admin struct {
	Username     string       `json:"username" dynamodbav:"username"`
	PasswordHash string       `json:"-" dynamodbav:"passwordHash"`
	Surface      AdminSurface `json:"surface" dynamodbav:"surface"`
	Disabled     bool         `json:"disabled,omitempty" dynamodbav:"disabled,omitempty"`
}
