// Package ratelimit throttles failed admin logins per client IP. After
// MaxAttempts failures the IP is locked out for the lockout window. Store
// failures never block a login: the limiter fails open and logs.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

// Store persists one record per IP. Get returns nil, nil when no record exists.
type Store interface {
	Get(ctx context.Context, ip string) (*domain.RateLimitRecord, error)
	Put(ctx context.Context, rec *domain.RateLimitRecord) error
	Delete(ctx context.Context, ip string) error
}

// Policy configures thresholds.
type Policy struct {
	MaxAttempts int
	Lockout     time.Duration
	RecordTTL   time.Duration
}

// DefaultPolicy locks an IP for 15 minutes after 5 failures.
var DefaultPolicy = Policy{MaxAttempts: 5, Lockout: 15 * time.Minute, RecordTTL: 24 * time.Hour}

// Status is the result of Check.
type Status struct {
	Blocked       bool
	RemainingTime time.Duration
}

// RemainingSeconds rounds the remaining lock time up to whole seconds.
func (s Status) RemainingSeconds() int {
	return int(math.Ceil(s.RemainingTime.Seconds()))
}

// Limiter implements the failed-login lockout.
type Limiter struct {
	store  Store
	policy Policy
	now    func() time.Time
	log    *logger.Logger
}

// New creates a limiter. Zero policy fields fall back to DefaultPolicy.
func New(store Store, p Policy) *Limiter {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.Lockout <= 0 {
		p.Lockout = DefaultPolicy.Lockout
	}
	if p.RecordTTL <= 0 {
		p.RecordTTL = DefaultPolicy.RecordTTL
	}
	return &Limiter{store: store, policy: p, now: time.Now, log: logger.With("ratelimit")}
}

// WithClock overrides the time source; used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check reports whether ip is currently locked out. A record whose lock has
// elapsed is deleted so the next failure starts a fresh count.
func (l *Limiter) Check(ctx context.Context, ip string) Status {
	rec, err := l.store.Get(ctx, ip)
	if err != nil {
		l.log.Warn("rate limit lookup failed, allowing request", "ip", ip, "error", err)
		return Status{}
	}
	if rec == nil || rec.LockUntil.IsZero() {
		return Status{}
	}

	now := l.now()
	if rec.Locked(now) {
		return Status{Blocked: true, RemainingTime: rec.LockUntil.Sub(now)}
	}
	if err := l.store.Delete(ctx, ip); err != nil {
		l.log.Warn("failed to clear expired lockout", "ip", ip, "error", err)
	}
	return Status{}
}

// RecordFailure counts a failed login and starts the lockout once the
// threshold is reached.
func (l *Limiter) RecordFailure(ctx context.Context, ip string) {
	rec, err := l.store.Get(ctx, ip)
	if err != nil {
		l.log.Warn("rate limit lookup failed, failure not recorded", "ip", ip, "error", err)
		return
	}

	now := l.now().UTC()
	if rec == nil {
		rec = &domain.RateLimitRecord{IP: ip}
	}
	if !rec.LockUntil.IsZero() && !rec.Locked(now) {
		rec.Attempts = 0
		rec.LockUntil = time.Time{}
	}

	rec.Attempts++
	rec.LastAttempt = now
	expiry := now
	if rec.Attempts >= l.policy.MaxAttempts {
		rec.LockUntil = now.Add(l.policy.Lockout)
		expiry = rec.LockUntil
		l.log.Warn("ip locked out after repeated login failures",
			"ip", ip, "attempts", rec.Attempts, "until", rec.LockUntil.Format(time.RFC3339))
	}
	rec.TTL = expiry.Add(l.policy.RecordTTL).Unix()

	if err := l.store.Put(ctx, rec); err != nil {
		l.log.Warn("failed to record login failure", "ip", ip, "error", err)
	}
}

// Reset clears the record after a successful login.
func (l *Limiter) Reset(ctx context.Context, ip string) {
	if err := l.store.Delete(ctx, ip); err != nil {
		l.log.Warn("failed to reset rate limit", "ip", ip, "error", err)
	}
}
