// Package distlock serializes work on a key across goroutines and, when
// Redis is configured, across server instances. Campaign dispatch holds a
// lock per campaign so two batches never send to the same recipients.
package distlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// A lock instance is owned by a single goroutine.
type DistLock interface {
	// Acquire tries to acquire the lock without blocking.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
	// Extend resets the lock's TTL. It fails once the lock is no longer ours.
	Extend(ctx context.Context, ttl time.Duration) error
}

// NewLock creates a lock using the best available backend: Redis when a
// client is given, otherwise a lock local to this process.
func NewLock(redisClient *redis.Client, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewLocalLock(key)
}

var (
	localMu   sync.Mutex
	localHeld = make(map[string]struct{})
)

// LocalLock is an in-process lock keyed by name.
type LocalLock struct {
	key  string
	held bool
}

// NewLocalLock creates an in-process lock for key.
func NewLocalLock(key string) *LocalLock {
	return &LocalLock{key: key}
}

func (l *LocalLock) Acquire(_ context.Context) (bool, error) {
	localMu.Lock()
	defer localMu.Unlock()
	if _, taken := localHeld[l.key]; taken {
		return false, nil
	}
	localHeld[l.key] = struct{}{}
	l.held = true
	return true, nil
}

func (l *LocalLock) Release(_ context.Context) error {
	localMu.Lock()
	defer localMu.Unlock()
	if l.held {
		delete(localHeld, l.key)
		l.held = false
	}
	return nil
}

// Extend is a no-op for a held local lock; local locks never expire.
func (l *LocalLock) Extend(_ context.Context, _ time.Duration) error {
	localMu.Lock()
	defer localMu.Unlock()
	if !l.held {
		return fmt.Errorf("lock %s is not held", l.key)
	}
	return nil
}
