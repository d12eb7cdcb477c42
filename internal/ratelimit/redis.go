package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streetbite/vendorhub/internal/domain"
)

// RedisStore keeps rate-limit records in Redis hashes that expire with the
// record TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisStore) key(ip string) string { return s.prefix + ip }

func (s *RedisStore) Get(ctx context.Context, ip string) (*domain.RateLimitRecord, error) {
	vals, err := s.client.HGetAll(ctx, s.key(ip)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key(ip), err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	rec := &domain.RateLimitRecord{IP: ip}
	if rec.Attempts, err = strconv.Atoi(vals["attempts"]); err != nil {
		return nil, fmt.Errorf("corrupt attempts for %s: %w", ip, err)
	}
	rec.LockUntil = parseMillis(vals["lockUntil"])
	rec.LastAttempt = parseMillis(vals["lastAttempt"])
	rec.TTL, _ = strconv.ParseInt(vals["ttl"], 10, 64)
	return rec, nil
}

func (s *RedisStore) Put(ctx context.Context, rec *domain.RateLimitRecord) error {
	key := s.key(rec.IP)
	var lockUntil int64
	if !rec.LockUntil.IsZero() {
		lockUntil = rec.LockUntil.UnixMilli()
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"attempts", rec.Attempts,
		"lockUntil", lockUntil,
		"lastAttempt", rec.LastAttempt.UnixMilli(),
		"ttl", rec.TTL,
	)
	if rec.TTL > 0 {
		pipe.ExpireAt(ctx, key, time.Unix(rec.TTL, 0))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, ip string) error {
	if err := s.client.Del(ctx, s.key(ip)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del %s: %w", s.key(ip), err)
	}
	return nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
