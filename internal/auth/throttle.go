package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginAttemptsKeyPrefix = "login_attempts:"
	loginAttemptsWindow    = time.Minute
)

// LoginThrottle counts failed login attempts per client in a fixed window.
type LoginThrottle interface {
	Allow(ctx context.Context, client string) (bool, error)
	RecordFailure(ctx context.Context, client string) error
	Reset(ctx context.Context, client string) error
}

// RedisLoginThrottle keeps per-client counters in Redis.
type RedisLoginThrottle struct {
	rdb   *redis.Client
	limit int
}

// NewRedisLoginThrottle builds a throttle allowing limit failures per minute.
func NewRedisLoginThrottle(rdb *redis.Client, limit int) *RedisLoginThrottle {
	return &RedisLoginThrottle{rdb: rdb, limit: limit}
}

func (t *RedisLoginThrottle) key(client string) string { return loginAttemptsKeyPrefix + client }

// Allow reports whether the client is still under its failure budget.
func (t *RedisLoginThrottle) Allow(ctx context.Context, client string) (bool, error) {
	if t.limit <= 0 {
		return true, nil
	}
	count, err := t.rdb.Get(ctx, t.key(client)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count < t.limit, nil
}

// RecordFailure increments the client's counter, starting the window on first failure.
func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, client string) error {
	key := t.key(client)
	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.rdb.Expire(ctx, key, loginAttemptsWindow).Err()
	}
	ttl, err := t.rdb.TTL(ctx, key).Result()
	if err == nil && ttl < 0 {
		return t.rdb.Expire(ctx, key, loginAttemptsWindow).Err()
	}
	return nil
}

// Reset clears the client's counter after a successful login.
func (t *RedisLoginThrottle) Reset(ctx context.Context, client string) error {
	return t.rdb.Del(ctx, t.key(client)).Err()
}

// MemoryLoginThrottle is the in-process equivalent used without Redis.
type MemoryLoginThrottle struct {
	mu       sync.Mutex
	limit    int
	now      func() time.Time
	attempts map[string]window
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryLoginThrottle builds a throttle allowing limit failures per minute.
func NewMemoryLoginThrottle(limit int) *MemoryLoginThrottle {
	return &MemoryLoginThrottle{limit: limit, now: time.Now, attempts: make(map[string]window)}
}

func (t *MemoryLoginThrottle) current(client string) window {
	w := t.attempts[client]
	if !w.resetAt.IsZero() && !t.now().Before(w.resetAt) {
		delete(t.attempts, client)
		return window{}
	}
	return w
}

// Allow reports whether the client is still under its failure budget.
func (t *MemoryLoginThrottle) Allow(_ context.Context, client string) (bool, error) {
	if t.limit <= 0 {
		return true, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(client).count < t.limit, nil
}

// RecordFailure increments the client's counter.
func (t *MemoryLoginThrottle) RecordFailure(_ context.Context, client string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.current(client)
	if w.count == 0 {
		w.resetAt = t.now().Add(loginAttemptsWindow)
	}
	w.count++
	t.attempts[client] = w
	return nil
}

// Reset clears the client's counter.
func (t *MemoryLoginThrottle) Reset(_ context.Context, client string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, client)
	return nil
}
