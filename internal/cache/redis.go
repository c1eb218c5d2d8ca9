// Package cache wraps Redis for the cross-process collection lock and the
// dashboard cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dashboard cache keys
const (
	DashboardKeyFmt = "dashboard:%d"
	dashboardPrefix = "dashboard:*"
)

type Redis struct {
	client *redis.Client
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

// Client returns the underlying client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// GetJSON decodes the value at key into dst. It reports false on a miss or
// any error; the cache is best effort.
func (r *Redis) GetJSON(ctx context.Context, key string, dst any) bool {
	if r == nil {
		return false
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// InvalidateDashboards drops every cached dashboard.
func (r *Redis) InvalidateDashboards(ctx context.Context) error {
	if r == nil {
		return nil
	}
	iter := r.client.Scan(ctx, 0, dashboardPrefix, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// DashboardKey returns the cache key for the dashboard of year.
func DashboardKey(year int) string {
	return fmt.Sprintf(DashboardKeyFmt, year)
}

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements store.Locker across processes.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
	log    *zap.Logger
}

// NewLocker returns a locker whose locks expire after ttl if never released.
// Failed releases are reported to log, which may be nil.
func (r *Redis) NewLocker(ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{client: r.client, ttl: ttl, retry: 25 * time.Millisecond, prefix: "lock:collection:", log: log}
}

// Lock retries SET NX until it wins or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := l.prefix + key
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("acquire %s: %w", redisKey, err)
		}
		if ok {
			return func() { l.release(redisKey, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// release drops the lock if token still owns it. A zero reply means the TTL
// ran out and another holder may have run concurrently.
func (l *RedisLocker) release(redisKey, token string) {
	// Background context: the caller's ctx may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := unlockScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	switch {
	case err != nil:
		l.log.Error("release collection lock", zap.String("key", redisKey), zap.Error(err))
	case n == 0:
		l.log.Warn("collection lock expired before release", zap.String("key", redisKey), zap.Duration("ttl", l.ttl))
	}
}
