package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bibliafides/backend/internal/logger"
)

// releaseScript deletes the key only if it still carries our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGate shares turn ownership across service instances.
type RedisGate struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

// NewRedisGate connects to addr and verifies the connection with PING.
func NewRedisGate(ctx context.Context, addr, password string, ttl time.Duration, log *logger.Logger) (*RedisGate, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisGate{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "fides:turn:",
		log:    log.With("component", "redis-gate"),
	}, nil
}

func (g *RedisGate) TryAcquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := g.prefix + key

	ok, err := g.rdb.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.rdb, []string{redisKey}, token).Err(); err != nil {
			g.log.Warn("release turn lock failed", "key", key, "error", err)
		}
	}, nil
}

// Close closes the redis client.
func (g *RedisGate) Close() error {
	return g.rdb.Close()
}
