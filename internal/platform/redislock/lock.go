// Package redislock serializes per-owner writes across processes with a
// single Redis key per (scope, owner).
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/platform/logger"
)

// Release only deletes the key when it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Config struct {
	Prefix string
	// TTL bounds how long a crashed holder can block others.
	TTL  time.Duration
	Poll time.Duration
}

type Locker struct {
	rdb goredis.UniversalClient
	cfg Config
	log *logger.Logger
}

func New(rdb goredis.UniversalClient, log *logger.Logger, cfg Config) *Locker {
	if cfg.Prefix == "" {
		cfg.Prefix = "hlts:lock"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 50 * time.Millisecond
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Locker{rdb: rdb, cfg: cfg, log: log.With("component", "RedisOwnerLocker")}
}

func (l *Locker) Key(owner uuid.UUID, scope string) string {
	return fmt.Sprintf("%s:%s:%s", l.cfg.Prefix, scope, owner)
}

// Lock blocks until the key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, owner uuid.UUID, scope string) (func(), error) {
	if l == nil || l.rdb == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, "owner_lock", "redis locker not initialized", nil)
	}
	key := l.Key(owner, scope)
	token := uuid.NewString()

	ticker := time.NewTicker(l.cfg.Poll)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			if ctx.Err() != nil {
				return nil, waitError(ctx.Err())
			}
			return nil, domainagg.NewError(domainagg.CodeRetryable, "owner_lock", "acquire "+key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, waitError(ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, token) })
	}, nil
}

func (l *Locker) release(key, token string) {
	// The caller's ctx may already be cancelled; release on a fresh one.
	rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		l.log.Warn("owner lock release failed", "key", key, "error", err)
	}
}

func waitError(err error) error {
	return domainagg.NewError(domainagg.CodeRetryable, "owner_lock", "owner lock wait: "+err.Error(), err)
}
