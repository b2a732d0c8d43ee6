package redislock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	return rdb
}

func TestKeyIncludesScopeAndOwner(t *testing.T) {
	owner := uuid.New()
	l := New(nil, nil, Config{Prefix: "p"})
	if got, want := l.Key(owner, "merge"), "p:merge:"+owner.String(); got != want {
		t.Fatalf("key: want=%s got=%s", want, got)
	}
}

func TestLockWithoutClient(t *testing.T) {
	l := New(nil, nil, Config{})
	_, err := l.Lock(context.Background(), uuid.New(), "merge")
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLockExcludesSecondHolder(t *testing.T) {
	rdb := testClient(t)
	l := New(rdb, nil, Config{Prefix: "hlts:test:" + uuid.NewString(), Poll: 10 * time.Millisecond})
	owner := uuid.New()

	unlock, err := l.Lock(context.Background(), owner, "merge")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, owner, "merge"); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("second Lock: expected retryable, got %v", err)
	}

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), owner, "merge")
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	again()
}
