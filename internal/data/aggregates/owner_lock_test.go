package aggregates

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
)

func TestLocalOwnerLockerSerializesPerOwner(t *testing.T) {
	locker := NewLocalOwnerLocker()
	owner := uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), owner, "merge")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("max holders: want=1 got=%d", maxInside)
	}
}

func TestLocalOwnerLockerOwnersAreIndependent(t *testing.T) {
	locker := NewLocalOwnerLocker()
	unlockA, err := locker.Lock(context.Background(), uuid.New(), "merge")
	if err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, uuid.New(), "merge")
	if err != nil {
		t.Fatalf("Lock b should not wait on a: %v", err)
	}
	unlockB()
}

func TestLocalOwnerLockerHonorsContext(t *testing.T) {
	locker := NewLocalOwnerLocker()
	owner := uuid.New()
	unlock, err := locker.Lock(context.Background(), owner, "merge")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, owner, "merge")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !domainagg.IsCode(MapError("merge", err), domainagg.CodeRetryable) {
		t.Fatalf("expected retryable, got %v", err)
	}
}
