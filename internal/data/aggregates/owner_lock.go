package aggregates

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// OwnerLocker serializes writes for one owner and scope across callers.
// Unlock must be called exactly once.
type OwnerLocker interface {
	Lock(ctx context.Context, owner uuid.UUID, scope string) (unlock func(), err error)
}

type localOwnerLocker struct {
	mu    sync.Mutex
	locks map[string]*ownerLockEntry
}

type ownerLockEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocalOwnerLocker returns an in-process locker. It only serializes
// callers inside one process; multi-instance deployments use the Redis
// locker.
func NewLocalOwnerLocker() OwnerLocker {
	return &localOwnerLocker{locks: map[string]*ownerLockEntry{}}
}

func (l *localOwnerLocker) Lock(ctx context.Context, owner uuid.UUID, scope string) (func(), error) {
	key := scope + ":" + owner.String()

	l.mu.Lock()
	e := l.locks[key]
	if e == nil {
		e = &ownerLockEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e, false)
		return nil, RetryableError("owner lock wait: " + ctx.Err().Error())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, e, true) })
	}, nil
}

func (l *localOwnerLocker) release(key string, e *ownerLockEntry, held bool) {
	if held {
		<-e.ch
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
