// Package lock serialises fixture regenerations per category.
package lock

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/derekprior/padelfix/internal/errors"
)

// Locker hands out exclusive locks by key. The returned release function
// must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func() error, err error)
}

// CategoryKey is the lock key for a category's fixture.
func CategoryKey(categoryID string) string {
	return "padelfix:fixture:" + categoryID
}

func busy(key string, cause error) error {
	return appErrors.Wrap(cause, appErrors.ErrConflict.Code, "another fixture operation holds "+key)
}

// Local is an in-process keyed mutex.
type Local struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal returns a Local lock that gives up after wait (0 waits for the
// context only).
func NewLocal(wait time.Duration) *Local {
	return &Local{wait: wait, slots: make(map[string]chan struct{})}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock blocks until the key is free, the wait elapses or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func() error, error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, busy(key, ctx.Err())
	}

	var once sync.Once
	return func() error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}
