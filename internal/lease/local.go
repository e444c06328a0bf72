package lease

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker. It only serializes callers inside one process.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	wait    time.Duration
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker. A zero wait blocks until the context is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		entries: make(map[string]*localEntry),
		wait:    wait,
	}
}

// Acquire blocks until the key is free, the wait elapses or ctx is done.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	parent := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case e.sem <- struct{}{}:
		return &localLease{locker: l, key: key, entry: e}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, acquireErr(parent, ctx, key)
	}
}

func (l *LocalLocker) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

type localLease struct {
	locker *LocalLocker
	key    string
	entry  *localEntry
	once   sync.Once
}

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		<-l.entry.sem
		l.locker.unref(l.key, l.entry)
	})

	return nil
}
