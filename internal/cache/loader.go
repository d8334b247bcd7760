package cache

import (
	"context"
	"sync"
	"time"
)

// Fetcher loads a fresh value from the backend.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Loader binds one cache key to the fetcher that fills it and tracks the
// data, error and loading state of the most recent load.
//
// Overlapping loads are not serialized; the last one to finish wins.
type Loader[T any] struct {
	store *Store
	key   string
	ttl   time.Duration
	fetch Fetcher[T]

	mu      sync.RWMutex
	data    T
	err     error
	loading bool
}

func NewLoader[T any](store *Store, key string, ttl time.Duration, fetch Fetcher[T]) *Loader[T] {
	return &Loader[T]{
		store: store,
		key:   key,
		ttl:   ttl,
		fetch: fetch,
	}
}

// FetchData returns the cached value for the loader's key when it is live and
// forceRefresh is false, without calling the fetcher. Otherwise it calls the
// fetcher and stores the result. Fetch errors are recorded and returned; they
// are not retried.
func (l *Loader[T]) FetchData(ctx context.Context, forceRefresh bool) (T, error) {
	if !forceRefresh {
		if e, ok := l.store.Get(l.key); ok {
			if v, ok := e.Data.(T); ok {
				l.mu.Lock()
				l.data = v
				l.err = nil
				l.mu.Unlock()
				return v, nil
			}
		}
	}

	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()
	}()

	v, err := l.fetch(ctx)

	// A cancelled caller must not publish a result.
	if ctxErr := ctx.Err(); ctxErr != nil {
		var zero T
		return zero, ctxErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = err
		var zero T
		return zero, err
	}
	l.store.Set(l.key, v, l.ttl)
	l.data = v
	l.err = nil
	return v, nil
}

// Refresh bypasses and overwrites the cached value.
func (l *Loader[T]) Refresh(ctx context.Context) (T, error) {
	return l.FetchData(ctx, true)
}

// Clear removes the loader's key from the store.
func (l *Loader[T]) Clear() {
	l.store.Delete(l.key)
}

// State returns the last loaded data, whether a load is in flight, and the
// error from the most recent load.
func (l *Loader[T]) State() (data T, loading bool, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data, l.loading, l.err
}

func (l *Loader[T]) Key() string {
	return l.key
}
