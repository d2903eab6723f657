// Package store implements the shared key-value interface the selection
// engine uses for the cross-instance round-robin cursor, the last-used
// algorithm, and the short-TTL cached adaptive-mode decision (§4.5). It is
// not a source of truth for backend state — only for these three keys.
package store

import (
	"context"
	"sync"
	"time"
)

// Keys used against the shared store, kept exported so callers and tests
// can refer to them without magic strings.
const (
	KeyNextServerIndex     = "next_server_index"
	KeyLastUsedAlgo        = "last_used_algo"
	KeyCachedBestServerIdx = "cached_best_server_index"
)

// CachedBestServerTTL is the TTL adaptive-mode caches its chosen backend
// index for (§4.3).
const CachedBestServerTTL = 5 * time.Second

// Store is the narrow interface the selection engine consumes. All
// operations have the semantics of a remote KV store: atomic per op, no
// cross-op transactions.
type Store interface {
	// IncrNextIndex atomically increments next_server_index and returns
	// the new value.
	IncrNextIndex(ctx context.Context) (int64, error)
	// SetNextIndex resets next_server_index to v.
	SetNextIndex(ctx context.Context, v int64) error
	// GetLastAlgo returns the previously stored algorithm name, or "" if
	// unset.
	GetLastAlgo(ctx context.Context) (string, error)
	// SetLastAlgo stores the most recently accepted algorithm name.
	SetLastAlgo(ctx context.Context, algo string) error
	// GetCachedBestServer returns the cached adaptive-mode backend index
	// and whether it is present (not expired / never set).
	GetCachedBestServer(ctx context.Context) (idx int, ok bool, err error)
	// SetCachedBestServer stores idx with CachedBestServerTTL.
	SetCachedBestServer(ctx context.Context, idx int) error
}

// Local is an in-process fallback implementation of Store, used both in
// tests and as the degraded mode the selection engine falls back to when
// the remote store is unreachable (§4.5, §7 StoreFault).
type Local struct {
	mu          sync.Mutex
	nextIndex   int64
	lastAlgo    string
	cachedIdx   int
	cachedSet   bool
	cachedUntil time.Time
}

// NewLocal returns a ready-to-use in-memory Store. next_server_index starts
// seeded at 1, matching the local-fallback counter spec.md §4.2 describes
// for round_robin.
func NewLocal() *Local {
	return &Local{nextIndex: 1}
}

func (l *Local) IncrNextIndex(_ context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextIndex++
	return l.nextIndex, nil
}

func (l *Local) SetNextIndex(_ context.Context, v int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextIndex = v
	return nil
}

func (l *Local) GetLastAlgo(_ context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastAlgo, nil
}

func (l *Local) SetLastAlgo(_ context.Context, algo string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastAlgo = algo
	return nil
}

func (l *Local) GetCachedBestServer(_ context.Context) (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cachedSet || time.Now().After(l.cachedUntil) {
		return 0, false, nil
	}
	return l.cachedIdx, true, nil
}

func (l *Local) SetCachedBestServer(_ context.Context, idx int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cachedIdx = idx
	l.cachedSet = true
	l.cachedUntil = time.Now().Add(CachedBestServerTTL)
	return nil
}
