package selector

import (
	"context"
	"sync/atomic"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
	"github.com/sourin00/adaptive-load-balancer/internal/store"
)

// localRRCounter is the last-resort fallback counter used when even the
// degraded store.Fallback can't be reached (practically never, since
// Fallback already owns a Local store — kept so selectRoundRobin is safe to
// call against a bare store.Store in tests without a running Fallback).
var localRRCounter atomic.Int64

func init() { localRRCounter.Store(1) }

// selectRoundRobin implements §4.2 round_robin: atomically increment the
// shared cursor, take it modulo pool length.
func selectRoundRobin(ctx context.Context, p *pool.Pool, st store.Store) (*pool.Backend, error) {
	n := p.Len()
	if n == 0 {
		return nil, nil
	}
	idx, err := st.IncrNextIndex(ctx)
	if err != nil {
		idx = localRRCounter.Add(1)
	}
	pos := ((idx % int64(n)) + int64(n)) % int64(n)
	return p.At(int(pos)), nil
}
