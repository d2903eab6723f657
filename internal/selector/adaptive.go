package selector

import (
	"context"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
	"github.com/sourin00/adaptive-load-balancer/internal/store"
)

const headroomEpsilon = 1e-5

// headroomRatio is §4.3's ranking function: weight over a blend of cpu,
// mem and connections.
func headroomRatio(s pool.Snapshot) float64 {
	denom := 0.6*s.CPU + 0.2*s.Mem + 0.2*float64(s.Connections) + headroomEpsilon
	return float64(s.Weight) / denom
}

// SelectAlgorithm is the pure adaptive meta-selector (§4.3): it ranks
// backends by headroom ratio and returns the name of the concrete
// algorithm the dispatcher should run. It never mutates pool state.
func SelectAlgorithm(p *pool.Pool) string {
	backends := p.Backends()
	if len(backends) == 0 {
		return WeightedRoundRobin
	}

	top := headroomRatio(backends[0].Snapshot())
	for _, b := range backends[1:] {
		if r := headroomRatio(b.Snapshot()); r > top {
			top = r
		}
	}

	switch {
	case top < 0.7:
		return WeightedRoundRobin
	case top > 2.0:
		return LeastConnections
	default:
		return PowerOfTwo
	}
}

// AdaptiveSelect implements the explicit algo=adaptive mode (§4.3): pick the
// backend with the highest capacity score and cache its index in the shared
// store for store.CachedBestServerTTL. Subsequent adaptive requests within
// the TTL return the same cached backend.
func AdaptiveSelect(ctx context.Context, p *pool.Pool, st store.Store) *pool.Backend {
	n := p.Len()
	if n == 0 {
		return nil
	}

	if idx, ok, err := st.GetCachedBestServer(ctx); err == nil && ok && idx >= 0 && idx < n {
		return p.At(idx)
	}

	backends := p.Backends()
	bestIdx := 0
	bestScore := pool.CapacityScore(backends[0].Snapshot())
	for i, b := range backends[1:] {
		if score := pool.CapacityScore(b.Snapshot()); score > bestScore {
			bestScore = score
			bestIdx = i + 1
		}
	}

	_ = st.SetCachedBestServer(ctx, bestIdx)
	return p.At(bestIdx)
}
