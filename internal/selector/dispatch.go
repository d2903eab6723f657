package selector

import (
	"context"

	"github.com/sourin00/adaptive-load-balancer/internal/geoip"
	"github.com/sourin00/adaptive-load-balancer/internal/pool"
	"github.com/sourin00/adaptive-load-balancer/internal/store"
)

// Result is what the dispatcher hands back to the request path: the chosen
// backend (nil if every backend is unhealthy) and the algorithm that was
// actually used (resolved from the meta-selector when the caller passed
// none).
type Result struct {
	Backend      *pool.Backend
	ResolvedAlgo string
}

// Dispatch is select_server from §4.2/§4.6: resolve the algorithm (running
// the meta-selector if algo is empty), apply the RR-family cursor reset
// rule, run the algorithm, and record the new last_used_algo on an accepted
// selection. round_robin, ip_hash, geo_aware and adaptive operate over the
// full ordered pool (their indices are positional and tests depend on
// order); weighted_round_robin, least_connections, power_of_two and
// least_response_time operate over the healthy subset, matching the
// teacher's weighted balancer which already skips dead backends internally.
//
// Dispatch returns a nil Result.Backend only when every backend in the pool
// is unhealthy — the request path then answers 503, never failing a request
// because one particular algorithm's pick happened to be down.
func Dispatch(ctx context.Context, p *pool.Pool, st store.Store, geo geoip.Lookup, algo, clientIP string) (Result, error) {
	if p.Len() == 0 {
		return Result{}, nil
	}

	resolved := algo
	if resolved == "" {
		resolved = SelectAlgorithm(p)
	}
	if !Names[resolved] {
		return Result{ResolvedAlgo: resolved}, ErrUnknownAlgorithm
	}

	// §4.6 steps 4-5: compare to the previously accepted algorithm, reset
	// the RR cursor on a family change, then write the new last_used_algo
	// — unconditionally once the algo name itself is valid, regardless of
	// whether a backend ends up available. §3's invariant excludes only
	// failed parses (the ErrUnknownAlgorithm branch above), not "no
	// healthy backend".
	prev, _ := st.GetLastAlgo(ctx)
	if IsRRFamily(resolved) && prev != "" && !IsRRFamily(prev) {
		_ = st.SetNextIndex(ctx, 0)
	}
	_ = st.SetLastAlgo(ctx, resolved)

	if len(p.Healthy()) == 0 {
		return Result{ResolvedAlgo: resolved}, nil
	}

	var backend *pool.Backend
	switch resolved {
	case RoundRobin:
		backend, _ = selectRoundRobin(ctx, p, st)
	case WeightedRoundRobin:
		backend = selectWeightedRoundRobin(p, p.Healthy())
	case LeastConnections:
		backend = selectLeastConnections(p.Healthy())
	case IPHash:
		backend = selectIPHash(p, clientIP)
	case PowerOfTwo:
		backend = selectPowerOfTwo(p.Healthy())
	case LeastResponseTime:
		backend = selectLeastResponseTime(p.Healthy())
	case GeoAware:
		backend = GeoAwareSelect(p, geo.CountryCode(clientIP))
	case Adaptive:
		backend = AdaptiveSelect(ctx, p, st)
	}

	return Result{Backend: backend, ResolvedAlgo: resolved}, nil
}
