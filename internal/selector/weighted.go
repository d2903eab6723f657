package selector

import "github.com/sourin00/adaptive-load-balancer/internal/pool"

// selectWeightedRoundRobin implements Nginx-style smooth weighted round robin
// (§4.2): add each backend's effective weight (falling back to its static
// weight when unset) to its current_weight, pick the largest current_weight
// (ties by lowest index), then subtract the total from the winner. The
// whole read-modify-write runs under the pool's WRR lock so it is atomic
// with the selection, per §5's ordering guarantee.
func selectWeightedRoundRobin(p *pool.Pool, candidates []*pool.Backend) *pool.Backend {
	if len(candidates) == 0 {
		return nil
	}

	var picked *pool.Backend
	p.WithWRRLock(func() {
		total := 0
		bestCurrent := 0
		for _, b := range candidates {
			w := b.EffectiveWeight()
			if w <= 0 {
				w = b.Weight
			}
			if w <= 0 {
				w = 1
			}
			total += w
			b.AddCurrentWeight(w)
			cur := b.CurrentWeight()
			if picked == nil || cur > bestCurrent {
				picked = b
				bestCurrent = cur
			}
		}
		if picked != nil {
			picked.SubCurrentWeight(total)
		}
	})
	return picked
}
