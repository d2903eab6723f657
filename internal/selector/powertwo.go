package selector

import (
	"math/rand"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

// selectPowerOfTwo picks two distinct random indices among candidates and returns
// the one with fewer connections, ties broken by lowest index (§4.2, §9
// "pool size < 2" rule): 0 candidates -> nil, 1 candidate -> that backend,
// exactly 2 -> both are always the pair considered.
func selectPowerOfTwo(candidates []*pool.Backend) *pool.Backend {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return candidates[0]
	}

	i1 := rand.Intn(n)
	i2 := rand.Intn(n - 1)
	if i2 >= i1 {
		i2++
	}
	if i1 > i2 {
		i1, i2 = i2, i1
	}

	a, b := candidates[i1], candidates[i2]
	if b.Connections() < a.Connections() {
		return b
	}
	return a
}
