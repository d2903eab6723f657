package selector

import (
	"testing"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

func TestWeightedRoundRobinDistributesByWeight(t *testing.T) {
	a := pool.NewBackend("a", "http://a", 1)
	b := pool.NewBackend("b", "http://b", 3)
	p := pool.New([]*pool.Backend{a, b})
	candidates := []*pool.Backend{a, b}

	counts := map[*pool.Backend]int{}
	const rounds = 40
	for i := 0; i < rounds; i++ {
		picked := selectWeightedRoundRobin(p, candidates)
		if picked == nil {
			t.Fatal("unexpected nil pick")
		}
		counts[picked]++
	}

	// Over a long enough run smooth-WRR should approximate the 1:3 weight
	// ratio; allow generous slack since this isn't an exact period check.
	if counts[b] <= counts[a] {
		t.Fatalf("expected backend with weight 3 to be picked more often: a=%d b=%d", counts[a], counts[b])
	}
}

func TestWeightedRoundRobinEmptyCandidates(t *testing.T) {
	p := pool.New(nil)
	if got := selectWeightedRoundRobin(p, nil); got != nil {
		t.Fatal("expected nil for empty candidate set")
	}
}

func TestWeightedRoundRobinUsesEffectiveWeightOverStatic(t *testing.T) {
	a := pool.NewBackend("a", "http://a", 1)
	a.ApplyMetrics(pool.Metrics{EffectiveWeight: 5})
	b := pool.NewBackend("b", "http://b", 1)
	b.ApplyMetrics(pool.Metrics{EffectiveWeight: 1})
	p := pool.New([]*pool.Backend{a, b})
	candidates := []*pool.Backend{a, b}

	counts := map[*pool.Backend]int{}
	for i := 0; i < 30; i++ {
		counts[selectWeightedRoundRobin(p, candidates)]++
	}
	if counts[a] <= counts[b] {
		t.Fatalf("expected higher effective-weight backend to win more often: a=%d b=%d", counts[a], counts[b])
	}
}
