package selector

import (
	"testing"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

func TestIPHashIsStableForSameClient(t *testing.T) {
	p := testPool(5)
	first := selectIPHash(p, "203.0.113.7")
	for i := 0; i < 10; i++ {
		if got := selectIPHash(p, "203.0.113.7"); got != first {
			t.Fatal("ip_hash must return the same backend for the same client IP")
		}
	}
}

func TestIPHashDistributesAcrossClients(t *testing.T) {
	p := testPool(8)
	picks := map[*pool.Backend]bool{}
	for i := 0; i < 50; i++ {
		ip := "198.51.100." + string(rune('0'+i%10))
		picks[selectIPHash(p, ip)] = true
	}
	if len(picks) < 2 {
		t.Fatal("expected ip_hash to spread different client IPs across more than one backend")
	}
}

func TestIPHashEmptyPool(t *testing.T) {
	p := testPool(0)
	if got := selectIPHash(p, "1.2.3.4"); got != nil {
		t.Fatal("expected nil for empty pool")
	}
}
