package selector

import (
	"crypto/md5" //nolint:gosec // bit-exact compatibility with the original, no security requirement (§4.2)
	"math/big"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

// selectIPHash implements §4.2 ip_hash: MD5(client_ip) interpreted as a
// big-endian integer, modulo pool length. MD5 is a correctness choice here,
// not a security one — stable sharding across restarts is the goal.
func selectIPHash(p *pool.Pool, clientIP string) *pool.Backend {
	n := p.Len()
	if n == 0 {
		return nil
	}
	sum := md5.Sum([]byte(clientIP)) //nolint:gosec
	hashed := new(big.Int).SetBytes(sum[:])
	mod := new(big.Int).SetInt64(int64(n))
	idx := new(big.Int).Mod(hashed, mod).Int64()
	return p.At(int(idx))
}
