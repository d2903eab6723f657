package selector

import "github.com/sourin00/adaptive-load-balancer/internal/pool"

// selectLeastConnections picks the backend with the fewest in-flight connections
// among candidates (the dispatcher passes the healthy subset), ties broken
// by lowest index (§4.2). The request path increments connections before
// proxying and decrements on exit (§4.6).
func selectLeastConnections(candidates []*pool.Backend) *pool.Backend {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestN := best.Connections()
	for _, b := range candidates[1:] {
		n := b.Connections()
		if n < bestN {
			best, bestN = b, n
		}
	}
	return best
}

// selectLeastResponseTime picks the backend with the lowest last-observed
// response time among candidates, ties broken by lowest index (§4.2).
func selectLeastResponseTime(candidates []*pool.Backend) *pool.Backend {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestT := best.ResponseTime()
	for _, b := range candidates[1:] {
		t := b.ResponseTime()
		if t < bestT {
			best, bestT = b, t
		}
	}
	return best
}
