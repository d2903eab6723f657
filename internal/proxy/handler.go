// Package proxy implements the request path (§4.6): parse the incoming
// request, select a backend, proxy the call with a bounded timeout,
// release counters and record latency on every exit, and emit the
// exported metrics (§4.7). Adapted from the teacher's
// internal/proxy/gateway.go, generalized from a multi-route gateway to the
// single-pool selection engine this repo implements.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sourin00/adaptive-load-balancer/internal/geoip"
	"github.com/sourin00/adaptive-load-balancer/internal/metrics"
	"github.com/sourin00/adaptive-load-balancer/internal/pool"
	"github.com/sourin00/adaptive-load-balancer/internal/selector"
	"github.com/sourin00/adaptive-load-balancer/internal/store"
)

// Timeouts from §4.6 step 11 / §5 "Suspension points".
const (
	backendReadTimeout = 2500 * time.Millisecond
	backendOuterBound  = 3000 * time.Millisecond
)

// LoadBalancer is the http.Handler for the serving port's single route.
type LoadBalancer struct {
	pool   *pool.Pool
	store  store.Store
	geo    geoip.Lookup
	log    *zap.SugaredLogger
	client *http.Client
}

// New builds a LoadBalancer over the given pool, shared store and geo-IP
// lookup.
func New(p *pool.Pool, st store.Store, geo geoip.Lookup, log *zap.SugaredLogger) *LoadBalancer {
	if geo == nil {
		geo = geoip.Noop{}
	}
	return &LoadBalancer{
		pool:  p,
		store: st,
		geo:   geo,
		log:   log,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   backendReadTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: backendReadTimeout,
				MaxIdleConns:          200,
				MaxIdleConnsPerHost:   20,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// ServeHTTP implements §4.6 end to end.
func (lb *LoadBalancer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now() // step 1
	metrics.RequestsTotal.Inc() // step 2

	algo := r.URL.Query().Get("algo") // step 3 (resolution happens inside Dispatch)
	clientIP := clientIP(r)           // step 6

	result, err := selector.Dispatch(r.Context(), lb.pool, lb.store, lb.geo, algo, clientIP) // steps 4,5,7
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid algorithm specified")
		return
	}

	if result.Backend == nil { // step 8
		writeJSONError(w, http.StatusServiceUnavailable, "No backend available")
		return
	}
	backend := result.Backend

	tracked := selector.CounterTracking(result.ResolvedAlgo)
	if tracked { // step 9
		backend.IncConnections()
	}
	defer func() {
		if tracked {
			backend.DecConnections()
		}
		elapsed := time.Since(start).Seconds()
		backend.SetResponseTime(elapsed)
		metrics.ResponseDuration.WithLabelValues(result.ResolvedAlgo).Observe(elapsed)
	}()

	metrics.AlgoRequestsTotal.WithLabelValues(result.ResolvedAlgo).Inc() // step 10

	lb.proxy(w, r, backend, result.ResolvedAlgo) // steps 11-13
}

func (lb *LoadBalancer) proxy(w http.ResponseWriter, r *http.Request, backend *pool.Backend, algo string) {
	ctx, cancel := context.WithTimeout(r.Context(), backendOuterBound)
	defer cancel()

	target := strings.TrimRight(backend.URL, "/") + r.URL.Path + "?algo=" + algo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("X-Forwarded-For", forwardedFor(r))

	resp, err := lb.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			writeJSONError(w, http.StatusGatewayTimeout, "Backend timeout")
			return
		}
		lb.log.Errorw("backend transport error", "backend", backend.Name, "err", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// clientIP implements §4.6 step 6: the first X-Forwarded-For entry if
// present, else the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func forwardedFor(r *http.Request) string {
	ip := clientIP(r)
	if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
		return prior
	}
	return ip
}
