package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/sourin00/adaptive-load-balancer/internal/geoip"
	"github.com/sourin00/adaptive-load-balancer/internal/pool"
	"github.com/sourin00/adaptive-load-balancer/internal/store"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestServeHTTPUnknownAlgorithmReturns400(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	p := pool.New([]*pool.Backend{pool.NewBackend("a", backend.URL, 1)})
	lb := New(p, store.NewLocal(), geoip.Noop{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/?algo=not_real", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServeHTTPNoHealthyBackendsReturns503(t *testing.T) {
	b := pool.NewBackend("a", "http://127.0.0.1:1", 1)
	b.SetHealthy(false)
	p := pool.New([]*pool.Backend{b})
	lb := New(p, store.NewLocal(), geoip.Noop{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/?algo=round_robin", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestServeHTTPProxiesSuccessfulResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer backend.Close()

	p := pool.New([]*pool.Backend{pool.NewBackend("a", backend.URL, 1)})
	lb := New(p, store.NewLocal(), geoip.Noop{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/widgets?algo=round_robin", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Fatalf("body = %q, want hello", rec.Body.String())
	}
	if rec.Header().Get("X-Upstream") != "yes" {
		t.Fatal("expected upstream headers to be relayed verbatim")
	}
}

func TestServeHTTPBackendTransportErrorReturns500(t *testing.T) {
	b := pool.NewBackend("a", "http://127.0.0.1:1", 1) // nothing listening, connection refused
	p := pool.New([]*pool.Backend{b})
	lb := New(p, store.NewLocal(), geoip.Noop{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/?algo=round_robin", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestServeHTTPReleasesConnectionCounterOnExit(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	b := pool.NewBackend("a", backend.URL, 1)
	p := pool.New([]*pool.Backend{b})
	lb := New(p, store.NewLocal(), geoip.Noop{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/?algo=least_connections", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	if got := b.Connections(); got != 0 {
		t.Fatalf("connections = %d, want 0 after request completes (release on exit)", got)
	}
}
