package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterAdminHandlers mounts the Prometheus scrape endpoint (§6, §4.7) and
// a couple of operational endpoints on the admin/scrape mux, grounded on the
// teacher's Gateway.RegisterAdminHandlers.
func (lb *LoadBalancer) RegisterAdminHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/backends", lb.backendsHandler)
}

type backendStatus struct {
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	Healthy         bool    `json:"healthy"`
	Connections     int64   `json:"connections"`
	EffectiveWeight int     `json:"effective_weight"`
	ResponseTime    float64 `json:"response_time"`
}

func (lb *LoadBalancer) backendsHandler(w http.ResponseWriter, _ *http.Request) {
	backends := lb.pool.Backends()
	out := make([]backendStatus, 0, len(backends))
	for _, b := range backends {
		s := b.Snapshot()
		out = append(out, backendStatus{
			Name:            s.Name,
			URL:             s.URL,
			Healthy:         s.Healthy,
			Connections:     s.Connections,
			EffectiveWeight: s.EffectiveWeight,
			ResponseTime:    s.ResponseTime,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
