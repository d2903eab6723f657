// Package observer implements the three independent periodic loops that
// keep the pool's state fresh (§4.4): metrics polling, health probing, and
// an optional container-stats poller.
package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

// DefaultMetricsInterval is the default metrics-poll period (§4.4).
const DefaultMetricsInterval = 5 * time.Second

// backendMetrics is the JSON body {cpu_usage, memory_usage, net_usage,
// active_connections, response_time} published at {url}/metrics (§6).
type backendMetrics struct {
	CPUUsage          float64 `json:"cpu_usage"`
	MemoryUsage       float64 `json:"memory_usage"`
	NetUsage          float64 `json:"net_usage"`
	ActiveConnections float64 `json:"active_connections"`
	ResponseTime      float64 `json:"response_time"`
}

// MetricsPoller periodically scrapes every backend's /metrics endpoint and
// recomputes its effective weight, modeled on the teacher's
// internal/health.Checker loop shape.
type MetricsPoller struct {
	mu       sync.Mutex
	pool     *pool.Pool
	client   *http.Client
	interval time.Duration
	log      *zap.SugaredLogger
	cancel   context.CancelFunc
}

// NewMetricsPoller creates and starts a MetricsPoller. A failed poll for a
// backend leaves its prior metric values intact (§4.4).
func NewMetricsPoller(p *pool.Pool, interval time.Duration, log *zap.SugaredLogger) *MetricsPoller {
	if interval <= 0 {
		interval = DefaultMetricsInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &MetricsPoller{
		pool:     p,
		client:   &http.Client{Timeout: 3 * time.Second},
		interval: interval,
		log:      log,
		cancel:   cancel,
	}
	go m.run(ctx)
	return m
}

// Stop cancels the background loop.
func (m *MetricsPoller) Stop() { m.cancel() }

func (m *MetricsPoller) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.pollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollAll(ctx)
		}
	}
}

func (m *MetricsPoller) pollAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, b := range m.pool.Backends() {
		wg.Add(1)
		go func(backend *pool.Backend) {
			defer wg.Done()
			m.pollOne(ctx, backend)
		}(b)
	}
	wg.Wait()
}

func (m *MetricsPoller) pollOne(ctx context.Context, b *pool.Backend) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL+"/metrics", nil)
	if err != nil {
		m.log.Warnw("metrics poll build request failed", "backend", b.Name, "err", err)
		return
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Warnw("metrics poll failed, keeping prior values", "backend", b.Name, "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.log.Warnw("metrics poll returned non-200, keeping prior values", "backend", b.Name, "status", resp.StatusCode)
		return
	}

	var raw backendMetrics
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		m.log.Warnw("metrics poll decode failed, keeping prior values", "backend", b.Name, "err", err)
		return
	}

	snap := pool.Snapshot{CPU: raw.CPUUsage, Mem: raw.MemoryUsage, Connections: int64(raw.ActiveConnections), ResponseTime: raw.ResponseTime}
	score := pool.CapacityScore(snap)
	b.ApplyMetrics(pool.Metrics{
		CPU:             raw.CPUUsage,
		Mem:             raw.MemoryUsage,
		NetUsage:        raw.NetUsage,
		ResponseTime:    raw.ResponseTime,
		Connections:     int64(raw.ActiveConnections),
		EffectiveWeight: pool.EffectiveWeightFromScore(score),
	})
}
