package observer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

// DefaultHealthInterval is the default health-probe period (§4.4).
const DefaultHealthInterval = 10 * time.Second

// healthProbeTimeout is the fixed per-probe timeout §4.4 specifies.
const healthProbeTimeout = 2 * time.Second

// HealthProber periodically probes every backend's /health endpoint and
// flips its healthy flag. Modeled on the teacher's internal/health.Checker.
type HealthProber struct {
	pool     *pool.Pool
	client   *http.Client
	interval time.Duration
	log      *zap.SugaredLogger
	cancel   context.CancelFunc
}

// NewHealthProber creates and starts a HealthProber.
func NewHealthProber(p *pool.Pool, interval time.Duration, log *zap.SugaredLogger) *HealthProber {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &HealthProber{
		pool:     p,
		interval: interval,
		log:      log,
		cancel:   cancel,
		client: &http.Client{
			Timeout: healthProbeTimeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	go h.run(ctx)
	return h
}

// Stop cancels the background loop.
func (h *HealthProber) Stop() { h.cancel() }

func (h *HealthProber) run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.probeAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.probeAll(ctx)
		}
	}
}

func (h *HealthProber) probeAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, b := range h.pool.Backends() {
		wg.Add(1)
		go func(backend *pool.Backend) {
			defer wg.Done()
			h.probeOne(ctx, backend)
		}(b)
	}
	wg.Wait()
}

func (h *HealthProber) probeOne(ctx context.Context, b *pool.Backend) {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL+"/health", nil)
	if err != nil {
		b.SetHealthy(false)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if b.IsHealthy() {
			h.log.Warnw("backend became unhealthy", "backend", b.Name, "err", err)
		}
		b.SetHealthy(false)
		return
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	if !b.IsHealthy() && healthy {
		h.log.Infow("backend recovered", "backend", b.Name)
	}
	b.SetHealthy(healthy)
}
