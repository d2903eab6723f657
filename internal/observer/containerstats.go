package observer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

// DefaultContainerStatsInterval is this optional loop's default period.
const DefaultContainerStatsInterval = 5 * time.Second

// ContainerStatsSource is the runtime collaborator a ContainerStatsPoller
// queries for a backend's raw counters, e.g. a Docker stats API client.
// Disabled by default (§4.4, §9 "container-stats observer role"); no
// concrete source is wired in this repo, only the loop shape and the CPU
// percent formula.
type ContainerStatsSource interface {
	Stats(ctx context.Context, backendName string) (cpuTotal, systemTotal, cpuCount, memUsage float64, err error)
}

// ContainerStatsPoller computes CPU percent as
// (cpu_delta / system_delta) * cpu_count * 100 from consecutive snapshots,
// for deployments where backends expose runtime stats directly rather than
// a /metrics endpoint. Disabled unless started explicitly.
type ContainerStatsPoller struct {
	pool     *pool.Pool
	source   ContainerStatsSource
	interval time.Duration
	log      *zap.SugaredLogger
	cancel   context.CancelFunc

	mu    sync.Mutex
	prior map[string]containerSnapshot
}

type containerSnapshot struct {
	cpuTotal    float64
	systemTotal float64
}

// NewContainerStatsPoller creates a poller but does not start it — callers
// opt in with Start(), keeping this loop off by default.
func NewContainerStatsPoller(p *pool.Pool, source ContainerStatsSource, interval time.Duration, log *zap.SugaredLogger) *ContainerStatsPoller {
	if interval <= 0 {
		interval = DefaultContainerStatsInterval
	}
	return &ContainerStatsPoller{
		pool:     p,
		source:   source,
		interval: interval,
		log:      log,
		prior:    make(map[string]containerSnapshot),
	}
}

// Start begins the polling loop.
func (c *ContainerStatsPoller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
}

// Stop cancels the background loop, if started.
func (c *ContainerStatsPoller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *ContainerStatsPoller) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollAll(ctx)
		}
	}
}

func (c *ContainerStatsPoller) pollAll(ctx context.Context) {
	for _, b := range c.pool.Backends() {
		c.pollOne(ctx, b)
	}
}

func (c *ContainerStatsPoller) pollOne(ctx context.Context, b *pool.Backend) {
	cpuTotal, systemTotal, cpuCount, memUsage, err := c.source.Stats(ctx, b.Name)
	if err != nil {
		c.log.Warnw("container stats poll failed, keeping prior values", "backend", b.Name, "err", err)
		return
	}

	c.mu.Lock()
	prev, ok := c.prior[b.Name]
	c.prior[b.Name] = containerSnapshot{cpuTotal: cpuTotal, systemTotal: systemTotal}
	c.mu.Unlock()

	if !ok {
		return // first sample establishes the baseline only
	}

	cpuDelta := cpuTotal - prev.cpuTotal
	systemDelta := systemTotal - prev.systemTotal
	if systemDelta <= 0 {
		return
	}

	cpuPercent := (cpuDelta / systemDelta) * cpuCount * 100
	snap := b.Snapshot()
	b.ApplyMetrics(pool.Metrics{
		CPU:             cpuPercent,
		Mem:             memUsage,
		NetUsage:        snap.NetUsage,
		ResponseTime:    snap.ResponseTime,
		EffectiveWeight: pool.EffectiveWeightFromScore(pool.CapacityScore(pool.Snapshot{CPU: cpuPercent, Mem: memUsage, Connections: snap.Connections, ResponseTime: snap.ResponseTime})),
	})
}
