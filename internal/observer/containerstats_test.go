package observer

import (
	"context"
	"testing"
	"time"

	"github.com/sourin00/adaptive-load-balancer/internal/pool"
)

type fakeContainerSource struct {
	samples []sample
	i       int
}

type sample struct {
	cpuTotal, systemTotal, cpuCount, memUsage float64
}

func (f *fakeContainerSource) Stats(_ context.Context, _ string) (float64, float64, float64, float64, error) {
	s := f.samples[f.i]
	if f.i < len(f.samples)-1 {
		f.i++
	}
	return s.cpuTotal, s.systemTotal, s.cpuCount, s.memUsage, nil
}

func TestContainerStatsPollerComputesCPUPercentFromDelta(t *testing.T) {
	b := pool.NewBackend("a", "http://a", 1)
	p := pool.New([]*pool.Backend{b})
	source := &fakeContainerSource{samples: []sample{
		{cpuTotal: 1000, systemTotal: 10000, cpuCount: 2, memUsage: 30},
		{cpuTotal: 1200, systemTotal: 10500, cpuCount: 2, memUsage: 35},
	}}

	poller := NewContainerStatsPoller(p, source, time.Hour, testLogger())

	poller.pollOne(context.Background(), b) // establishes baseline, no metrics applied yet
	if b.Snapshot().CPU != 0 {
		t.Fatal("first sample should only establish a baseline, not apply metrics")
	}

	poller.pollOne(context.Background(), b)
	want := (200.0 / 500.0) * 2 * 100
	if got := b.Snapshot().CPU; got != want {
		t.Fatalf("CPU = %v, want %v", got, want)
	}
	if got := b.Snapshot().Mem; got != 35 {
		t.Fatalf("Mem = %v, want 35", got)
	}
}

func TestContainerStatsPollerNotStartedByDefault(t *testing.T) {
	b := pool.NewBackend("a", "http://a", 1)
	p := pool.New([]*pool.Backend{b})
	source := &fakeContainerSource{samples: []sample{{cpuTotal: 1, systemTotal: 1, cpuCount: 1, memUsage: 1}}}

	poller := NewContainerStatsPoller(p, source, time.Millisecond, testLogger())
	// Deliberately never call Start(): the loop must not run on its own.
	time.Sleep(20 * time.Millisecond)
	poller.Stop() // must be safe to call even when never started

	if b.Snapshot().CPU != 0 {
		t.Fatal("poller must not run until Start() is called")
	}
}
