package store

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// faultyStore always fails, simulating an unreachable primary (§7 StoreFault).
type faultyStore struct{}

func (faultyStore) IncrNextIndex(context.Context) (int64, error)       { return 0, errors.New("unreachable") }
func (faultyStore) SetNextIndex(context.Context, int64) error          { return errors.New("unreachable") }
func (faultyStore) GetLastAlgo(context.Context) (string, error)        { return "", errors.New("unreachable") }
func (faultyStore) SetLastAlgo(context.Context, string) error          { return errors.New("unreachable") }
func (faultyStore) GetCachedBestServer(context.Context) (int, bool, error) {
	return 0, false, errors.New("unreachable")
}
func (faultyStore) SetCachedBestServer(context.Context, int) error { return errors.New("unreachable") }

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestFallbackDegradesToLocalOnPrimaryFault(t *testing.T) {
	f := NewFallback(faultyStore{}, testLogger())
	ctx := context.Background()

	idx, err := f.IncrNextIndex(ctx)
	if err != nil {
		t.Fatalf("Fallback must never propagate a primary error, got %v", err)
	}
	if idx != 2 {
		t.Fatalf("expected degraded local counter seeded at 1, first increment = %d, want 2", idx)
	}
}

func TestFallbackWithNilPrimaryGoesStraightToLocal(t *testing.T) {
	f := NewFallback(nil, testLogger())
	ctx := context.Background()

	if err := f.SetLastAlgo(ctx, "ip_hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	algo, err := f.GetLastAlgo(ctx)
	if err != nil || algo != "ip_hash" {
		t.Fatalf("algo = %q err=%v, want ip_hash", algo, err)
	}
}

func TestFallbackSetLastAlgoAlwaysUpdatesLocalEvenWithHealthyPrimary(t *testing.T) {
	f := NewFallback(NewLocal(), testLogger())
	ctx := context.Background()

	if err := f.SetLastAlgo(ctx, "least_connections"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	algo, _ := f.local.GetLastAlgo(ctx)
	if algo != "least_connections" {
		t.Fatalf("local store should track last_used_algo even when primary is healthy, got %q", algo)
	}
}
