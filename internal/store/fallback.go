package store

import (
	"context"

	"go.uber.org/zap"
)

// Fallback wraps a primary Store (normally Redis-backed) and degrades to a
// Local store on any primary fault, per §4.5 "On any store fault, the
// selection engine degrades to local state and continues." Each fault is
// logged once per call, never propagated to the request path.
type Fallback struct {
	primary Store
	local   *Local
	log     *zap.SugaredLogger
}

// NewFallback builds a degrading Store. primary may be nil, in which case
// every call goes straight to the local fallback (used when no shared-store
// address is configured).
func NewFallback(primary Store, log *zap.SugaredLogger) *Fallback {
	return &Fallback{primary: primary, local: NewLocal(), log: log}
}

func (f *Fallback) IncrNextIndex(ctx context.Context) (int64, error) {
	if f.primary != nil {
		if v, err := f.primary.IncrNextIndex(ctx); err == nil {
			return v, nil
		} else {
			f.log.Warnw("shared store unreachable, falling back to local round-robin counter", "op", "incr_next_index", "err", err)
		}
	}
	return f.local.IncrNextIndex(ctx)
}

func (f *Fallback) SetNextIndex(ctx context.Context, v int64) error {
	if f.primary != nil {
		if err := f.primary.SetNextIndex(ctx, v); err == nil {
			_ = f.local.SetNextIndex(ctx, v)
			return nil
		} else {
			f.log.Warnw("shared store unreachable", "op", "set_next_index", "err", err)
		}
	}
	return f.local.SetNextIndex(ctx, v)
}

func (f *Fallback) GetLastAlgo(ctx context.Context) (string, error) {
	if f.primary != nil {
		if v, err := f.primary.GetLastAlgo(ctx); err == nil {
			return v, nil
		} else {
			f.log.Warnw("shared store unreachable", "op", "get_last_algo", "err", err)
		}
	}
	return f.local.GetLastAlgo(ctx)
}

func (f *Fallback) SetLastAlgo(ctx context.Context, algo string) error {
	// Always update local state too, so a later fault still has a
	// reasonably fresh view to degrade to.
	_ = f.local.SetLastAlgo(ctx, algo)
	if f.primary != nil {
		if err := f.primary.SetLastAlgo(ctx, algo); err != nil {
			f.log.Warnw("shared store unreachable", "op", "set_last_algo", "err", err)
			return nil
		}
	}
	return nil
}

func (f *Fallback) GetCachedBestServer(ctx context.Context) (int, bool, error) {
	if f.primary != nil {
		if idx, ok, err := f.primary.GetCachedBestServer(ctx); err == nil {
			return idx, ok, nil
		} else {
			f.log.Warnw("shared store unreachable", "op", "get_cached_best_server", "err", err)
		}
	}
	return f.local.GetCachedBestServer(ctx)
}

func (f *Fallback) SetCachedBestServer(ctx context.Context, idx int) error {
	_ = f.local.SetCachedBestServer(ctx, idx)
	if f.primary != nil {
		if err := f.primary.SetCachedBestServer(ctx, idx); err != nil {
			f.log.Warnw("shared store unreachable", "op", "set_cached_best_server", "err", err)
		}
	}
	return nil
}
