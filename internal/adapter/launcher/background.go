package launcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quickfx/internal/domain/model"
	"quickfx/internal/domain/ports"
	"quickfx/internal/metrics"
	"quickfx/pkg/logger"
)

// Background runs refreshes as goroutines in this process. Calls for a pair that is
// already in flight join the running fetch instead of starting another one. The store's
// pending marker extends the guarantee to other processes sharing the store.
type Background struct {
	refresher ports.Refresher
	store     ports.QuoteStore
	timeout   time.Duration
	group     singleflight.Group
	inflight  sync.Map
	wg        sync.WaitGroup
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewBackground returns a launcher whose jobs each run under their own timeout,
// detached from the caller's context.
func NewBackground(refresher ports.Refresher, store ports.QuoteStore, timeout time.Duration, m *metrics.Metrics, log *logger.Logger) *Background {
	return &Background{
		refresher: refresher,
		store:     store,
		timeout:   timeout,
		metrics:   m,
		log:       log,
	}
}

func (b *Background) Launch(ctx context.Context, pair model.CurrencyPair) (bool, error) {
	key := pair.Key()
	if _, busy := b.inflight.Load(key); busy {
		return false, nil
	}

	jobCtx := context.WithoutCancel(ctx)
	b.wg.Add(1)
	ch := b.group.DoChan(key, func() (any, error) {
		return nil, b.run(jobCtx, pair)
	})
	go func() {
		defer b.wg.Done()
		if res := <-ch; res.Err != nil {
			b.log.Debug("Background refresh finished with error", "pair", key, "error", res.Err, "shared", res.Shared)
		}
	}()

	return true, nil
}

func (b *Background) run(ctx context.Context, pair model.CurrencyPair) error {
	key := pair.Key()
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	acquired, err := b.store.AcquirePending(ctx, key, b.timeout+markerGrace)
	if err != nil {
		b.log.Error("Failed to set pending marker", "error", err, "pair", key)
		return err
	}
	if !acquired {
		b.log.Debug("Refresh already running elsewhere", "pair", key)
		return nil
	}

	b.inflight.Store(key, struct{}{})
	defer b.inflight.Delete(key)

	b.metrics.LaunchesTotal.Inc()
	return b.refresher.Refresh(ctx, pair)
}

// Running reports a fetch in this process or, through the store marker, in another one.
func (b *Background) Running(ctx context.Context, pair model.CurrencyPair) (bool, error) {
	if _, busy := b.inflight.Load(pair.Key()); busy {
		return true, nil
	}
	return b.store.IsPending(ctx, pair.Key())
}

// Wait blocks until every job launched so far has finished.
func (b *Background) Wait() {
	b.wg.Wait()
}
