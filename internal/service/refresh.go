package service

import (
	"context"
	"time"

	"quickfx/internal/domain/model"
	"quickfx/internal/domain/ports"
	"quickfx/internal/metrics"
	"quickfx/pkg/logger"
)

// RefreshService is the body of one background fetch: fetch the quote, then record either
// the quote or the failure, then clear the pair's pending marker.
type RefreshService struct {
	fetcher ports.RateFetcher
	store   ports.QuoteStore
	now     func() time.Time
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewRefreshService(fetcher ports.RateFetcher, store ports.QuoteStore, m *metrics.Metrics, log *logger.Logger) *RefreshService {
	return &RefreshService{
		fetcher: fetcher,
		store:   store,
		now:     time.Now,
		metrics: m,
		log:     log,
	}
}

func (r *RefreshService) Refresh(ctx context.Context, pair model.CurrencyPair) error {
	key := pair.Key()
	defer func() {
		if err := r.store.ReleasePending(context.WithoutCancel(ctx), key); err != nil {
			r.log.Error("Failed to clear pending marker", "error", err, "pair", key)
		}
	}()

	start := time.Now()
	quote, err := r.fetcher.FetchRate(ctx, pair)
	r.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		rec := model.NewErrorRecord(err, r.now())
		r.metrics.FetchesTotal.WithLabelValues(string(rec.Kind)).Inc()
		r.log.Error("Failed to fetch quote", "error", err, "pair", key, "kind", rec.Kind)
		if serr := r.store.SetError(context.WithoutCancel(ctx), rec); serr != nil {
			r.log.Error("Failed to record fetch error", "error", serr, "pair", key)
		}
		return err
	}

	entry := &model.CacheEntry{Quote: *quote, StoredAt: r.now()}
	if err := r.store.SetQuote(ctx, key, entry); err != nil {
		r.metrics.FetchesTotal.WithLabelValues("store_error").Inc()
		r.log.Error("Failed to store quote", "error", err, "pair", key)
		return err
	}

	r.metrics.FetchesTotal.WithLabelValues("success").Inc()
	r.log.Info("Quote refreshed", "pair", key, "rate", quote.Rate.String(), "fetch_time", quote.FetchTime())
	return nil
}
