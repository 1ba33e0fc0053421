package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"quickfx/internal/domain/model"
	"quickfx/internal/metrics"
)

type MockLauncher struct {
	LaunchFunc  func(ctx context.Context, pair model.CurrencyPair) (bool, error)
	RunningFunc func(ctx context.Context, pair model.CurrencyPair) (bool, error)
}

func (m *MockLauncher) Launch(ctx context.Context, pair model.CurrencyPair) (bool, error) {
	return m.LaunchFunc(ctx, pair)
}

func (m *MockLauncher) Running(ctx context.Context, pair model.CurrencyPair) (bool, error) {
	return m.RunningFunc(ctx, pair)
}

type MockRateFetcher struct {
	FetchRateFunc func(ctx context.Context, pair model.CurrencyPair) (*model.RateQuote, error)
}

func (m *MockRateFetcher) FetchRate(ctx context.Context, pair model.CurrencyPair) (*model.RateQuote, error) {
	return m.FetchRateFunc(ctx, pair)
}

type MockQuoteStore struct {
	GetQuoteFunc       func(ctx context.Context, key string) (*model.CacheEntry, bool, error)
	SetQuoteFunc       func(ctx context.Context, key string, entry *model.CacheEntry) error
	SetErrorFunc       func(ctx context.Context, rec *model.ErrorRecord) error
	TakeErrorFunc      func(ctx context.Context, kind model.ErrorKind) (*model.ErrorRecord, error)
	AcquirePendingFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsPendingFunc      func(ctx context.Context, key string) (bool, error)
	ReleasePendingFunc func(ctx context.Context, key string) error
}

func (m *MockQuoteStore) GetQuote(ctx context.Context, key string) (*model.CacheEntry, bool, error) {
	return m.GetQuoteFunc(ctx, key)
}

func (m *MockQuoteStore) SetQuote(ctx context.Context, key string, entry *model.CacheEntry) error {
	return m.SetQuoteFunc(ctx, key, entry)
}

func (m *MockQuoteStore) SetError(ctx context.Context, rec *model.ErrorRecord) error {
	return m.SetErrorFunc(ctx, rec)
}

func (m *MockQuoteStore) TakeError(ctx context.Context, kind model.ErrorKind) (*model.ErrorRecord, error) {
	return m.TakeErrorFunc(ctx, kind)
}

func (m *MockQuoteStore) AcquirePending(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return m.AcquirePendingFunc(ctx, key, ttl)
}

func (m *MockQuoteStore) IsPending(ctx context.Context, key string) (bool, error) {
	return m.IsPendingFunc(ctx, key)
}

func (m *MockQuoteStore) ReleasePending(ctx context.Context, key string) error {
	return m.ReleasePendingFunc(ctx, key)
}

func (m *MockQuoteStore) Close() error {
	return nil
}

func newMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}
