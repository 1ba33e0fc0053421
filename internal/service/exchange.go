package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quickfx/internal/domain/model"
	"quickfx/internal/domain/ports"
	"quickfx/internal/metrics"
	"quickfx/pkg/logger"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrStoreFailure  = errors.New("quote store failure")
	ErrLaunchFailure = errors.New("could not start quote refresh")
)

const (
	DefaultStaleAfter   = 8 * time.Hour
	DefaultPollInterval = 500 * time.Millisecond
)

type Options struct {
	// StaleAfter is the age at which a cached quote triggers a refresh.
	StaleAfter   time.Duration
	PollInterval time.Duration
}

// ExchangeService answers conversions from the quote store and keeps it fresh through
// the launcher. Stale quotes are served while a refresh runs in the background.
type ExchangeService struct {
	store        ports.QuoteStore
	launcher     ports.Launcher
	staleAfter   time.Duration
	pollInterval time.Duration
	now          func() time.Time
	metrics      *metrics.Metrics
	log          *logger.Logger
}

func NewExchangeService(store ports.QuoteStore, launcher ports.Launcher, opts Options, m *metrics.Metrics, log *logger.Logger) *ExchangeService {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &ExchangeService{
		store:        store,
		launcher:     launcher,
		staleAfter:   opts.StaleAfter,
		pollInterval: opts.PollInterval,
		now:          time.Now,
		metrics:      m,
		log:          log,
	}
}

func (s *ExchangeService) Convert(ctx context.Context, req model.ParsedRequest) (*model.Conversion, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	if req.From == req.To {
		s.metrics.ConversionsTotal.WithLabelValues("trivial").Inc()
		return &model.Conversion{
			Request: req,
			Status:  model.StatusDone,
			Amount:  amount.String(),
			Trivial: true,
		}, nil
	}

	if err := s.takeRecordedError(ctx); err != nil {
		s.metrics.ConversionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	pair := req.Pair()
	entry, found, err := s.store.GetQuote(ctx, pair.Key())
	if err != nil {
		s.log.Error("Failed to read quote", "error", err, "pair", pair.Key())
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	if found && entry.Age(s.now()) < s.staleAfter {
		s.metrics.CacheLookups.WithLabelValues("fresh").Inc()
		return s.done(req, amount, entry, false), nil
	}

	if found {
		s.metrics.CacheLookups.WithLabelValues("stale").Inc()
	} else {
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	if err := s.ensureRefresh(ctx, pair); err != nil {
		if !found {
			s.metrics.ConversionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		s.log.Warn("Serving stale quote without refresh", "error", err, "pair", pair.Key())
	}

	if found {
		return s.done(req, amount, entry, true), nil
	}

	s.metrics.ConversionsTotal.WithLabelValues("pending").Inc()
	return &model.Conversion{Request: req, Status: model.StatusPending}, nil
}

// Await calls Convert until it is no longer pending, polling at the configured interval.
func (s *ExchangeService) Await(ctx context.Context, req model.ParsedRequest) (*model.Conversion, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		conv, err := s.Convert(ctx, req)
		if err != nil || !conv.Pending() {
			return conv, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WarmPairs starts refreshes for pairs whose quotes are missing or stale and returns how
// many were started.
func (s *ExchangeService) WarmPairs(ctx context.Context, pairs []model.CurrencyPair) (int, error) {
	started := 0
	var errs []error

	for _, pair := range pairs {
		entry, found, err := s.store.GetQuote(ctx, pair.Key())
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrStoreFailure, err))
			continue
		}
		if found && entry.Age(s.now()) < s.staleAfter {
			continue
		}

		ok, err := s.launcher.Launch(ctx, pair)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrLaunchFailure, pair.Key(), err))
			continue
		}
		if ok {
			started++
		}
	}

	return started, errors.Join(errs...)
}

// takeRecordedError surfaces a failure left behind by a background refresh, at most once.
// The generic slot is checked before the network slot.
func (s *ExchangeService) takeRecordedError(ctx context.Context) error {
	for _, kind := range []model.ErrorKind{model.ErrorKindGeneric, model.ErrorKindNetwork} {
		rec, err := s.store.TakeError(ctx, kind)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
		if rec != nil {
			s.log.Info("Reporting recorded refresh failure", "kind", rec.Kind, "message", rec.Message)
			return rec.Err()
		}
	}
	return nil
}

func (s *ExchangeService) ensureRefresh(ctx context.Context, pair model.CurrencyPair) error {
	running, err := s.launcher.Running(ctx, pair)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}
	if running {
		return nil
	}

	started, err := s.launcher.Launch(ctx, pair)
	if err != nil {
		s.log.Error("Failed to launch refresh", "error", err, "pair", pair.Key())
		return fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}
	if started {
		s.log.Info("Refresh launched", "pair", pair.Key())
	}
	return nil
}

func (s *ExchangeService) done(req model.ParsedRequest, amount decimal.Decimal, entry *model.CacheEntry, stale bool) *model.Conversion {
	quote := entry.Quote
	s.metrics.ConversionsTotal.WithLabelValues("done").Inc()
	return &model.Conversion{
		Request: req,
		Status:  model.StatusDone,
		Amount:  amount.Mul(quote.Rate).String(),
		Quote:   &quote,
		Stale:   stale,
	}
}
