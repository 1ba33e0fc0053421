package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"quickfx/internal/adapter/cache"
	"quickfx/internal/adapter/launcher"
	"quickfx/internal/adapter/repository"
	"quickfx/internal/config"
	"quickfx/internal/domain/ports"
	"quickfx/internal/metrics"
	"quickfx/internal/service"
	"quickfx/pkg/logger"
)

// app holds what every subcommand shares once configuration is loaded.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (a *app) setup(cfg *config.Config, log *logger.Logger) {
	a.cfg = cfg
	a.log = log
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewMetrics(a.registry)
}

// openStore opens the configured quote store. The sqlite path is resolved here so
// detached workers are pointed at the same file.
func (a *app) openStore() (ports.QuoteStore, error) {
	switch a.cfg.Cache.Driver {
	case config.DriverMemory:
		return cache.NewMemoryCache(a.log), nil
	case config.DriverRedis:
		return cache.NewRedisStoreFromURL(a.cfg.Cache.RedisURL, a.cfg.Cache.Prefix, a.log)
	case config.DriverSQLite:
		path, err := a.cfg.Cache.SQLitePath()
		if err != nil {
			return nil, err
		}
		a.cfg.Cache.Path = path
		return cache.NewSQLiteStore(path, a.log)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", a.cfg.Cache.Driver)
	}
}

func (a *app) newRefresher(store ports.QuoteStore) *service.RefreshService {
	fetcher := repository.NewQuoteAPI(a.cfg.QuoteAPI.URL, a.cfg.QuoteAPI.Timeout, a.log)
	return service.NewRefreshService(fetcher, store, a.metrics, a.log)
}

// stack is a converter together with what has to be released after use.
type stack struct {
	store      ports.QuoteStore
	service    *service.ExchangeService
	background *launcher.Background
}

// newStack builds the converter. forceInProcess is used by long-running commands; the
// memory store also implies in-process refreshes since a worker process cannot see it.
func (a *app) newStack(forceInProcess bool) (*stack, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	s := &stack{store: store}
	var l ports.Launcher

	inProcess := forceInProcess ||
		a.cfg.Refresh.Mode == config.ModeInProcess ||
		a.cfg.Cache.Driver == config.DriverMemory
	if inProcess {
		s.background = launcher.NewBackground(a.newRefresher(store), store, a.cfg.QuoteAPI.Timeout, a.metrics, a.log)
		l = s.background
	} else {
		exe, err := os.Executable()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		l = launcher.NewDetached(store, launcher.SelfCommand(exe, a.workerArgs()...), a.cfg.QuoteAPI.Timeout, a.metrics, a.log)
	}

	s.service = service.NewExchangeService(store, l, service.Options{
		StaleAfter:   a.cfg.Cache.StaleAfter,
		PollInterval: a.cfg.Refresh.PollInterval,
	}, a.metrics, a.log)
	return s, nil
}

// workerArgs are the global flags a detached worker needs to open the same store.
func (a *app) workerArgs() []string {
	args := []string{"--cache-driver", a.cfg.Cache.Driver}
	switch a.cfg.Cache.Driver {
	case config.DriverSQLite:
		args = append(args, "--cache-path", a.cfg.Cache.Path)
	case config.DriverRedis:
		args = append(args, "--redis-url", a.cfg.Cache.RedisURL)
	}
	return args
}

// Close waits for in-process refreshes to land, then closes the store.
func (s *stack) Close() error {
	if s.background != nil {
		s.background.Wait()
	}
	return s.store.Close()
}

func (a *app) registerRuntimeCollectors() {
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (a *app) warmPairs(ctx context.Context, svc *service.ExchangeService) {
	pairs, err := a.cfg.Refresh.Pairs()
	if err != nil || len(pairs) == 0 {
		return
	}
	n, err := svc.WarmPairs(ctx, pairs)
	if err != nil {
		a.log.Error("Failed to warm quotes", "error", err)
	}
	if n > 0 {
		a.log.Info("Warming quotes", "started", n, "pairs", len(pairs))
	}
}
