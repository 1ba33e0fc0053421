package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"quickfx/internal/domain/model"
	"quickfx/internal/domain/ports"
	"quickfx/internal/metrics"
	"quickfx/pkg/logger"
)

// markerGrace keeps a pending marker alive a little past the fetch timeout so the worker
// can record its result before the marker lapses.
const markerGrace = 5 * time.Second

// CommandFunc builds the worker process for a pair, e.g. "quickfx fetch USD JPY".
type CommandFunc func(pair model.CurrencyPair) *exec.Cmd

// Detached runs each refresh as a separate process that outlives the caller. Liveness is
// the store's pending marker: set here before spawning, cleared by the worker.
type Detached struct {
	store     ports.QuoteStore
	command   CommandFunc
	markerTTL time.Duration
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewDetached(store ports.QuoteStore, command CommandFunc, fetchTimeout time.Duration, m *metrics.Metrics, log *logger.Logger) *Detached {
	return &Detached{
		store:     store,
		command:   command,
		markerTTL: fetchTimeout + markerGrace,
		metrics:   m,
		log:       log,
	}
}

// SelfCommand re-executes executable with the fetch subcommand, keeping globalArgs
// (such as --cache-path) so the worker opens the same store.
func SelfCommand(executable string, globalArgs ...string) CommandFunc {
	return func(pair model.CurrencyPair) *exec.Cmd {
		args := append([]string{}, globalArgs...)
		args = append(args, "fetch", pair.Base.String(), pair.Term.String())
		return exec.Command(executable, args...)
	}
}

func (d *Detached) Launch(ctx context.Context, pair model.CurrencyPair) (bool, error) {
	key := pair.Key()
	acquired, err := d.store.AcquirePending(ctx, key, d.markerTTL)
	if err != nil {
		return false, fmt.Errorf("set pending marker: %w", err)
	}
	if !acquired {
		return false, nil
	}

	cmd := d.command(pair)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		if rerr := d.store.ReleasePending(context.WithoutCancel(ctx), key); rerr != nil {
			d.log.Error("Failed to clear pending marker", "error", rerr, "pair", key)
		}
		return false, fmt.Errorf("start fetch worker: %w", err)
	}

	d.metrics.LaunchesTotal.Inc()
	d.log.Debug("Fetch worker started", "pair", key, "pid", cmd.Process.Pid)

	// Reap the child if this process is still around when it exits.
	go func() { _ = cmd.Wait() }()

	return true, nil
}

func (d *Detached) Running(ctx context.Context, pair model.CurrencyPair) (bool, error) {
	return d.store.IsPending(ctx, pair.Key())
}
