package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quickfx/internal/domain/model"
)

// newFetchCmd is the detached worker. The launcher sets the pair's pending marker before
// spawning it and the refresh clears it, whatever the outcome.
func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <FROM> <TO>",
		Short: "Fetch one quote into the cache (run by background refreshes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, ok := model.ParseCode(args[0])
			if !ok {
				return fmt.Errorf("invalid currency code %q", args[0])
			}
			term, ok := model.ParseCode(args[1])
			if !ok {
				return fmt.Errorf("invalid currency code %q", args[1])
			}
			pair := model.CurrencyPair{Base: base, Term: term}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.QuoteAPI.Timeout)
			defer cancel()

			log := a.log.With("pair", pair.Key())
			log.Debug("Worker started")
			if err := a.newRefresher(store).Refresh(ctx, pair); err != nil {
				return fmt.Errorf("fetch %s: %w", pair.Key(), err)
			}
			log.Debug("Worker finished")
			return nil
		},
	}
}
