package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpRouter "quickfx/internal/adapter/http"
	"quickfx/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			a.registerRuntimeCollectors()

			s, err := a.newStack(true)
			if err != nil {
				return err
			}
			defer s.Close()

			handler := httpRouter.NewHandler(s.service, a.log, a.metrics)
			router := httpRouter.NewRouter(handler, a.registry, a.log, a.metrics)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
				Handler:      router.SetupRoutes(),
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				IdleTimeout:  a.cfg.Server.IdleTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go warmQuotes(ctx, a, s.service)

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("Starting HTTP server", "port", a.cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			a.log.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			a.log.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from QUICKFX_SERVER_PORT)")
	return cmd
}

// warmQuotes refreshes the configured pairs at startup and then on every tick.
func warmQuotes(ctx context.Context, a *app, svc *service.ExchangeService) {
	a.warmPairs(ctx, svc)

	ticker := time.NewTicker(a.cfg.Refresh.WarmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.warmPairs(ctx, svc)
		case <-ctx.Done():
			a.log.Info("Stopping quote warm-up loop")
			return
		}
	}
}
