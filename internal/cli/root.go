// Package cli wires configuration, stores, launchers and front ends into the quickfx
// command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quickfx/internal/config"
	"quickfx/pkg/logger"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type rootFlags struct {
	debug       bool
	envFile     string
	cacheDriver string
	cachePath   string
	redisURL    string
	refreshMode string
}

// NewRootCmd builds the quickfx command tree.
func NewRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "quickfx",
		Short: "Convert currency amounts with cached live spot rates",
		Long: "quickfx converts \"<amount> <FROM> to <TO>\" using interbank spot rates.\n" +
			"Rates are cached for a few hours and refreshed in the background, so a\n" +
			"conversion never waits on the network.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(flags.envFile)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, flags, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if flags.debug {
				log = logger.New(cmd.ErrOrStderr(), "debug", "console")
			}
			a.setup(cfg, log)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.debug, "debug", false, "log at debug level in console format")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&flags.cacheDriver, "cache-driver", "", "quote store: memory, sqlite or redis")
	pf.StringVar(&flags.cachePath, "cache-path", "", "sqlite cache file")
	pf.StringVar(&flags.redisURL, "redis-url", "", "redis URL for the redis cache driver")
	pf.StringVar(&flags.refreshMode, "refresh-mode", "", "background refresh: inprocess or detached")

	cmd.AddCommand(
		newConvertCmd(a),
		newInteractiveCmd(a),
		newServeCmd(a),
		newFetchCmd(a),
	)
	return cmd
}

func applyFlagOverrides(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("cache-driver") {
		cfg.Cache.Driver = flags.cacheDriver
	}
	if changed("cache-path") {
		cfg.Cache.Path = flags.cachePath
	}
	if changed("redis-url") {
		cfg.Cache.RedisURL = flags.redisURL
	}
	if changed("refresh-mode") {
		cfg.Refresh.Mode = flags.refreshMode
	}
}
