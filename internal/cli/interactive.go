package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quickfx/internal/tui"
)

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive [initial query]",
		Aliases: []string{"i"},
		Short:   "Convert as you type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return errors.New("interactive mode needs a terminal; use convert instead")
			}

			s, err := a.newStack(false)
			if err != nil {
				return err
			}
			defer s.Close()

			return tui.Run(cmd.Context(), s.service, a.cfg.Refresh.PollInterval, strings.Join(args, " "))
		},
	}
}
