package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"quickfx/internal/domain/model"
	"quickfx/internal/parser"
	"quickfx/internal/render"
)

const (
	outputPlain  = "plain"
	outputJSON   = "json"
	outputAlfred = "alfred"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		output string
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "convert <amount> <FROM> to <TO>",
		Short: "Convert once and print the result",
		Example: `  quickfx convert 100 USD to JPY
  quickfx convert --output alfred "{query}"
  quickfx convert --wait 25.5 eur in gbp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			write, err := writerFor(output)
			if err != nil {
				return err
			}

			s, err := a.newStack(false)
			if err != nil {
				return err
			}
			defer s.Close()

			conv, convErr := convertQuery(cmd.Context(), s, strings.Join(args, " "), wait)
			return write(cmd.OutOrStdout(), render.Render(conv, convErr))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputPlain, "output format: plain, json or alfred")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for a pending quote instead of reporting it")
	return cmd
}

// convertQuery never fails the command for conversion errors; they are rendered instead.
func convertQuery(ctx context.Context, s *stack, query string, wait bool) (*model.Conversion, error) {
	req, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	if wait {
		return s.service.Await(ctx, req)
	}
	return s.service.Convert(ctx, req)
}

func writerFor(output string) (func(io.Writer, render.Feedback) error, error) {
	switch output {
	case outputPlain:
		return render.WritePlain, nil
	case outputJSON:
		return render.WriteJSON, nil
	case outputAlfred:
		return render.WriteAlfred, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", output)
	}
}
