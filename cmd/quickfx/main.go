package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"quickfx/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "quickfx:", err)
		stop()
		os.Exit(1)
	}
}
