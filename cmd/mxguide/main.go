// Command mxguide maintains the ISO 20022 error-code datasets.
//
// Logging:
//   - Base logger is created by the root command from --log-level/--log-format
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"context"
	"os"
	"os/signal"

	"mxguide/cmd/mxguide/cli"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd := cli.NewRootCommand(version)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
