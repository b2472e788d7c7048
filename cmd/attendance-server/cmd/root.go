package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/service/server"
	"github.com/oshokin/attendance-notifier/internal/version"
)

var (
	// opts collects flag values for the server.
	opts = &server.Options{}

	// rootCmd represents the base command for serving the operator API.
	rootCmd = &cobra.Command{
		Use:   "attendance-server [listen-address]",
		Short: "Serve the operator API and watch the roster.",
		Long: `Operator HTTP API for the attendance notifier.

Lists students, records check-ins and check-outs, edits phone numbers and payment dates,
sends manual messages and shows recent deliveries. The roster poll loop runs in the same
process and sends the check-in and check-out notifications, including those caused by
the API.

Listen address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			if len(args) > 0 {
				opts.ListenAddress = args[0]
			}

			return server.Run(ctx, opts)
		},
	}
)

// Execute runs the attendance-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&opts.Runtime.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&opts.Runtime.EnvPath, "env-file", config.DefaultEnvFilename, "path to dotenv file")
	flags.StringVarP(&opts.Runtime.LogLevel, "log-level", "l", "", "override log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.Runtime.TestMode, "test-mode", "t", false, "simulate deliveries without network calls")
	flags.DurationVarP(&opts.CheckInterval, "interval", "i", 0, "override poll interval (e.g. 5s)")
	flags.BoolVar(&opts.DisableMonitor, "no-monitor", false, "serve the API without the poll loop (run attendance-monitor separately to send check-in notifications)")
}
