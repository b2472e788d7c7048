package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/service/monitor"
	"github.com/oshokin/attendance-notifier/internal/version"
)

var (
	// opts collects flag values for the monitor.
	opts = &monitor.Options{}

	// rootCmd represents the base command for polling the roster.
	rootCmd = &cobra.Command{
		Use:   "attendance-monitor",
		Short: "Watch the roster and notify families on check-in and check-out.",
		Long: `Background service that polls the roster and sends a message whenever a student
checks in or out.

The first read is taken as the baseline and never notifies. After that, every change of
a student's status between checked out (0) and checked in (1) is rendered and sent once
through the configured provider. Failed deliveries are logged and not retried.

Settings come from the configuration file, a .env file and environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return monitor.Run(ctx, opts)
		},
	}
)

// Execute runs the attendance-monitor CLI and exits with non-zero status on error.
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
}
