package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/service/client"
	"github.com/oshokin/attendance-notifier/internal/service/render"
	"github.com/oshokin/attendance-notifier/internal/version"
)

var (
	// opts collects flag values for the manual send.
	opts = &client.Options{}

	// rootCmd represents the base command for sending one message by hand.
	rootCmd = &cobra.Command{
		Use:   "attendance-send <row>",
		Short: "Send one message to a student's family.",
		Long: `Sends a check-in, check-out or payment request message to the phone number
stored for the given roster row.

The payment request text can be replaced with --message. The message is sent once
through the configured provider; use --test-mode to only log it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			row, err := strconv.Atoi(args[0])
			if err != nil || row <= 0 {
				return fmt.Errorf("invalid row %q", args[0])
			}

			opts.Row = row

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.Run(ctx, opts)
		},
	}
)

// Execute runs the attendance-send CLI and exits with non-zero status on error.
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
	flags.BoolVarP(&opts.Runtime.TestMode, "test-mode", "t", false, "log the message instead of sending it")
	flags.StringVarP(&opts.Kind, "type", "k", string(render.ManualCheckIn), "message type: checkin, checkout or payment_request")
	flags.StringVarP(&opts.Message, "message", "m", "", "custom payment request text")
}
