package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/metrics"
	"github.com/oshokin/attendance-notifier/internal/service/common"
)

// Options controls the monitor process.
type Options struct {
	// Runtime configures how components are loaded.
	Runtime common.Options
	// CheckInterval overrides the configured poll interval when positive.
	CheckInterval time.Duration
}

// metricsShutdownTimeout bounds the metrics server shutdown.
const metricsShutdownTimeout = 5 * time.Second

// Run polls the roster until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "attendance-monitor")

	rt, err := common.Bootstrap(ctx, &opts.Runtime)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Close roster failed", "error", closeErr)
		}
	}()

	// Flag overrides the configured interval.
	interval := rt.Config.CheckInterval
	if opts.CheckInterval > 0 {
		interval = opts.CheckInterval
	}

	if rt.Config.MetricsAddress != "" {
		stop := serveMetrics(ctx, rt.Config.MetricsAddress, metrics.HTTPHandler(rt.Registry))
		defer stop()
	}

	loop := NewLoop(rt.Roster, rt.Dispatcher, WithRecorder(rt.Recorder))

	logger.InfoKV(ctx, "Polling roster", "interval", interval.String())

	return loop.Run(ctx, NewTicker(interval))
}

// serveMetrics exposes handler on addr in the background and returns a stop function.
func serveMetrics(ctx context.Context, addr string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.InfoKV(ctx, "Serving metrics", "address", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics server failed", "error", fmt.Errorf("listen %s: %w", addr, err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}
