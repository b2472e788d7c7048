package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	api "github.com/oshokin/attendance-notifier/internal/api/http/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/metrics"
	"github.com/oshokin/attendance-notifier/internal/service/common"
	"github.com/oshokin/attendance-notifier/internal/service/monitor"
)

// Options controls the attendance-server process and configuration.
type Options struct {
	// Runtime configures how components are loaded.
	Runtime common.Options
	// ListenAddress provides an optional listen address override for the HTTP API.
	ListenAddress string
	// CheckInterval overrides the configured poll interval when positive.
	CheckInterval time.Duration
	// DisableMonitor serves the API without the embedded poll loop.
	DisableMonitor bool
}

const (
	// readHeaderTimeout bounds slow clients.
	readHeaderTimeout = 10 * time.Second
	// shutdownTimeout bounds the graceful HTTP shutdown.
	shutdownTimeout = 10 * time.Second
)

// ErrNoListenAddress indicates missing server configuration.
var ErrNoListenAddress = errors.New("no listen address configured")

// Run starts the HTTP API, and the poll loop unless disabled, and blocks
// until ctx is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "attendance-server")

	rt, err := common.Bootstrap(ctx, &opts.Runtime)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Close roster failed", "error", closeErr)
		}
	}()

	// Determine listen address: CLI argument overrides config.
	listenAddress, err := resolveListenAddress(rt.Config.ListenAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	svc := newService(rt.Roster, rt.Dispatcher, rt.Config.AcademyName, !opts.DisableMonitor)
	router := api.NewRouter(svc,
		api.WithMetricsHandler(metrics.HTTPHandler(rt.Registry)),
		api.WithAccessLogLevel(rt.AccessLogLevel),
	)

	// Setup TCP listener for the HTTP server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var background func(context.Context)

	// The poll loop sends the notifications for API check-ins as well.
	if !opts.DisableMonitor {
		interval := rt.Config.CheckInterval
		if opts.CheckInterval > 0 {
			interval = opts.CheckInterval
		}

		loop := monitor.NewLoop(rt.Roster, rt.Dispatcher, monitor.WithRecorder(rt.Recorder))

		background = func(loopCtx context.Context) {
			_ = loop.Run(logger.WithName(loopCtx, "attendance-monitor"), monitor.NewTicker(interval))
		}
	}

	logger.InfoKV(ctx, "Attendance server listening", "listen_address", listenAddress)

	if err := serve(ctx, httpServer, lis, background); err != nil {
		return err
	}

	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// serve runs srv on lis with background beside it. Both stop when ctx is
// canceled or serving fails, and serve returns only after both have stopped.
func serve(ctx context.Context, srv *http.Server, lis net.Listener, background func(context.Context)) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if background != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()

			background(runCtx)
		}()
	}

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-runCtx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorKV(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	serveErr := srv.Serve(lis)
	if errors.Is(serveErr, http.ErrServerClosed) {
		serveErr = nil
	}

	cancel()
	<-done
	wg.Wait()

	if serveErr != nil {
		return fmt.Errorf("serve HTTP: %w", serveErr)
	}

	return nil
}

// resolveListenAddress determines the listen address for the HTTP server.
// The override wins; either value must be a valid host:port pair
// (e.g. ":5000" or "0.0.0.0:5000").
func resolveListenAddress(configAddr, override string) (string, error) {
	address := configAddr
	if override != "" {
		address = override
	}

	if address == "" {
		return "", ErrNoListenAddress
	}

	if _, _, err := net.SplitHostPort(address); err != nil {
		return "", fmt.Errorf("invalid listen address format %q: %w", address, err)
	}

	return address, nil
}
