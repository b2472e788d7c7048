//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/metrics"
	"github.com/oshokin/attendance-notifier/internal/provider"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/version"
)

// Options controls how a runtime is assembled.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EnvPath is the optional dotenv file loaded before the environment is read.
	EnvPath string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// TestMode forces simulated delivery regardless of the configuration.
	TestMode bool
	// ProviderOptions are passed to provider.New after the configured timeout.
	ProviderOptions []provider.Option
}

// Runtime is the set of components a notifier process runs with.
type Runtime struct {
	Config     *config.Config
	Roster     roster.Editor
	Sender     provider.Sender
	Dispatcher *dispatch.Dispatcher
	Registry   *prom.Registry
	Recorder   *metrics.PrometheusRecorder

	// AccessLogLevel is the resolved level of the HTTP access log.
	AccessLogLevel zapcore.Level
}

// errLogLevel is returned for an unparsable log level.
var errLogLevel = errors.New("unknown log level")

// Bootstrap loads configuration and builds every component.
// Configuration problems are returned as errors wrapping config.ErrInvalidConfiguration.
func Bootstrap(ctx context.Context, opts *Options) (*Runtime, error) {
	if opts == nil {
		opts = &Options{}
	}

	// Dotenv values only fill variables that are not set already.
	envPath := opts.EnvPath
	if envPath == "" {
		envPath = config.DefaultEnvFilename
	}

	if err := config.LoadEnvFile(envPath); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if opts.TestMode {
		cfg.Messaging.TestMode = true
	}

	// Command line level wins over the configured one.
	levelName := cfg.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(levelName)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", config.ErrInvalidConfiguration, errLogLevel, levelName)
	}

	logger.SetLevel(level)

	accessLevel := level
	if cfg.AccessLogLevel != "" {
		if accessLevel, ok = logger.ParseLogLevel(cfg.AccessLogLevel); !ok {
			return nil, fmt.Errorf("%w: %w %q", config.ErrInvalidConfiguration, errLogLevel, cfg.AccessLogLevel)
		}
	}

	store, err := openRoster(ctx, cfg.Roster)
	if err != nil {
		return nil, err
	}

	providerOptions := append([]provider.Option{provider.WithTimeout(cfg.Timeout)}, opts.ProviderOptions...)

	sender, err := provider.New(cfg.Messaging, providerOptions...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build provider: %w", err)
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	rt := &Runtime{
		Config:         cfg,
		Roster:         store,
		Sender:         sender,
		Dispatcher:     dispatch.New(sender, cfg.AcademyName, dispatch.WithRecorder(recorder)),
		Registry:       registry,
		Recorder:       recorder,
		AccessLogLevel: accessLevel,
	}

	kvs := []any{
		"academy", cfg.AcademyName,
		"provider", sender.Kind(),
		"message_kind", cfg.Messaging.MessageKind,
		"test_mode", cfg.Messaging.TestMode,
		"roster_driver", cfg.Roster.Driver,
		"roster_path", cfg.Roster.Path,
	}
	kvs = append(kvs, version.LogFields()...)

	// Host and user are informational only.
	if actor, err := DetectActor(); err == nil {
		kvs = append(kvs, "host", actor.Hostname, "user", actor.Username)
	}

	logger.InfoKV(ctx, "Runtime ready", kvs...)

	return rt, nil
}

// Close releases the roster.
func (r *Runtime) Close() error {
	if r == nil || r.Roster == nil {
		return nil
	}

	return r.Roster.Close()
}

// openRoster opens the configured store, creating a sample roster file on first start.
//
//nolint:ireturn // The adapter is picked by configuration.
func openRoster(ctx context.Context, cfg config.Roster) (roster.Editor, error) {
	store, err := roster.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}

	file, ok := store.(*roster.FileRepository)
	if !ok {
		return store, nil
	}

	created, err := file.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init roster: %w", err)
	}

	if created {
		logger.InfoKV(ctx, "Sample roster created", "path", cfg.Path)
	}

	return store, nil
}
