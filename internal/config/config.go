package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything a notifier process needs to run.
type Config struct {
	// AcademyName is inserted into every rendered message.
	AcademyName string `yaml:"academy_name"`
	// CheckInterval is the delay between two poll ticks.
	CheckInterval time.Duration `yaml:"check_interval"`
	// Timeout bounds every provider HTTP call.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// AccessLogLevel sets the level of the HTTP access log. Empty follows LogLevel.
	AccessLogLevel string `yaml:"access_log_level,omitempty"`
	// ListenAddress is where the operator HTTP API listens.
	ListenAddress string `yaml:"listen_addr"`
	// MetricsAddress optionally exposes Prometheus metrics from the monitor binary.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// Roster selects the record store adapter.
	Roster Roster `yaml:"roster"`
	// Messaging selects and configures the delivery backend.
	Messaging Messaging `yaml:"messaging"`
}

// Roster configures the record store adapter.
type Roster struct {
	// Driver is either "file" or "sqlite".
	Driver string `yaml:"driver"`
	// Path is the roster YAML file or the SQLite database file.
	Path string `yaml:"path"`
}

const (
	// DefaultConfigFilename is the default filename for the configuration document.
	DefaultConfigFilename = "attendance-notifier.yaml"

	// DefaultEnvFilename is the optional dotenv file read before the environment.
	DefaultEnvFilename = ".env"

	// DefaultAcademyName is used when no academy name is configured.
	DefaultAcademyName = "OO학원"

	// DefaultCheckInterval is the default delay between poll ticks.
	DefaultCheckInterval = 5 * time.Second

	// DefaultTimeout is the default duration for provider calls.
	DefaultTimeout = 10 * time.Second

	// DefaultListenAddress is the default operator API address.
	DefaultListenAddress = ":5000"

	// DefaultRosterFilename is the default roster file for the file driver.
	DefaultRosterFilename = "roster.yaml"

	// DefaultRosterDatabase is the default database file for the sqlite driver.
	DefaultRosterDatabase = "roster.db"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// RosterDriverFile stores the roster in a YAML document.
	RosterDriverFile = "file"
	// RosterDriverSQLite stores the roster in a SQLite database.
	RosterDriverSQLite = "sqlite"
)

var (
	// ErrInvalidConfiguration wraps every validation failure.
	// It is fatal at start-up and never raised afterwards.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. Any problem is fatal for the caller.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg, err := Parse(contents)
	if err != nil {
		return nil, err
	}

	ApplyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but starts from Default when the file does
// not exist, so a process can be configured from the environment alone.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	cfg = Default()
	ApplyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes a configuration document without validating it.
// JSON documents are accepted as well since JSON is a subset of YAML.
func Parse(contents []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Credentials live in this file, keep it private.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Default returns a configuration that runs out of the box in test mode.
func Default() *Config {
	return &Config{
		AcademyName:   DefaultAcademyName,
		CheckInterval: DefaultCheckInterval,
		Timeout:       DefaultTimeout,
		LogLevel:      "info",
		ListenAddress: DefaultListenAddress,
		Roster: Roster{
			Driver: RosterDriverFile,
			Path:   DefaultRosterFilename,
		},
		Messaging: Messaging{
			Provider:    ProviderNaver,
			TestMode:    true,
			MessageKind: MessageKindSMS,
		},
	}
}

// Validate fills defaults and checks the settings for required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.AcademyName = strings.TrimSpace(cfg.AcademyName)
	if cfg.AcademyName == "" {
		cfg.AcademyName = DefaultAcademyName
	}

	// Bare numbers ("check_interval: 5") decode as nanoseconds; older
	// documents meant seconds.
	if cfg.CheckInterval > 0 && cfg.CheckInterval < time.Millisecond {
		cfg.CheckInterval *= time.Second
	}

	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if err := validateRoster(&cfg.Roster); err != nil {
		return err
	}

	return cfg.Messaging.Validate()
}

func validateRoster(roster *Roster) error {
	roster.Driver = strings.ToLower(strings.TrimSpace(roster.Driver))

	switch roster.Driver {
	case "":
		roster.Driver = RosterDriverFile
	case RosterDriverFile, RosterDriverSQLite:
	default:
		return fmt.Errorf("%w: unknown roster driver %q", ErrInvalidConfiguration, roster.Driver)
	}

	if roster.Path != "" {
		return nil
	}

	roster.Path = DefaultRosterFilename
	if roster.Driver == RosterDriverSQLite {
		roster.Path = DefaultRosterDatabase
	}

	return nil
}
