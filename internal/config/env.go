package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LookupFunc matches os.LookupEnv so tests can inject an environment.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile seeds the process environment from a dotenv file.
// A missing file is not an error; variables already set are never replaced.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFilename
	}

	err := godotenv.Load(filepath.Clean(path))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load env file: %w", err)
}

// ApplyEnv overrides file values with environment variables.
// The variable names are the ones hosting dashboards were set up with.
//
//nolint:cyclop // A flat list of overrides reads better than a table of setters.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("ACADEMY_NAME", &cfg.AcademyName)
	str("ROSTER_DRIVER", &cfg.Roster.Driver)
	str("ROSTER_PATH", &cfg.Roster.Path)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("CHECK_INTERVAL"); ok {
		if d, ok := parseSeconds(v); ok {
			cfg.CheckInterval = d
		}
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		cfg.ListenAddress = ":" + strings.TrimSpace(v)
	}

	// The messaging block is only taken from the environment as a whole,
	// keyed on SMS_PROVIDER, so a stray variable cannot half-configure it.
	provider, ok := lookup("SMS_PROVIDER")
	if !ok || strings.TrimSpace(provider) == "" {
		return
	}

	m := &cfg.Messaging
	m.Provider = ProviderKind(strings.TrimSpace(provider))

	// Unset type means sms and unset test mode means live delivery.
	m.MessageKind = MessageKindSMS
	if v, ok := lookup("SMS_MESSAGE_TYPE"); ok && strings.TrimSpace(v) != "" {
		m.MessageKind = MessageKind(strings.TrimSpace(v))
	}

	testMode, _ := lookup("SMS_TEST_MODE")
	m.TestMode = strings.EqualFold(strings.TrimSpace(testMode), "true")

	var sender string

	str("SMS_SENDER", &sender)

	str("SMS_NAVER_SERVICE_ID", &m.Naver.ServiceID)
	str("SMS_NAVER_ACCESS_KEY", &m.Naver.AccessKey)
	str("SMS_NAVER_SECRET_KEY", &m.Naver.SecretKey)
	str("SMS_API_KEY", &m.CoolSMS.APIKey)
	str("SMS_API_SECRET", &m.CoolSMS.APISecret)
	str("SMS_ALIGO_API_KEY", &m.Aligo.APIKey)
	str("SMS_ALIGO_USER_ID", &m.Aligo.UserID)

	if sender != "" {
		m.Naver.SenderPhone = sender
		m.CoolSMS.SenderPhone = sender
		m.Aligo.SenderPhone = sender
	}
}

// parseSeconds accepts either a Go duration ("5s") or a bare number of seconds.
func parseSeconds(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if d, err := time.ParseDuration(raw); err == nil {
		return d, d > 0
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}
