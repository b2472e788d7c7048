package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate_FillsDefaults checks that an empty document becomes a runnable test-mode config.
func TestValidate_FillsDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{Messaging: Messaging{TestMode: true}}
	require.NoError(t, Validate(cfg))

	require.Equal(t, DefaultAcademyName, cfg.AcademyName)
	require.Equal(t, DefaultCheckInterval, cfg.CheckInterval)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, RosterDriverFile, cfg.Roster.Driver)
	require.Equal(t, DefaultRosterFilename, cfg.Roster.Path)
	require.Equal(t, ProviderNaver, cfg.Messaging.Provider)
	require.Equal(t, MessageKindSMS, cfg.Messaging.MessageKind)

	cfg = &Config{Roster: Roster{Driver: "SQLite"}, Messaging: Messaging{TestMode: true}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultRosterDatabase, cfg.Roster.Path)
}

// TestValidate_Rejects covers the start-up configuration errors.
func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]*Config{
		"unknown provider": {Messaging: Messaging{Provider: "twilio", TestMode: true}},
		"unknown message kind": {
			Messaging: Messaging{Provider: ProviderNaver, MessageKind: "fax", TestMode: true},
		},
		"coolsms has no kakao": {
			Messaging: Messaging{Provider: ProviderCoolSMS, MessageKind: MessageKindKakao, TestMode: true},
		},
		"kakao provider for sms": {
			Messaging: Messaging{Provider: ProviderKakaoBusiness, MessageKind: MessageKindSMS, TestMode: true},
		},
		"missing naver credentials": {
			Messaging: Messaging{
				Provider:    ProviderNaver,
				MessageKind: MessageKindSMS,
				Naver:       NaverCredentials{ServiceID: "svc", AccessKey: "ak"},
			},
		},
		"unknown roster driver": {
			Roster:    Roster{Driver: "xlsx"},
			Messaging: Messaging{TestMode: true},
		},
	}

	for name, cfg := range cases {
		err := Validate(cfg)
		require.ErrorIs(t, err, ErrInvalidConfiguration, name)
	}

	err := Validate(&Config{Messaging: Messaging{Provider: ProviderNaver}})
	require.ErrorContains(t, err, "naver.secret_key")
}

// TestMessaging_Variant maps provider names onto the alimtalk variants.
func TestMessaging_Variant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		provider ProviderKind
		kind     MessageKind
		want     ProviderKind
	}{
		{ProviderNaver, MessageKindSMS, ProviderNaver},
		{ProviderCoolSMS, MessageKindSMS, ProviderCoolSMS},
		{ProviderAligo, MessageKindSMS, ProviderAligo},
		{ProviderAligo, MessageKindKakao, ProviderKakaoAligo},
		{ProviderKakaoAligo, MessageKindKakao, ProviderKakaoAligo},
		{ProviderNaver, MessageKindKakao, ProviderKakaoNaver},
		{ProviderKakaoNaver, MessageKindKakao, ProviderKakaoNaver},
		{ProviderKakaoBusiness, MessageKindKakao, ProviderKakaoBusiness},
	}

	for _, tc := range cases {
		m := Messaging{Provider: tc.provider, MessageKind: tc.kind}
		got, err := m.Variant()
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

// TestParse_AcceptsJSONDocument ensures a JSON provider document is understood.
func TestParse_AcceptsJSONDocument(t *testing.T) {
	t.Parallel()

	doc := []byte(`{
    "academy_name": "새싹학원",
    "check_interval": 5,
    "messaging": {
      "provider": "kakao_business",
      "testMode": false,
      "messageKind": "kakao",
      "kakao_business": {"rest_api_key": "rest-key", "sender_key": "sk", "template_code": "T1"}
    }
  }`)

	cfg, err := Parse(doc)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	require.Equal(t, "새싹학원", cfg.AcademyName)
	require.Equal(t, 5*time.Second, cfg.CheckInterval)
	require.Equal(t, ProviderKakaoBusiness, cfg.Messaging.Provider)
	require.False(t, cfg.Messaging.TestMode)
	require.Equal(t, "rest-key", cfg.Messaging.KakaoBusiness.RestAPIKey)
	require.Equal(t, DefaultKakaoLinkURL, cfg.Messaging.KakaoBusiness.LinkURL)
}

// TestApplyEnv checks the hosting-mode overrides.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"ACADEMY_NAME":         "환경학원",
		"CHECK_INTERVAL":       "7",
		"PORT":                 "8080",
		"SMS_PROVIDER":         "aligo",
		"SMS_MESSAGE_TYPE":     "sms",
		"SMS_TEST_MODE":        "False",
		"SMS_SENDER":           "0212345678",
		"SMS_ALIGO_API_KEY":    "aligo-key",
		"SMS_ALIGO_USER_ID":    "aligo-user",
		"SMS_NAVER_ACCESS_KEY": "ignored-but-set",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	ApplyEnv(cfg, lookup)
	require.NoError(t, Validate(cfg))

	require.Equal(t, "환경학원", cfg.AcademyName)
	require.Equal(t, 7*time.Second, cfg.CheckInterval)
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, ProviderAligo, cfg.Messaging.Provider)
	require.False(t, cfg.Messaging.TestMode)
	require.Equal(t, "0212345678", cfg.Messaging.Aligo.SenderPhone)
	require.Equal(t, "aligo-key", cfg.Messaging.Aligo.APIKey)
	require.Equal(t, "ignored-but-set", cfg.Messaging.Naver.AccessKey)

	// Without SMS_PROVIDER the messaging block is untouched.
	cfg = Default()
	ApplyEnv(cfg, func(key string) (string, bool) {
		if key == "SMS_TEST_MODE" {
			return "false", true
		}

		return "", false
	})
	require.True(t, cfg.Messaging.TestMode)

	// SMS_PROVIDER alone switches to live delivery of plain SMS.
	cfg = Default()
	cfg.Messaging.MessageKind = MessageKindKakao
	ApplyEnv(cfg, func(key string) (string, bool) {
		v, ok := map[string]string{
			"SMS_PROVIDER":      "aligo",
			"SMS_SENDER":        "0212345678",
			"SMS_ALIGO_API_KEY": "aligo-key",
			"SMS_ALIGO_USER_ID": "aligo-user",
		}[key]

		return v, ok
	})
	require.NoError(t, Validate(cfg))
	require.Equal(t, ProviderAligo, cfg.Messaging.Provider)
	require.False(t, cfg.Messaging.TestMode)
	require.Equal(t, MessageKindSMS, cfg.Messaging.MessageKind)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := Default()
	cfg.AcademyName = "라운드학원"
	cfg.CheckInterval = 3 * time.Second
	cfg.Messaging.Naver = NaverCredentials{
		ServiceID:   "svc",
		AccessKey:   "ak",
		SecretKey:   "sk",
		SenderPhone: "01000000000",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Parse(mustRead(t, path))
	require.NoError(t, err)
	require.NoError(t, Validate(loaded))
	require.Equal(t, cfg.AcademyName, loaded.AcademyName)
	require.Equal(t, cfg.CheckInterval, loaded.CheckInterval)
	require.Equal(t, cfg.Messaging.Naver, loaded.Messaging.Naver)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())

	require.Error(t, Save(path, nil))
}

// TestLoadEnvFile_Missing ensures a missing dotenv file is tolerated.
func TestLoadEnvFile_Missing(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return data
}

// TestLoadOrDefault_MissingFile ensures a missing document falls back to test-mode defaults.
func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, RosterDriverFile, cfg.Roster.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
