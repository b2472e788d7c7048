package config

import (
	"fmt"
	"strings"
)

// ProviderKind names a messaging backend.
type ProviderKind string

const (
	// ProviderNaver is Naver Cloud Platform SENS (SMS or alimtalk).
	ProviderNaver ProviderKind = "naver"
	// ProviderCoolSMS is the CoolSMS API key/secret gateway.
	ProviderCoolSMS ProviderKind = "coolsms"
	// ProviderAligo is the Aligo form-post gateway (SMS or alimtalk).
	ProviderAligo ProviderKind = "aligo"
	// ProviderKakaoAligo is Aligo alimtalk with SMS failover.
	ProviderKakaoAligo ProviderKind = "kakao_aligo"
	// ProviderKakaoNaver is Naver Cloud Platform SENS alimtalk.
	ProviderKakaoNaver ProviderKind = "kakao_naver"
	// ProviderKakaoBusiness is the Kakao REST API with a bearer token.
	ProviderKakaoBusiness ProviderKind = "kakao_business"
	// ProviderTest is reported by the test-mode sender.
	ProviderTest ProviderKind = "test"
)

// MessageKind selects the SMS or chat-template provider family.
type MessageKind string

const (
	// MessageKindSMS sends plain text messages.
	MessageKindSMS MessageKind = "sms"
	// MessageKindKakao sends KakaoTalk template messages.
	MessageKindKakao MessageKind = "kakao"
)

// Messaging is the provider configuration block.
type Messaging struct {
	// Provider is the configured backend kind.
	Provider ProviderKind `yaml:"provider"`
	// TestMode simulates delivery without any network I/O.
	TestMode bool `yaml:"testMode"`
	// MessageKind picks the SMS or KakaoTalk family.
	MessageKind MessageKind `yaml:"messageKind"`

	Naver         NaverCredentials         `yaml:"naver,omitempty"`
	CoolSMS       CoolSMSCredentials       `yaml:"coolsms,omitempty"`
	Aligo         AligoCredentials         `yaml:"aligo,omitempty"`
	KakaoAligo    KakaoAligoCredentials    `yaml:"kakao_aligo,omitempty"`
	KakaoNaver    KakaoNaverCredentials    `yaml:"kakao_naver,omitempty"`
	KakaoBusiness KakaoBusinessCredentials `yaml:"kakao_business,omitempty"`
}

// NaverCredentials configures SENS SMS.
type NaverCredentials struct {
	ServiceID   string `yaml:"service_id"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	SenderPhone string `yaml:"sender_phone"`
}

// CoolSMSCredentials configures the CoolSMS gateway.
type CoolSMSCredentials struct {
	APIKey      string `yaml:"api_key"`
	APISecret   string `yaml:"api_secret"`
	SenderPhone string `yaml:"sender_phone"`
}

// AligoCredentials configures Aligo SMS.
type AligoCredentials struct {
	APIKey      string `yaml:"api_key"`
	UserID      string `yaml:"user_id"`
	SenderPhone string `yaml:"sender_phone"`
}

// KakaoAligoCredentials configures Aligo alimtalk.
type KakaoAligoCredentials struct {
	APIKey       string `yaml:"api_key"`
	UserID       string `yaml:"user_id"`
	SenderKey    string `yaml:"sender_key"`
	TemplateCode string `yaml:"template_code"`
}

// KakaoNaverCredentials configures SENS alimtalk.
type KakaoNaverCredentials struct {
	ServiceID    string `yaml:"service_id"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	PlusFriendID string `yaml:"plus_friend_id"`
	TemplateCode string `yaml:"template_code"`
}

// KakaoBusinessCredentials configures the Kakao REST API.
type KakaoBusinessCredentials struct {
	RestAPIKey   string `yaml:"rest_api_key"`
	SenderKey    string `yaml:"sender_key"`
	TemplateCode string `yaml:"template_code"`
	// LinkURL is attached to the text template; defaults to DefaultKakaoLinkURL.
	LinkURL string `yaml:"link_url,omitempty"`
}

// DefaultKakaoLinkURL is the link attached to Kakao text templates.
const DefaultKakaoLinkURL = "https://example.com"

// Variant resolves the provider kind within the configured message family.
// Plain "aligo" and "naver" are accepted for KakaoTalk and map to their
// alimtalk variants.
func (m *Messaging) Variant() (ProviderKind, error) {
	switch m.MessageKind {
	case MessageKindKakao:
		switch m.Provider {
		case ProviderKakaoAligo, ProviderAligo:
			return ProviderKakaoAligo, nil
		case ProviderKakaoNaver, ProviderNaver:
			return ProviderKakaoNaver, nil
		case ProviderKakaoBusiness:
			return ProviderKakaoBusiness, nil
		}
	case MessageKindSMS:
		switch m.Provider {
		case ProviderNaver, ProviderCoolSMS, ProviderAligo:
			return m.Provider, nil
		}
	default:
		return "", fmt.Errorf("%w: unknown message kind %q", ErrInvalidConfiguration, m.MessageKind)
	}

	return "", fmt.Errorf(
		"%w: provider %q is not available for %s messages",
		ErrInvalidConfiguration, m.Provider, m.MessageKind,
	)
}

// Validate normalises the block and checks the selected provider.
// Credentials are only required outside of test mode.
func (m *Messaging) Validate() error {
	m.Provider = ProviderKind(strings.ToLower(strings.TrimSpace(string(m.Provider))))
	m.MessageKind = MessageKind(strings.ToLower(strings.TrimSpace(string(m.MessageKind))))

	if m.Provider == "" {
		m.Provider = ProviderNaver
	}

	if m.MessageKind == "" {
		m.MessageKind = MessageKindSMS
	}

	if m.KakaoBusiness.LinkURL == "" {
		m.KakaoBusiness.LinkURL = DefaultKakaoLinkURL
	}

	variant, err := m.Variant()
	if err != nil {
		return err
	}

	if m.TestMode {
		return nil
	}

	missing := m.missingFields(variant)
	if len(missing) > 0 {
		return fmt.Errorf(
			"%w: provider %q requires %s",
			ErrInvalidConfiguration, variant, strings.Join(missing, ", "),
		)
	}

	return nil
}

// missingFields lists the required credential keys that are empty.
func (m *Messaging) missingFields(variant ProviderKind) []string {
	var fields []field

	switch variant {
	case ProviderNaver:
		fields = []field{
			{"naver.service_id", m.Naver.ServiceID},
			{"naver.access_key", m.Naver.AccessKey},
			{"naver.secret_key", m.Naver.SecretKey},
			{"naver.sender_phone", m.Naver.SenderPhone},
		}
	case ProviderCoolSMS:
		fields = []field{
			{"coolsms.api_key", m.CoolSMS.APIKey},
			{"coolsms.api_secret", m.CoolSMS.APISecret},
			{"coolsms.sender_phone", m.CoolSMS.SenderPhone},
		}
	case ProviderAligo:
		fields = []field{
			{"aligo.api_key", m.Aligo.APIKey},
			{"aligo.user_id", m.Aligo.UserID},
			{"aligo.sender_phone", m.Aligo.SenderPhone},
		}
	case ProviderKakaoAligo:
		fields = []field{
			{"kakao_aligo.api_key", m.KakaoAligo.APIKey},
			{"kakao_aligo.user_id", m.KakaoAligo.UserID},
			{"kakao_aligo.sender_key", m.KakaoAligo.SenderKey},
			{"kakao_aligo.template_code", m.KakaoAligo.TemplateCode},
		}
	case ProviderKakaoNaver:
		fields = []field{
			{"kakao_naver.service_id", m.KakaoNaver.ServiceID},
			{"kakao_naver.access_key", m.KakaoNaver.AccessKey},
			{"kakao_naver.secret_key", m.KakaoNaver.SecretKey},
			{"kakao_naver.plus_friend_id", m.KakaoNaver.PlusFriendID},
			{"kakao_naver.template_code", m.KakaoNaver.TemplateCode},
		}
	case ProviderKakaoBusiness:
		fields = []field{
			{"kakao_business.rest_api_key", m.KakaoBusiness.RestAPIKey},
		}
	}

	var missing []string

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	return missing
}

type field struct {
	name  string
	value string
}
