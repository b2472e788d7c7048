package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/oshokin/attendance-notifier/internal/config"
)

// coolSMSURL is the CoolSMS v4 single-message endpoint.
const coolSMSURL = "https://api.coolsms.co.kr/messages/v4/send"

// APIKeyClient is the API-key/secret gateway CoolSMS sends through.
// It is an interface so deployments without CoolSMS access can plug in
// another gateway of the same shape.
type APIKeyClient interface {
	SendText(ctx context.Context, from, to, text string) error
}

// CoolSMS sends SMS through an APIKeyClient.
type CoolSMS struct {
	creds  config.CoolSMSCredentials
	client APIKeyClient
}

// NewCoolSMS returns a CoolSMS sender. A nil client yields a sender that
// reports ErrProviderUnavailable for every message.
func NewCoolSMS(creds config.CoolSMSCredentials, client APIKeyClient) *CoolSMS {
	return &CoolSMS{creds: creds, client: client}
}

// Kind implements Sender.
func (s *CoolSMS) Kind() config.ProviderKind {
	return config.ProviderCoolSMS
}

// Send implements Sender.
func (s *CoolSMS) Send(ctx context.Context, msg Message) Result {
	if s.client == nil {
		return failed(s.Kind(), fmt.Errorf("%w: %s", ErrProviderUnavailable, s.Kind()))
	}

	err := s.client.SendText(ctx, normalizePhone(s.creds.SenderPhone), normalizePhone(msg.Phone), msg.Text)
	if err != nil {
		return failed(s.Kind(), err)
	}

	return succeeded(s.Kind(), "sent")
}

// coolSMSClient talks to the CoolSMS REST API.
type coolSMSClient struct {
	apiKey    string
	apiSecret string
	opts      *options
}

type coolSMSRequest struct {
	Message coolSMSMessage `json:"message"`
}

type coolSMSMessage struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
	Type string `json:"type"`
}

func newCoolSMSClient(creds config.CoolSMSCredentials, o *options) *coolSMSClient {
	return &coolSMSClient{
		apiKey:    creds.APIKey,
		apiSecret: creds.APISecret,
		opts:      o,
	}
}

// authorization builds the HMAC-SHA256 Authorization header value.
func (c *coolSMSClient) authorization() string {
	date := c.opts.now().UTC().Format(time.RFC3339)
	salt := c.opts.salt()

	return fmt.Sprintf(
		"HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s",
		c.apiKey, date, salt, CoolSMSSignature(date, salt, c.apiSecret),
	)
}

// SendText implements APIKeyClient.
func (c *coolSMSClient) SendText(ctx context.Context, from, to, text string) error {
	msgType := "SMS"
	if isLongMessage(text) {
		msgType = "LMS"
	}

	payload, err := json.Marshal(coolSMSRequest{
		Message: coolSMSMessage{To: to, From: from, Text: text, Type: msgType},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, coolSMSURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization())

	status, body, err := do(c.opts.httpClient, config.ProviderCoolSMS, req)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return &TransportError{Provider: config.ProviderCoolSMS, Status: status, Body: string(body)}
	}

	return nil
}
