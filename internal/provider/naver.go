package provider

import (
	"bytes"
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/oshokin/attendance-notifier/internal/config"
)

// naverBaseURL is the SENS API gateway.
const naverBaseURL = "https://sens.apigw.ntruss.com"

// sensClient signs and posts JSON requests to SENS.
type sensClient struct {
	kind      config.ProviderKind
	accessKey string
	secretKey string
	opts      *options
}

// post signs uri with the current time and sends body as JSON.
// SENS answers 202 Accepted for every queued message.
func (c *sensClient) post(ctx context.Context, uri string, body any) Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return failed(c.kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, naverBaseURL+uri, bytes.NewReader(payload))
	if err != nil {
		return failed(c.kind, err)
	}

	timestamp := NaverTimestamp(c.opts.now())

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set(headerNaverTimestamp, timestamp)
	req.Header.Set(headerNaverAccessKey, c.accessKey)
	req.Header.Set(headerNaverSignature, NaverSignature(http.MethodPost, uri, timestamp, c.accessKey, c.secretKey))

	status, respBody, err := do(c.opts.httpClient, c.kind, req)
	if err != nil {
		return failed(c.kind, err)
	}

	if status != http.StatusAccepted {
		return failed(c.kind, &TransportError{Provider: c.kind, Status: status, Body: string(respBody)})
	}

	return succeeded(c.kind, "accepted")
}

// NaverSMS sends SMS through SENS.
type NaverSMS struct {
	sens  sensClient
	creds config.NaverCredentials
}

type naverSMSRequest struct {
	Type        string             `json:"type"`
	ContentType string             `json:"contentType"`
	CountryCode string             `json:"countryCode"`
	From        string             `json:"from"`
	Subject     string             `json:"subject,omitempty"`
	Content     string             `json:"content"`
	Messages    []naverSMSMessages `json:"messages"`
}

type naverSMSMessages struct {
	To string `json:"to"`
}

func newNaverSMS(creds config.NaverCredentials, o *options) *NaverSMS {
	return &NaverSMS{
		sens: sensClient{
			kind:      config.ProviderNaver,
			accessKey: creds.AccessKey,
			secretKey: creds.SecretKey,
			opts:      o,
		},
		creds: creds,
	}
}

// Kind implements Sender.
func (s *NaverSMS) Kind() config.ProviderKind {
	return config.ProviderNaver
}

// Send implements Sender.
func (s *NaverSMS) Send(ctx context.Context, msg Message) Result {
	body := naverSMSRequest{
		Type:        "SMS",
		ContentType: "COMM",
		CountryCode: "82",
		From:        normalizePhone(s.creds.SenderPhone),
		Content:     msg.Text,
		Messages:    []naverSMSMessages{{To: normalizePhone(msg.Phone)}},
	}

	if isLongMessage(msg.Text) {
		body.Type = "LMS"
		body.Subject = defaultSubject
	}

	return s.sens.post(ctx, "/sms/v2/services/"+s.creds.ServiceID+"/messages", body)
}

// NaverKakao sends alimtalk template messages through SENS.
type NaverKakao struct {
	sens  sensClient
	creds config.KakaoNaverCredentials
}

type naverKakaoRequest struct {
	PlusFriendID string               `json:"plusFriendId"`
	TemplateCode string               `json:"templateCode"`
	Messages     []naverKakaoMessages `json:"messages"`
}

type naverKakaoMessages struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

func newNaverKakao(creds config.KakaoNaverCredentials, o *options) *NaverKakao {
	return &NaverKakao{
		sens: sensClient{
			kind:      config.ProviderKakaoNaver,
			accessKey: creds.AccessKey,
			secretKey: creds.SecretKey,
			opts:      o,
		},
		creds: creds,
	}
}

// Kind implements Sender.
func (s *NaverKakao) Kind() config.ProviderKind {
	return config.ProviderKakaoNaver
}

// Send implements Sender.
func (s *NaverKakao) Send(ctx context.Context, msg Message) Result {
	body := naverKakaoRequest{
		PlusFriendID: s.creds.PlusFriendID,
		TemplateCode: s.creds.TemplateCode,
		Messages: []naverKakaoMessages{{
			To:      normalizePhone(msg.Phone),
			Content: msg.Text,
		}},
	}

	return s.sens.post(ctx, "/alimtalk/v2/services/"+s.creds.ServiceID+"/messages", body)
}

// defaultSubject titles long messages and alimtalk failover texts.
const defaultSubject = "학원 알림"
