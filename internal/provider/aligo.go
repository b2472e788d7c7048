package provider

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/oshokin/attendance-notifier/internal/config"
)

const (
	// aligoSMSURL is the Aligo SMS endpoint.
	aligoSMSURL = "https://apis.aligo.in/send/"
	// aligoKakaoURL is the Aligo alimtalk endpoint.
	aligoKakaoURL = "https://kakaoapi.aligo.in/akv10/alimtalk/send/"
	// aligoKakaoSender is the display sender of alimtalk messages.
	aligoKakaoSender = "카카오톡"

	// aligoSMSOK is the result_code of an accepted SMS.
	aligoSMSOK = "1"
	// aligoKakaoOK is the code of an accepted alimtalk message.
	aligoKakaoOK = "0"
)

// resultCode accepts both string and numeric codes; Aligo documents
// strings but has answered with numbers.
type resultCode string

// UnmarshalJSON implements json.Unmarshaler.
func (c *resultCode) UnmarshalJSON(data []byte) error {
	*c = resultCode(strings.Trim(string(bytes.TrimSpace(data)), `"`))

	return nil
}

type aligoSMSResponse struct {
	ResultCode resultCode `json:"result_code"`
	Message    string     `json:"message"`
	MsgID      resultCode `json:"msg_id"`
}

type aligoKakaoResponse struct {
	Code    resultCode `json:"code"`
	Message string     `json:"message"`
}

// postForm sends a URL-encoded form and returns the raw response.
func postForm(
	ctx context.Context,
	o *options,
	kind config.ProviderKind,
	endpoint string,
	form url.Values,
	header http.Header,
) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(o.httpClient, kind, req)
}

// decodeCoded decodes a JSON answer and checks its success code.
// Non-200 statuses and unparsable bodies are transport errors as well.
func decodeCoded[T any](
	kind config.ProviderKind,
	status int,
	body []byte,
	out *T,
	ok func(*T) bool,
) error {
	if status != http.StatusOK {
		return &TransportError{Provider: kind, Status: status, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Provider: kind, Status: status, Body: string(body), Err: err}
	}

	if !ok(out) {
		return &TransportError{Provider: kind, Status: status, Body: string(body)}
	}

	return nil
}

// AligoSMS sends SMS with an Aligo form post.
type AligoSMS struct {
	creds config.AligoCredentials
	opts  *options
}

func newAligoSMS(creds config.AligoCredentials, o *options) *AligoSMS {
	return &AligoSMS{creds: creds, opts: o}
}

// Kind implements Sender.
func (s *AligoSMS) Kind() config.ProviderKind {
	return config.ProviderAligo
}

// Send implements Sender.
func (s *AligoSMS) Send(ctx context.Context, msg Message) Result {
	msgType := "SMS"
	if isLongMessage(msg.Text) {
		msgType = "LMS"
	}

	form := url.Values{
		"key":      {s.creds.APIKey},
		"user_id":  {s.creds.UserID},
		"sender":   {normalizePhone(s.creds.SenderPhone)},
		"receiver": {normalizePhone(msg.Phone)},
		"msg":      {msg.Text},
		"msg_type": {msgType},
		"title":    {defaultSubject},
	}

	status, body, err := postForm(ctx, s.opts, s.Kind(), aligoSMSURL, form, nil)
	if err != nil {
		return failed(s.Kind(), err)
	}

	var resp aligoSMSResponse

	err = decodeCoded(s.Kind(), status, body, &resp, func(r *aligoSMSResponse) bool {
		return r.ResultCode == aligoSMSOK
	})
	if err != nil {
		return failed(s.Kind(), err)
	}

	return succeeded(s.Kind(), "msg_id "+string(resp.MsgID))
}

// AligoKakao sends alimtalk through Aligo, falling back to SMS server-side
// when the template message cannot be delivered.
type AligoKakao struct {
	creds config.KakaoAligoCredentials
	opts  *options
}

func newAligoKakao(creds config.KakaoAligoCredentials, o *options) *AligoKakao {
	return &AligoKakao{creds: creds, opts: o}
}

// Kind implements Sender.
func (s *AligoKakao) Kind() config.ProviderKind {
	return config.ProviderKakaoAligo
}

// Send implements Sender.
func (s *AligoKakao) Send(ctx context.Context, msg Message) Result {
	form := url.Values{
		"apikey":     {s.creds.APIKey},
		"userid":     {s.creds.UserID},
		"senderkey":  {s.creds.SenderKey},
		"tpl_code":   {s.creds.TemplateCode},
		"sender":     {aligoKakaoSender},
		"receiver_1": {normalizePhone(msg.Phone)},
		"subject_1":  {defaultSubject},
		"message_1":  {msg.Text},
		"failover":   {"Y"},
		"fsubject_1": {defaultSubject},
		"fmessage_1": {msg.Text},
	}

	status, body, err := postForm(ctx, s.opts, s.Kind(), aligoKakaoURL, form, nil)
	if err != nil {
		return failed(s.Kind(), err)
	}

	var resp aligoKakaoResponse

	err = decodeCoded(s.Kind(), status, body, &resp, func(r *aligoKakaoResponse) bool {
		return r.Code == aligoKakaoOK
	})
	if err != nil {
		return failed(s.Kind(), err)
	}

	return succeeded(s.Kind(), resp.Message)
}
