package provider

import (
	"context"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/oshokin/attendance-notifier/internal/config"
)

// kakaoMemoURL is the Kakao default-template "send to friends" endpoint.
const kakaoMemoURL = "https://kapi.kakao.com/v1/api/talk/friends/message/default/send"

type kakaoTemplate struct {
	ObjectType string    `json:"object_type"`
	Text       string    `json:"text"`
	Link       kakaoLink `json:"link"`
}

type kakaoLink struct {
	WebURL       string `json:"web_url"`
	MobileWebURL string `json:"mobile_web_url"`
}

type kakaoResponse struct {
	ResultCode int `json:"result_code"`
}

// KakaoBusiness sends a text template through the Kakao REST API.
// The recipient is bound to the token's friend list, so the phone number
// is not part of the request.
type KakaoBusiness struct {
	creds config.KakaoBusinessCredentials
	opts  *options
}

func newKakaoBusiness(creds config.KakaoBusinessCredentials, o *options) *KakaoBusiness {
	return &KakaoBusiness{creds: creds, opts: o}
}

// Kind implements Sender.
func (s *KakaoBusiness) Kind() config.ProviderKind {
	return config.ProviderKakaoBusiness
}

// Send implements Sender.
func (s *KakaoBusiness) Send(ctx context.Context, msg Message) Result {
	link := s.creds.LinkURL
	if link == "" {
		link = config.DefaultKakaoLinkURL
	}

	template, err := json.Marshal(kakaoTemplate{
		ObjectType: "text",
		Text:       msg.Text,
		Link:       kakaoLink{WebURL: link, MobileWebURL: link},
	})
	if err != nil {
		return failed(s.Kind(), err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.creds.RestAPIKey)

	form := url.Values{"template_object": {string(template)}}

	status, body, err := postForm(ctx, s.opts, s.Kind(), kakaoMemoURL, form, header)
	if err != nil {
		return failed(s.Kind(), err)
	}

	var resp kakaoResponse

	err = decodeCoded(s.Kind(), status, body, &resp, func(r *kakaoResponse) bool {
		return r.ResultCode == 0
	})
	if err != nil {
		return failed(s.Kind(), err)
	}

	return succeeded(s.Kind(), "sent")
}
