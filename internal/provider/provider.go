package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/version"
)

// Sender delivers one message through a backend.
type Sender interface {
	// Kind returns the backend kind reported in results.
	Kind() config.ProviderKind
	// Send delivers the message. It never panics and never returns a nil-like
	// outcome: failures are carried in Result.Err.
	Send(ctx context.Context, msg Message) Result
}

// Message is what a backend needs to deliver one notification.
type Message struct {
	// Phone is the recipient number as stored in the roster.
	Phone string
	// Text is the rendered message body.
	Text string
	// RecipientName is the student name, used by template providers.
	RecipientName string
}

// Result is the outcome of one Send call.
type Result struct {
	// Success reports whether the backend accepted the message.
	Success bool
	// Provider is the backend that handled the call.
	Provider config.ProviderKind
	// Detail is a short human-readable outcome description.
	Detail string
	// Err is the classified failure when Success is false.
	Err error
}

var (
	// ErrProviderTransport matches every TransportError.
	ErrProviderTransport = errors.New("provider transport error")
	// ErrProviderAuth matches transport errors caused by rejected credentials or signatures.
	ErrProviderAuth = errors.New("provider rejected credentials")
	// ErrProviderUnavailable is returned when a backend integration is not wired in.
	ErrProviderUnavailable = errors.New("provider integration unavailable")
)

// TransportError describes a request the backend did not accept.
// Status is zero when the request never got a response.
type TransportError struct {
	Provider config.ProviderKind
	Status   int
	Body     string
	Err      error
}

// Error implements error.
func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: unexpected response %d: %s", e.Provider, e.Status, e.Body)
	}
}

// Unwrap exposes the sentinel errors for errors.Is checks.
func (e *TransportError) Unwrap() []error {
	errs := []error{ErrProviderTransport}

	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		errs = append(errs, ErrProviderAuth)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// Option tunes how backends are built.
type Option func(*options)

type options struct {
	// httpClient performs every backend request.
	httpClient *http.Client
	// now stamps signed requests.
	now func() time.Time
	// salt generates per-request nonces.
	salt func() string
	// historySize bounds the test-mode history.
	historySize int
}

// WithHTTPClient sets the client used for backend requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithClock replaces time.Now for request signing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSalt replaces the random nonce generator of signed requests.
func WithSalt(salt func() string) Option {
	return func(o *options) {
		if salt != nil {
			o.salt = salt
		}
	}
}

// WithHistorySize bounds how many simulated deliveries TestMode remembers.
func WithHistorySize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.historySize = size
		}
	}
}

// defaultHistorySize is the number of simulated deliveries kept by TestMode.
const defaultHistorySize = 100

func buildOptions(opts []Option) *options {
	o := &options{
		httpClient:  &http.Client{Timeout: config.DefaultTimeout},
		now:         time.Now,
		salt:        uuid.NewString,
		historySize: defaultHistorySize,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// New builds the sender selected by the configuration.
// Test mode wins over every configured backend.
//
//nolint:ireturn // The concrete backend is a configuration decision.
func New(cfg config.Messaging, opts ...Option) (Sender, error) {
	variant, err := cfg.Variant()
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)

	if cfg.TestMode {
		return newTestMode(cfg.MessageKind, o), nil
	}

	switch variant {
	case config.ProviderNaver:
		return newNaverSMS(cfg.Naver, o), nil
	case config.ProviderCoolSMS:
		return NewCoolSMS(cfg.CoolSMS, newCoolSMSClient(cfg.CoolSMS, o)), nil
	case config.ProviderAligo:
		return newAligoSMS(cfg.Aligo, o), nil
	case config.ProviderKakaoAligo:
		return newAligoKakao(cfg.KakaoAligo, o), nil
	case config.ProviderKakaoNaver:
		return newNaverKakao(cfg.KakaoNaver, o), nil
	case config.ProviderKakaoBusiness:
		return newKakaoBusiness(cfg.KakaoBusiness, o), nil
	default:
		return nil, fmt.Errorf("%w: no sender for provider %q", config.ErrInvalidConfiguration, variant)
	}
}

// normalizePhone strips the separators people type into spreadsheets.
func normalizePhone(phone string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(phone))
}

func succeeded(kind config.ProviderKind, detail string) Result {
	return Result{
		Success:  true,
		Provider: kind,
		Detail:   detail,
	}
}

func failed(kind config.ProviderKind, err error) Result {
	return Result{
		Provider: kind,
		Detail:   err.Error(),
		Err:      err,
	}
}

// do executes the request and reads the whole body.
func do(client *http.Client, kind config.ProviderKind, req *http.Request) (int, []byte, error) {
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Provider: kind, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Provider: kind, Status: resp.StatusCode, Err: err}
	}

	return resp.StatusCode, body, nil
}

// maxResponseBody caps how much of a backend response is read into memory.
const maxResponseBody = 1 << 20
