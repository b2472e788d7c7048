// Package provider implements the message delivery backends.
//
// Every backend satisfies Sender, a single Send capability that always
// returns a Result value. The variants differ only in how they authenticate
// and shape the request:
//   - NaverSMS and NaverKakao sign requests with the SENS HMAC-SHA256 scheme,
//   - CoolSMS delegates to an API key/secret client,
//   - AligoSMS and AligoKakao post URL-encoded forms,
//   - KakaoBusiness posts a JSON template object with a bearer token,
//   - TestMode never touches the network and keeps a history of what it would
//     have sent.
//
// New picks the variant from the configuration once at start-up. There is no
// retry anywhere in this package; a failed delivery is reported and dropped.
package provider
