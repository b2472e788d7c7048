package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"time"
)

// SENS request header names.
const (
	headerNaverTimestamp = "x-ncp-apigw-timestamp"
	headerNaverAccessKey = "x-ncp-iam-access-key"
	headerNaverSignature = "x-ncp-apigw-signature-v2"
)

// NaverCanonicalString builds the string SENS expects to be signed:
// METHOD SP URI LF TIMESTAMP LF ACCESS_KEY.
func NaverCanonicalString(method, uri, timestamp, accessKey string) string {
	return method + " " + uri + "\n" + timestamp + "\n" + accessKey
}

// NaverSignature returns base64(HMAC-SHA256(secretKey, canonical string)).
func NaverSignature(method, uri, timestamp, accessKey, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(NaverCanonicalString(method, uri, timestamp, accessKey)))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NaverTimestamp formats t as milliseconds since the epoch.
func NaverTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// CoolSMSSignature returns hex(HMAC-SHA256(apiSecret, date + salt)).
func CoolSMSSignature(date, salt, apiSecret string) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(date + salt))

	return hex.EncodeToString(mac.Sum(nil))
}
