package provider

import "golang.org/x/text/encoding/korean"

// smsMaxBytes is the carrier limit of a single SMS, measured in EUC-KR bytes.
const smsMaxBytes = 90

// isLongMessage reports whether the text must go out as LMS instead of SMS.
// Korean carriers count Hangul as two bytes, which EUC-KR reproduces.
func isLongMessage(text string) bool {
	encoded, err := korean.EUCKR.NewEncoder().String(text)
	if err != nil {
		// Characters outside EUC-KR (emoji); UTF-8 length is a safe upper bound.
		return len(text) > smsMaxBytes
	}

	return len(encoded) > smsMaxBytes
}
