// Package phone normalizes Israeli phone numbers into a comparable form.
package phone

import "strings"

const (
	countryCode = "972"
	maxDigits   = 10
)

// Normalize strips formatting from a raw phone number and converts the
// international prefix to the local leading zero. It returns false when the
// result is not a 9 or 10 digit number.
func Normalize(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", false
	}

	if strings.HasPrefix(digits, countryCode) {
		digits = "0" + digits[len(countryCode):]
	}

	if len(digits) > maxDigits && strings.HasPrefix(digits, "0") {
		digits = digits[:maxDigits]
	}

	if len(digits) != 9 && len(digits) != 10 {
		return "", false
	}
	return digits, true
}

// NormalizeOrEmpty is Normalize for callers that store the empty string for
// an unusable number.
func NormalizeOrEmpty(raw string) string {
	n, _ := Normalize(raw)
	return n
}
