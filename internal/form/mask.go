package form

import (
	"strings"

	"github.com/bomcorte/blackfriday/internal/config"
)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone masks a phone number as the user types. For the domestic
// calling code the Brazilian mask is applied progressively, ending at
// "(DD) DDDDD-DDDD" for 11 digits. Any other calling code keeps digits
// only, truncated to 15. Pure function of (raw, callingCode).
func FormatPhone(raw, callingCode string) string {
	digits := Digits(raw)

	if callingCode != config.DomesticCallingCode {
		if len(digits) > 15 {
			digits = digits[:15]
		}
		return digits
	}

	if len(digits) > 11 {
		digits = digits[:11]
	}

	switch n := len(digits); {
	case n == 0:
		return ""
	case n <= 2:
		return "(" + digits
	case n <= 6:
		return "(" + digits[:2] + ") " + digits[2:]
	default:
		// Hyphen before the trailing 4-digit group.
		return "(" + digits[:2] + ") " + digits[2:n-4] + "-" + digits[n-4:]
	}
}

// FormatPostalCode masks a CEP as the user types: digits only, truncated
// to 8, hyphen after the 5th digit once a 6th is present.
func FormatPostalCode(raw string) string {
	digits := Digits(raw)
	if len(digits) > 8 {
		digits = digits[:8]
	}
	if len(digits) <= 5 {
		return digits
	}
	return digits[:5] + "-" + digits[5:]
}
