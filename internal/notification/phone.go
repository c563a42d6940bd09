package notification

import "strings"

// NormalizePhone converts a user-entered phone number to international
// format. Numbers already carrying a leading + pass through unchanged
// apart from whitespace and separator cleanup; otherwise a local trunk 0
// is stripped and the default country code prefixed.
func NormalizePhone(number, defaultCountryCode string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(number))

	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "0")
	return defaultCountryCode + cleaned
}
