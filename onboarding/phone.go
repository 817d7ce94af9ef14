package onboarding

import "strings"

// NormalizeThaiPhone canonicalizes a Thai phone number to its local form.
// Accepts the international prefix (66XXXXXXXXX becomes 0XXXXXXXXX) and
// local 9-10 digit numbers; everything else is rejected.
func NormalizeThaiPhone(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "66") && len(digits) == 11:
		return "0" + digits[2:], true
	case strings.HasPrefix(digits, "0") && (len(digits) == 9 || len(digits) == 10):
		return digits, true
	}
	return "", false
}
