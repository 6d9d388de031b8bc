package security

import (
	"strings"
	"unicode"
)

// IsNameChar reports whether r may appear in a person's name.
func IsNameChar(r rune) bool {
	return unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\''
}

// Sanitize removes every character outside letters, spaces, hyphens and
// apostrophes and trims surrounding whitespace.
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if IsNameChar(r) {
			return r
		}
		return -1
	}, s))
}

// SanitizeValue is Sanitize for loosely typed input. Non-string values yield "".
func SanitizeValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Sanitize(s)
}
