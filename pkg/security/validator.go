package security

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSearchQueryLength defines the maximum allowed length for search queries
	MaxSearchQueryLength = 100
)

var (
	ErrSearchQueryTooLong      = errors.New("search query too long")
	ErrSearchQueryInvalidChars = errors.New("search query contains invalid characters")
)

// ValidateSearchQuery trims a free-text search term and rejects terms that are
// too long or carry characters no directory field can contain.
// Search terms only ever reach the database as bound parameters.
func ValidateSearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", ErrSearchQueryTooLong
	}

	for _, char := range query {
		if !isValidSearchChar(char) {
			return "", ErrSearchQueryInvalidChars
		}
	}

	return query, nil
}

// isValidSearchChar checks if a character is safe for search queries
func isValidSearchChar(char rune) bool {
	if unicode.IsControl(char) {
		return false
	}
	// Letters, digits and the punctuation found in names and email addresses
	return unicode.IsLetter(char) || unicode.IsNumber(char) ||
		char == ' ' || char == '-' || char == '_' || char == '.' ||
		char == '@' || char == '+' || char == '\'' || char == '%'
}

// EscapeLike escapes LIKE wildcards so the term matches literally.
// Callers must use the clause with ESCAPE '\'.
func EscapeLike(query string) string {
	if query == "" {
		return ""
	}

	query = strings.ReplaceAll(query, `\`, `\\`)
	query = strings.ReplaceAll(query, "%", `\%`)
	query = strings.ReplaceAll(query, "_", `\_`)

	return query
}
