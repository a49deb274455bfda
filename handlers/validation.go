package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/serisow/autbot/apperror"
)

const MaxQueryLength = 500

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)onload=`),
	regexp.MustCompile(`(?i)onerror=`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)exec\(`),
}

// ValidateQuery returns the query with whitespace runs collapsed, or an
// InvalidQuery error. The content filter is a coarse first line of defence.
func ValidateQuery(raw string) (string, error) {
	if utf8.RuneCountInString(raw) > MaxQueryLength {
		return "", apperror.InvalidQuery("query must be at most 500 characters").
			WithDetail("max_length", MaxQueryLength)
	}

	// strings.Fields splits on Unicode spaces such as U+00A0 too.
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", apperror.InvalidQuery("query cannot be empty")
	}

	query := strings.Join(fields, " ")
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(query) {
			return "", apperror.InvalidQuery("query contains potentially harmful content")
		}
	}
	return query, nil
}
