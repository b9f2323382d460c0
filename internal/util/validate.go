package util

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail applies a permissive syntactic check; deliverability is the
// mail system's problem.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email) && len(email) <= 254
}

// MaxNoteLength bounds free-text notes on status reports.
const MaxNoteLength = 500

// ValidNote reports whether a status-report note is within bounds.
func ValidNote(note string) bool {
	return len(note) <= MaxNoteLength
}
