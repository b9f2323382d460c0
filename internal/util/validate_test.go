package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "user+tag@example.com", "first.last@sub.example.org"}
	for _, e := range valid {
		assert.True(t, IsValidEmail(e), "email %q", e)
	}
	invalid := []string{"", "plain", "@example.com", "user@", "a b@example.com", "user@example"}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), "email %q", e)
	}
	assert.False(t, IsValidEmail(strings.Repeat("a", 250)+"@b.co"))
}

func TestValidNote(t *testing.T) {
	assert.True(t, ValidNote(""))
	assert.True(t, ValidNote(strings.Repeat("x", MaxNoteLength)))
	assert.False(t, ValidNote(strings.Repeat("x", MaxNoteLength+1)))
}
