package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"empty string", "", 10, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 5, "hello..."},
		{"negative maxLen", "hello", -1, ""},
		{"zero maxLen", "hello", 0, ""},
		{"accented runes", "éèêëabc", 4, "éèêë..."},
		{"maxLen 1 multibyte", "日本", 1, "日..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLen))
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "hello world", Preview("  hello\n\n   world \t", 20))
	assert.Equal(t, "one two...", Preview("one\ntwo\nthree", 7))
	assert.Equal(t, "", Preview(" \n ", 10))
}
