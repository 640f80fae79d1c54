package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterText(t *testing.T) {
	f := NewFilter(DefaultConfig())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"No sensitive data", "buy milk and eggs", "buy milk and eggs"},
		{"Email keeps domain", "mail alice.smith@example.com today", "mail ali********@example.com today"},
		{"Phone", "call +1 415 555 0134 now", "call +1 " + strings.Repeat("*", 10) + "34 now"},
		{"IP", "server 192.168.10.20 is down", "server 192" + strings.Repeat("*", 8) + "20 is down"},
		{"API key", "my key is sk-abcdefghijklmnop1234", "my key is sk-" + strings.Repeat("*", 18) + "34"},
		{"Short email local part", "a@b.io", "*@b.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FilterText(tt.in))
		})
	}
}

func TestFindMatches_NoOverlap(t *testing.T) {
	f := NewFilter(DefaultConfig())

	matches := f.FindMatches("card 4111 1111 1111 1111 and bob@example.com")

	assert.Len(t, matches, 2)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i].Start, matches[i-1].End)
	}
}

func TestValidate(t *testing.T) {
	f := NewFilter(FilterConfig{Enabled: []FilterType{Email}})

	assert.True(t, f.Validate("call 415 555 0134"))
	assert.False(t, f.Validate("bob@example.com"))
}

func TestRedact(t *testing.T) {
	assert.NotContains(t, Redact("reach me at bob@example.com"), "bob@")
}
