// Package filter masks personal data in text before it reaches the logs.
package filter

import (
	"regexp"
	"slices"
	"strings"
	"sync"
)

// FilterType is a kind of sensitive data.
type FilterType int

const (
	Email FilterType = iota
	Phone
	BankCard
	IP
	APIKey
)

// FilterConfig configures a Filter.
type FilterConfig struct {
	Enabled    []FilterType
	MaskChar   rune
	KeepFirstN int
	KeepLastN  int
}

// DefaultConfig returns default filter configuration.
func DefaultConfig() FilterConfig {
	return FilterConfig{
		Enabled:    []FilterType{Email, Phone, BankCard, IP, APIKey},
		MaskChar:   '*',
		KeepFirstN: 3,
		KeepLastN:  2,
	}
}

var patterns = map[FilterType]*regexp.Regexp{
	Email:    regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
	Phone:    regexp.MustCompile(`\+?\d[\d\s().-]{8,}\d`),
	BankCard: regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
	IP:       regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|1?\d\d?)\b`),
	APIKey:   regexp.MustCompile(`\b(?:sk|pk|ak|key)-[A-Za-z0-9_-]{12,}\b`),
}

// Match is one sensitive span of a text.
type Match struct {
	Type  FilterType
	Start int
	End   int
}

// Filter masks sensitive spans. It is immutable and safe for concurrent use.
type Filter struct {
	config FilterConfig
}

// NewFilter creates a Filter.
func NewFilter(cfg FilterConfig) *Filter {
	if len(cfg.Enabled) == 0 {
		cfg.Enabled = DefaultConfig().Enabled
	}
	if cfg.MaskChar == 0 {
		cfg.MaskChar = '*'
	}
	return &Filter{config: cfg}
}

var defaultFilter = sync.OnceValue(func() *Filter {
	return NewFilter(DefaultConfig())
})

// Redact masks text with the default filter.
func Redact(text string) string {
	return defaultFilter().FilterText(text)
}

// FindMatches returns the non-overlapping sensitive spans of text in order.
// Where spans overlap, the one that starts first wins.
func (f *Filter) FindMatches(text string) []Match {
	var matches []Match
	for _, ft := range f.config.Enabled {
		re, ok := patterns[ft]
		if !ok {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			matches = append(matches, Match{Type: ft, Start: loc[0], End: loc[1]})
		}
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return b.End - a.End
	})

	out := matches[:0]
	end := -1
	for _, m := range matches {
		if m.Start < end {
			continue
		}
		out = append(out, m)
		end = m.End
	}
	return out
}

// FilterText returns text with every sensitive span masked.
func (f *Filter) FilterText(text string) string {
	matches := f.FindMatches(text)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	prev := 0
	for _, m := range matches {
		sb.WriteString(text[prev:m.Start])
		sb.WriteString(f.mask(text[m.Start:m.End], m.Type))
		prev = m.End
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// Validate reports whether text is free of sensitive data.
func (f *Filter) Validate(text string) bool {
	return len(f.FindMatches(text)) == 0
}

func (f *Filter) mask(s string, ft FilterType) string {
	if ft == Email {
		if at := strings.IndexByte(s, '@'); at >= 0 {
			return f.maskRange(s[:at], f.config.KeepFirstN, 0) + s[at:]
		}
	}
	return f.maskRange(s, f.config.KeepFirstN, f.config.KeepLastN)
}

func (f *Filter) maskRange(s string, keepFirst, keepLast int) string {
	runes := []rune(s)
	if len(runes) <= keepFirst+keepLast {
		return strings.Repeat(string(f.config.MaskChar), len(runes))
	}
	for i := keepFirst; i < len(runes)-keepLast; i++ {
		runes[i] = f.config.MaskChar
	}
	return string(runes)
}
