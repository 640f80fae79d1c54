// Package tags turns raw model output into ranked tag suggestions scored against
// a user's existing vocabulary.
package tags

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/prompt"
)

const (
	// MinContentLength is the shortest content, in runes, worth tagging.
	MinContentLength = 10
	// MaxSuggestions caps the tags kept from one model reply.
	MaxSuggestions = 5
)

// Relevance tiers a suggestion by how often the user already uses it.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// RelevanceFor maps a usage count to its tier.
func RelevanceFor(usageCount int) Relevance {
	switch {
	case usageCount > 5:
		return RelevanceHigh
	case usageCount > 0:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}

// ExistingTag is a tag the user already owns.
type ExistingTag struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// Suggestion is one normalized tag scored against the existing vocabulary.
type Suggestion struct {
	Name       string    `json:"name"`
	Exists     bool      `json:"exists"`
	Type       string    `json:"type"` // "existing" or "new"
	UsageCount int       `json:"usage_count"`
	Relevance  Relevance `json:"relevance"`
}

// Metadata describes how a Response was produced.
type Metadata struct {
	ModelUsed         string              `json:"model_used"`
	ContentLength     int                 `json:"content_length"`
	ExistingTagsTotal int                 `json:"existing_tags_total"`
	Timestamp         time.Time           `json:"timestamp"`
	CaseCollisions    map[string][]string `json:"case_collisions,omitempty"`
}

// Response is the ranked suggestion set.
type Response struct {
	Suggestions []Suggestion `json:"suggestions"`
	Total       int          `json:"total"`
	New         int          `json:"new"`
	Metadata    Metadata     `json:"metadata"`
}

// Recorder observes suggestion outcomes.
type Recorder interface {
	RecordTagSuggestion(outcome string, total, newTags int)
}

// Suggester produces tag suggestions. Safe for concurrent use.
type Suggester struct {
	gw       gateway.Gateway
	provider gateway.ProviderID
	recorder Recorder
	now      func() time.Time
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Suggester) {
		s.recorder = r
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Suggester) {
		s.now = now
	}
}

// NewSuggester creates a Suggester that asks provider for raw tags.
func NewSuggester(gw gateway.Gateway, provider gateway.ProviderID, opts ...Option) *Suggester {
	s := &Suggester{
		gw:       gw,
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the provider asked for raw tags.
func (s *Suggester) Provider() gateway.ProviderID {
	return s.provider
}

// Suggest asks the model for tags describing content and ranks them against existing.
func (s *Suggester) Suggest(ctx context.Context, content string, existing []ExistingTag) (*Response, error) {
	resp, err := s.suggest(ctx, content, existing)
	if s.recorder != nil {
		if err != nil {
			s.recorder.RecordTagSuggestion(string(aierr.CodeOf(err)), 0, 0)
		} else {
			s.recorder.RecordTagSuggestion("success", resp.Total, resp.New)
		}
	}
	return resp, err
}

func (s *Suggester) suggest(ctx context.Context, content string, existing []ExistingTag) (*Response, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}

	raw, err := s.Raw(ctx, content)
	if err != nil {
		return nil, err
	}

	return Rank(raw, existing, Metadata{
		ModelUsed:         s.provider.String(),
		ContentLength:     utf8.RuneCountInString(content),
		ExistingTagsTotal: len(existing),
		Timestamp:         s.now(),
	})
}

// Raw returns the model's unparsed comma-delimited reply for content.
// Gateway failures are AI_ERROR; an empty reply is NO_TAGS_GENERATED.
func (s *Suggester) Raw(ctx context.Context, content string) (string, error) {
	p, err := prompt.ComposeBasePrompt(prompt.TaskTagExtraction, content)
	if err != nil {
		return "", err
	}
	spec, _ := prompt.Lookup(prompt.TaskTagExtraction)

	raw, err := s.gw.Invoke(ctx, s.provider, p, spec.MaxTokens)
	if err != nil {
		if aierr.HasCode(err, aierr.CodeEmptyResponse) {
			return "", aierr.Wrap(err, aierr.CodeNoTagsGenerated, "No tags could be generated")
		}
		slog.Error("AI tag suggestion failed", "model", s.provider.Model, "error", err)
		return "", aierr.Wrap(err, aierr.CodeAIError, "Failed to generate tags").WithProvider(s.provider.String())
	}
	if strings.TrimSpace(raw) == "" {
		return "", aierr.New(aierr.CodeNoTagsGenerated, "No tags could be generated")
	}
	return raw, nil
}

// ValidateContent rejects content that is blank or too short to tag.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return aierr.New(aierr.CodeContentMissing, "No content provided")
	}
	if utf8.RuneCountInString(content) < MinContentLength {
		return aierr.New(aierr.CodeContentTooShort, "Content too short for meaningful tag suggestions")
	}
	return nil
}

// Rank normalizes raw and scores every tag against existing. It is a pure
// function of its inputs; meta is completed with the collisions it finds.
func Rank(raw string, existing []ExistingTag, meta Metadata) (*Response, error) {
	names := Normalize(raw)
	if len(names) == 0 {
		return nil, aierr.New(aierr.CodeNoValidTags, "No valid tags after processing")
	}

	vocab := newVocabulary(existing)
	suggestions := make([]Suggestion, 0, len(names))
	for _, name := range names {
		match, found := vocab.lookup(name)
		sg := Suggestion{Name: name, Exists: found, Type: "new"}
		if found {
			sg.Type = "existing"
			sg.UsageCount = match.UsageCount
			if colliding := vocab.collisions[name]; len(colliding) > 1 {
				if meta.CaseCollisions == nil {
					meta.CaseCollisions = make(map[string][]string)
				}
				meta.CaseCollisions[name] = colliding
				slog.Warn("Existing tags collide by case, using most used",
					"tag", name,
					"candidates", colliding,
					"chosen", match.Name,
				)
			}
		}
		sg.Relevance = RelevanceFor(sg.UsageCount)
		suggestions = append(suggestions, sg)
	}

	slices.SortStableFunc(suggestions, compareSuggestions)

	newCount := 0
	for _, sg := range suggestions {
		if !sg.Exists {
			newCount++
		}
	}
	return &Response{
		Suggestions: suggestions,
		Total:       len(suggestions),
		New:         newCount,
		Metadata:    meta,
	}, nil
}

// compareSuggestions orders by (exists, usage) descending.
func compareSuggestions(a, b Suggestion) int {
	if a.Exists != b.Exists {
		if a.Exists {
			return -1
		}
		return 1
	}
	return b.UsageCount - a.UsageCount
}

// ParseRaw splits a raw reply into at most MaxSuggestions trimmed, non-empty
// tags. Case is kept.
func ParseRaw(raw string) []string {
	out := make([]string, 0, MaxSuggestions)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		out = append(out, tag)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// Normalize lower-cases the first MaxSuggestions non-empty tags of a raw
// reply and drops duplicates among them. Tags past the cap are never looked
// at, even when duplicates leave room.
func Normalize(raw string) []string {
	out := make([]string, 0, MaxSuggestions)
	seen := make(map[string]struct{}, MaxSuggestions)
	for _, part := range ParseRaw(raw) {
		tag := strings.ToLower(part)
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// vocabulary indexes existing tags by lower-cased name.
type vocabulary struct {
	byName     map[string]ExistingTag
	collisions map[string][]string
}

func newVocabulary(existing []ExistingTag) *vocabulary {
	v := &vocabulary{
		byName:     make(map[string]ExistingTag, len(existing)),
		collisions: make(map[string][]string),
	}
	for _, tag := range existing {
		key := strings.ToLower(strings.TrimSpace(tag.Name))
		if key == "" {
			continue
		}
		v.collisions[key] = append(v.collisions[key], tag.Name)
		if cur, ok := v.byName[key]; !ok || tag.UsageCount > cur.UsageCount {
			v.byName[key] = tag
		}
	}
	return v
}

func (v *vocabulary) lookup(name string) (ExistingTag, bool) {
	tag, ok := v.byName[name]
	return tag, ok
}
