package tags

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/gateway"
)

// MockGateway is a mock for gateway.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Invoke(ctx context.Context, provider gateway.ProviderID, prompt string, maxOutputTokens int) (string, error) {
	args := m.Called(ctx, provider, prompt, maxOutputTokens)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Available(role gateway.Role) bool {
	return m.Called(role).Bool(0)
}

type fakeRecorder struct {
	outcomes []string
}

func (f *fakeRecorder) RecordTagSuggestion(outcome string, _, _ int) {
	f.outcomes = append(f.outcomes, outcome)
}

var (
	light    = gateway.ProviderID{Role: gateway.RolePrimary, Model: "gpt-4o-mini"}
	fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
)

func newTestSuggester(gw gateway.Gateway, opts ...Option) *Suggester {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewSuggester(gw, light, opts...)
}

func TestSuggest_MeetingNotesScenario(t *testing.T) {
	ctx := context.Background()
	const content = "Meeting notes about quarterly budget planning"

	gw := new(MockGateway)
	gw.On("Invoke", ctx, light, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "'"+content+"'") && strings.Contains(p, "separated by commas")
	}), 50).Return("finance, budget, planning, meeting, quarterly", nil)

	rec := &fakeRecorder{}
	resp, err := newTestSuggester(gw, WithRecorder(rec)).Suggest(ctx, content, []ExistingTag{
		{Name: "finance", UsageCount: 3},
		{Name: "meeting", UsageCount: 8},
	})

	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Name: "meeting", Exists: true, Type: "existing", UsageCount: 8, Relevance: RelevanceHigh},
		{Name: "finance", Exists: true, Type: "existing", UsageCount: 3, Relevance: RelevanceMedium},
		{Name: "budget", Type: "new", Relevance: RelevanceLow},
		{Name: "planning", Type: "new", Relevance: RelevanceLow},
		{Name: "quarterly", Type: "new", Relevance: RelevanceLow},
	}, resp.Suggestions)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.New)
	assert.Equal(t, Metadata{
		ModelUsed:         "gpt-4o-mini",
		ContentLength:     len(content),
		ExistingTagsTotal: 2,
		Timestamp:         fixedNow,
	}, resp.Metadata)
	assert.Equal(t, []string{"success"}, rec.outcomes)
	gw.AssertExpectations(t)
}

func TestSuggest_ContentValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    aierr.Code
	}{
		{"Empty", "", aierr.CodeContentMissing},
		{"Whitespace only", "   \n\t  ", aierr.CodeContentMissing},
		{"Too short", "short", aierr.CodeContentTooShort},
		{"Nine runes", "ééééééééé", aierr.CodeContentTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			_, err := newTestSuggester(gw).Suggest(context.Background(), tt.content, nil)

			assert.Equal(t, tt.code, aierr.CodeOf(err))
			gw.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSuggest_GatewayFailures(t *testing.T) {
	ctx := context.Background()
	const content = "a long enough note about gardening"

	tests := []struct {
		name  string
		reply string
		err   error
		code  aierr.Code
	}{
		{"Provider error is AI_ERROR", "", aierr.Wrap(errors.New("timeout"), aierr.CodeProviderError, "provider call failed"), aierr.CodeAIError},
		{"Unavailable is AI_ERROR", "", aierr.New(aierr.CodeProviderUnavailable, "not configured"), aierr.CodeAIError},
		{"Empty response", "", aierr.New(aierr.CodeEmptyResponse, "empty"), aierr.CodeNoTagsGenerated},
		{"Only separators", " , ,, ", nil, aierr.CodeNoValidTags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			gw.On("Invoke", ctx, light, mock.Anything, 50).Return(tt.reply, tt.err)
			rec := &fakeRecorder{}

			_, err := newTestSuggester(gw, WithRecorder(rec)).Suggest(ctx, content, nil)

			assert.Equal(t, tt.code, aierr.CodeOf(err))
			assert.Equal(t, []string{string(tt.code)}, rec.outcomes)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"Trims and lower-cases", " Finance ,BUDGET,  planning ", []string{"finance", "budget", "planning"}},
		{"Drops empty fragments", "a,,b, ,c", []string{"a", "b", "c"}},
		{"Caps before deduping", "AI, ai, Ml, data, ml, cloud, edge, iot", []string{"ai", "ml", "data"}},
		{"Sixth fragment discarded despite duplicates", "a,a,b,c,d,e", []string{"a", "b", "c", "d"}},
		{"Caps at five in reply order", "one,two,three,four,five,six,seven", []string{"one", "two", "three", "four", "five"}},
		{"Nothing usable", " , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestParseRaw_KeepsCase(t *testing.T) {
	assert.Equal(t, []string{"Finance", "Budget", "Q3"}, ParseRaw("Finance, Budget ,, Q3"))
	assert.Len(t, ParseRaw("a,b,c,d,e,f"), MaxSuggestions)
}

func TestRank_Properties(t *testing.T) {
	existing := []ExistingTag{
		{Name: "go", UsageCount: 2},
		{Name: "Rust", UsageCount: 12},
		{Name: "wasm", UsageCount: 0},
	}
	raws := []string{
		"go, rust, wasm, zig, c",
		"zig, c, wasm, go, rust",
		"C, c, GO, go, zig, kotlin, wasm",
		"new, newer, newest",
	}

	for _, raw := range raws {
		t.Run(raw, func(t *testing.T) {
			resp, err := Rank(raw, existing, Metadata{})
			require.NoError(t, err)

			assert.LessOrEqual(t, len(resp.Suggestions), MaxSuggestions)
			seen := map[string]bool{}
			for i, sg := range resp.Suggestions {
				assert.False(t, seen[sg.Name], "duplicate %q", sg.Name)
				seen[sg.Name] = true
				assert.Equal(t, RelevanceFor(sg.UsageCount), sg.Relevance)
				if i == 0 {
					continue
				}
				prev := resp.Suggestions[i-1]
				assert.LessOrEqual(t, compareSuggestions(prev, sg), 0, "%v before %v", prev, sg)
			}

			again, err := Rank(raw, existing, Metadata{})
			require.NoError(t, err)
			assert.Equal(t, resp, again)
		})
	}
}

func TestRank_ExistsWithZeroUsageSortsBeforeNew(t *testing.T) {
	resp, err := Rank("fresh, dormant", []ExistingTag{{Name: "dormant"}}, Metadata{})
	require.NoError(t, err)

	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, "dormant", resp.Suggestions[0].Name)
	assert.True(t, resp.Suggestions[0].Exists)
	assert.Equal(t, RelevanceLow, resp.Suggestions[0].Relevance)
	assert.Equal(t, 1, resp.New)
}

func TestRank_CaseCollisionPicksMostUsed(t *testing.T) {
	existing := []ExistingTag{
		{Name: "Travel", UsageCount: 2},
		{Name: "travel", UsageCount: 7},
		{Name: "TRAVEL", UsageCount: 7},
	}

	resp, err := Rank("travel, food", existing, Metadata{})
	require.NoError(t, err)

	assert.Equal(t, 7, resp.Suggestions[0].UsageCount)
	assert.Equal(t, RelevanceHigh, resp.Suggestions[0].Relevance)
	assert.Equal(t, map[string][]string{"travel": {"Travel", "travel", "TRAVEL"}}, resp.Metadata.CaseCollisions)
}

func TestRelevanceFor(t *testing.T) {
	assert.Equal(t, RelevanceLow, RelevanceFor(0))
	assert.Equal(t, RelevanceMedium, RelevanceFor(1))
	assert.Equal(t, RelevanceMedium, RelevanceFor(5))
	assert.Equal(t, RelevanceHigh, RelevanceFor(6))
}
