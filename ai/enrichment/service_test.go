package enrichment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ideanote/ai"
	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/chain"
	"github.com/hrygo/ideanote/ai/core/llm"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/prompt"
	"github.com/hrygo/ideanote/ai/tags"
	"github.com/hrygo/ideanote/internal/profile"
	"github.com/hrygo/ideanote/store"
)

// MockBackend is a mock for Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Invoke(ctx context.Context, provider gateway.ProviderID, p string, maxTokens int) (string, error) {
	args := m.Called(ctx, provider, p, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Available(role gateway.Role) bool {
	return m.Called(role).Bool(0)
}

func (m *MockBackend) Transcribe(ctx context.Context, provider gateway.ProviderID, req *llm.TranscriptionRequest) (string, error) {
	args := m.Called(ctx, provider, req)
	return args.String(0), args.Error(1)
}

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func testConfig() *ai.Config {
	return ai.NewConfigFromProfile(&profile.Profile{
		LightModel:         "gpt-4o-mini",
		StandardModel:      "gpt-4o",
		AnthropicModel:     "claude-3-5-sonnet-20241022",
		MistralModel:       "mistral-large-latest",
		TranscribeModel:    "whisper-1",
		TranscribeLanguage: "en",
		AITimeout:          30,
	})
}

func newTestService(b Backend) *Service {
	return NewService(testConfig(), b, WithClock(func() time.Time { return fixedNow }))
}

var (
	light    = gateway.ProviderID{Role: gateway.RolePrimary, Model: "gpt-4o-mini"}
	standard = gateway.ProviderID{Role: gateway.RolePrimary, Model: "gpt-4o"}
)

func TestService_SingleCallTasks(t *testing.T) {
	ctx := context.Background()
	const content = "Solar powered drones for crop monitoring"

	tests := []struct {
		name     string
		call     func(*Service) (*TaskResult, error)
		task     prompt.Task
		provider gateway.ProviderID
	}{
		{"Enhance", func(s *Service) (*TaskResult, error) { return s.Enhance(ctx, content) }, prompt.TaskEnhancement, standard},
		{"Summarize", func(s *Service) (*TaskResult, error) { return s.Summarize(ctx, content) }, prompt.TaskSummarization, standard},
		{"Suggest", func(s *Service) (*TaskResult, error) { return s.Suggest(ctx, content) }, prompt.TaskSuggestion, light},
		{"Expand", func(s *Service) (*TaskResult, error) { return s.Expand(ctx, content) }, prompt.TaskExpansion, standard},
		{"Analyze", func(s *Service) (*TaskResult, error) { return s.Analyze(ctx, content) }, prompt.TaskConceptAnalysis, standard},
		{"RelatedIdeas", func(s *Service) (*TaskResult, error) { return s.RelatedIdeas(ctx, content) }, prompt.TaskRelatedIdeas, standard},
		{"MindMap", func(s *Service) (*TaskResult, error) { return s.MindMap(ctx, content) }, prompt.TaskMindMap, standard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := prompt.Lookup(tt.task)
			expected, err := prompt.ComposeBasePrompt(tt.task, content)
			require.NoError(t, err)

			b := new(MockBackend)
			b.On("Invoke", ctx, tt.provider, expected, spec.MaxTokens).Return("model output", nil)

			res, err := tt.call(newTestService(b))

			require.NoError(t, err)
			assert.Equal(t, &TaskResult{
				Task:        tt.task,
				Text:        "model output",
				Provider:    tt.provider,
				GeneratedAt: fixedNow,
			}, res)
			b.AssertExpectations(t)
		})
	}
}

func TestService_Categorize(t *testing.T) {
	ctx := context.Background()
	b := new(MockBackend)
	b.On("Invoke", ctx, light, mock.Anything, 20).Return("Agriculture.", nil)

	res, err := newTestService(b).Categorize(ctx, "Solar powered drones for crop monitoring")

	require.NoError(t, err)
	assert.Equal(t, "Agriculture", res.Text)
}

func TestService_GenerateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("Blank content makes no call", func(t *testing.T) {
		b := new(MockBackend)
		_, err := newTestService(b).Enhance(ctx, " \n ")
		assert.Equal(t, aierr.CodeContentMissing, aierr.CodeOf(err))
		b.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown task", func(t *testing.T) {
		_, err := newTestService(new(MockBackend)).Generate(ctx, prompt.Task("poem"), "content")
		assert.Equal(t, aierr.CodeInvalidArgument, aierr.CodeOf(err))
	})

	t.Run("Unconfigured provider propagates", func(t *testing.T) {
		b := new(MockBackend)
		b.On("Invoke", ctx, standard, mock.Anything, 100).
			Return("", aierr.New(aierr.CodeProviderUnavailable, "provider primary is not configured"))

		_, err := newTestService(b).Summarize(ctx, "content to summarize")
		assert.Equal(t, aierr.CodeProviderUnavailable, aierr.CodeOf(err))
	})
}

func TestService_SuggestTags(t *testing.T) {
	ctx := context.Background()
	b := new(MockBackend)
	b.On("Invoke", ctx, light, mock.Anything, 50).Return("Budget, meeting, Planning", nil)

	resp, err := newTestService(b).SuggestTags(ctx, "Meeting notes about quarterly budget planning", []tags.ExistingTag{
		{Name: "Meeting", UsageCount: 8},
	})

	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 3)
	assert.Equal(t, "meeting", resp.Suggestions[0].Name)
	assert.True(t, resp.Suggestions[0].Exists)
	assert.Equal(t, 2, resp.New)
	assert.Equal(t, "gpt-4o-mini", resp.Metadata.ModelUsed)
	assert.Equal(t, fixedNow, resp.Metadata.Timestamp)
}

func TestService_SuggestTagsRaw(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps case as written", func(t *testing.T) {
		b := new(MockBackend)
		b.On("Invoke", ctx, light, mock.Anything, 50).Return("Budget, Meeting ,, Q3", nil)

		names, err := newTestService(b).SuggestTagsRaw(ctx, "short")

		require.NoError(t, err)
		assert.Equal(t, []string{"Budget", "Meeting", "Q3"}, names)
	})

	t.Run("Only separators", func(t *testing.T) {
		b := new(MockBackend)
		b.On("Invoke", ctx, light, mock.Anything, 50).Return(" , ,", nil)

		_, err := newTestService(b).SuggestTagsRaw(ctx, "content")
		assert.Equal(t, aierr.CodeNoValidTags, aierr.CodeOf(err))
	})

	t.Run("Blank content", func(t *testing.T) {
		_, err := newTestService(new(MockBackend)).SuggestTagsRaw(ctx, "")
		assert.Equal(t, aierr.CodeContentMissing, aierr.CodeOf(err))
	})
}

func TestService_RunChainWithBase(t *testing.T) {
	ctx := context.Background()
	b := new(MockBackend)
	b.On("Available", gateway.RolePrimary).Return(true)
	b.On("Available", gateway.RoleAlternative1).Return(true)
	b.On("Available", gateway.RoleAlternative2).Return(false)
	b.On("Invoke", ctx, standard, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "Analyze and expand")
	}), 500).Return("expanded idea", nil)
	b.On("Invoke", ctx, standard, prompt.ComposeChainPrompt("drones", nil), prompt.ChainMaxTokens).Return("insight A", nil)
	b.On("Invoke", ctx, mock.MatchedBy(func(p gateway.ProviderID) bool {
		return p.Role == gateway.RoleAlternative1
	}), mock.Anything, prompt.ChainMaxTokens).Return("insight B", nil)

	res, err := newTestService(b).RunChainWithBase(ctx, prompt.TaskExpansion, "drones")

	require.NoError(t, err)
	assert.Equal(t, "expanded idea", res.Base)
	require.Len(t, res.Chain.Insights, 2)
	assert.Equal(t, "insight B", res.Chain.Insights[1].Text)
	assert.Equal(t, fixedNow, res.GeneratedAt)
}

func TestService_Transcribe(t *testing.T) {
	ctx := context.Background()
	b := new(MockBackend)
	b.On("Transcribe", ctx, gateway.ProviderID{Role: gateway.RolePrimary, Model: "whisper-1"}, mock.MatchedBy(func(req *llm.TranscriptionRequest) bool {
		return req.FileName == "memo.m4a" && req.Language == "en" && req.Model == "whisper-1"
	})).Return("buy milk", nil)

	s := newTestService(b)

	assert.Equal(t, "buy milk", s.Transcribe(ctx, []byte{1, 2, 3}, "memo.m4a"))
	assert.Equal(t, "", s.TranscribeReader(ctx, nil, "memo.m4a"))
}

func TestNewTaskInteraction(t *testing.T) {
	parent := int32(4)
	rec := NewTaskInteraction(7, &parent, &TaskResult{
		Task:        prompt.TaskMindMap,
		Text:        "1. Central theme",
		Provider:    standard,
		GeneratedAt: fixedNow,
	})

	assert.Equal(t, int32(7), rec.NoteID)
	assert.Equal(t, &parent, rec.ParentID)
	assert.Equal(t, store.AIInteractionMindMap, rec.InteractionType)
	assert.Equal(t, "gpt-4o", rec.ModelUsed)
	assert.Equal(t, []string{"gpt-4o"}, rec.Metadata.ModelsUsed)
	assert.Equal(t, "mind_map", rec.Metadata.Task)
	assert.Empty(t, rec.Metadata.ChainID)
}

func TestNewChainInteraction(t *testing.T) {
	alt1 := gateway.ProviderID{Role: gateway.RoleAlternative1, Model: "claude-3-5-sonnet-20241022"}
	alt2 := gateway.ProviderID{Role: gateway.RoleAlternative2, Model: "mistral-large-latest"}

	res := &chain.WithBaseResult{
		Task:         prompt.TaskConceptAnalysis,
		Base:         "analysis",
		BaseProvider: standard,
		ModelsUsed:   []gateway.ProviderID{standard, alt1},
		GeneratedAt:  fixedNow,
		Chain: &chain.Result{
			Insights: []gateway.Insight{{Provider: standard, Text: "A"}, {Provider: alt1, Text: "B"}},
			Failures: []chain.Failure{{Provider: alt2, Code: aierr.CodeProviderError, Message: "503"}},
		},
	}

	first := NewChainInteraction(3, nil, res)
	second := NewChainInteraction(3, nil, res)

	assert.Equal(t, store.AIInteractionAnalyze, first.InteractionType)
	assert.Equal(t, "analysis", first.Content)
	assert.Equal(t, "gpt-4o", first.ModelUsed)
	assert.Nil(t, first.ParentID)
	assert.Equal(t, []string{"gpt-4o", "claude-3-5-sonnet-20241022"}, first.Metadata.ModelsUsed)
	assert.Equal(t, []store.AIInteractionInsight{{Model: "gpt-4o", Text: "A"}, {Model: "claude-3-5-sonnet-20241022", Text: "B"}}, first.Metadata.ChainInsights)
	assert.Equal(t, []store.AIInteractionFailure{{Model: "mistral-large-latest", Code: "PROVIDER_ERROR", Message: "503"}}, first.Metadata.Failures)
	assert.NotEmpty(t, first.Metadata.ChainID)
	assert.NotEqual(t, first.Metadata.ChainID, second.Metadata.ChainID)
}

func TestExistingTags(t *testing.T) {
	existing := ExistingTags([]*store.TagUsage{
		{Tag: store.Tag{Name: "Meeting"}, UsageCount: 8},
		{Tag: store.Tag{Name: "ideas"}},
	})

	assert.Equal(t, []tags.ExistingTag{{Name: "Meeting", UsageCount: 8}, {Name: "ideas"}}, existing)
}
