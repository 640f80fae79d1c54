// Package enrichment is the boundary of the AI layer: every operation the
// note application can ask of it, built on the gateway, the prompt composer,
// the insight chain, the tag engine and the transcription adapter.
package enrichment

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/ideanote/ai"
	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/chain"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/prompt"
	"github.com/hrygo/ideanote/ai/tags"
	"github.com/hrygo/ideanote/ai/transcribe"
)

// Backend is a gateway that can also transcribe audio.
type Backend interface {
	gateway.Gateway
	gateway.Transcriber
}

// Recorder observes every enrichment component.
type Recorder interface {
	chain.Recorder
	tags.Recorder
	transcribe.Recorder
}

// TaskResult is the output of a single-call task.
type TaskResult struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Task        prompt.Task        `json:"task"`
	Text        string             `json:"text"`
	Provider    gateway.ProviderID `json:"provider"`
}

// Service holds the wired enrichment components. It keeps no per-request
// state and is safe for concurrent use.
type Service struct {
	backend     Backend
	routing     gateway.Routing
	chain       *chain.Orchestrator
	tags        *tags.Suggester
	transcriber *transcribe.Adapter
	now         func() time.Time
}

type options struct {
	recorder Recorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*options)

// WithRecorder sets the metrics recorder of every component.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewService wires the components from cfg over backend.
func NewService(cfg *ai.Config, backend Backend, opts ...Option) *Service {
	o := &options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(o)
	}

	chainOpts := []chain.Option{chain.WithClock(o.now)}
	tagOpts := []tags.Option{tags.WithClock(o.now)}
	var transcribeOpts []transcribe.Option
	if o.recorder != nil {
		chainOpts = append(chainOpts, chain.WithRecorder(o.recorder))
		tagOpts = append(tagOpts, tags.WithRecorder(o.recorder))
		transcribeOpts = append(transcribeOpts, transcribe.WithRecorder(o.recorder))
	}

	tagSpec, _ := prompt.Lookup(prompt.TaskTagExtraction)

	return &Service{
		backend:     backend,
		routing:     cfg.Routing,
		chain:       chain.NewOrchestrator(backend, cfg.Routing, chainOpts...),
		tags:        tags.NewSuggester(backend, cfg.Routing.ForTier(tagSpec.Tier), tagOpts...),
		transcriber: transcribe.NewAdapter(backend, cfg.Transcription.Provider, cfg.Transcription.Config, transcribeOpts...),
		now:         o.now,
	}
}

// Generate runs a single-call task over content.
func (s *Service) Generate(ctx context.Context, task prompt.Task, content string) (*TaskResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, aierr.New(aierr.CodeContentMissing, "No content provided")
	}
	spec, ok := prompt.Lookup(task)
	if !ok {
		return nil, aierr.Newf(aierr.CodeInvalidArgument, "unknown task %q", task)
	}
	p, err := prompt.ComposeBasePrompt(task, content)
	if err != nil {
		return nil, err
	}

	provider := s.routing.ForTier(spec.Tier)
	text, err := s.backend.Invoke(ctx, provider, p, spec.MaxTokens)
	if err != nil {
		slog.Warn("AI task failed",
			"task", task,
			"model", provider.Model,
			"code", aierr.CodeOf(err),
		)
		return nil, err
	}

	return &TaskResult{
		Task:        task,
		Text:        text,
		Provider:    provider,
		GeneratedAt: s.now(),
	}, nil
}

func (s *Service) Enhance(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskEnhancement, content)
}

func (s *Service) Summarize(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskSummarization, content)
}

// Categorize returns a one-word category. Surrounding punctuation the model
// adds is stripped.
func (s *Service) Categorize(ctx context.Context, content string) (*TaskResult, error) {
	res, err := s.Generate(ctx, prompt.TaskCategorization, content)
	if err != nil {
		return nil, err
	}
	if word := strings.Trim(res.Text, " .\"'`*"); word != "" {
		res.Text = word
	}
	return res, nil
}

func (s *Service) Suggest(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskSuggestion, content)
}

func (s *Service) Expand(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskExpansion, content)
}

func (s *Service) Analyze(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskConceptAnalysis, content)
}

func (s *Service) RelatedIdeas(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskRelatedIdeas, content)
}

func (s *Service) MindMap(ctx context.Context, content string) (*TaskResult, error) {
	return s.Generate(ctx, prompt.TaskMindMap, content)
}

// SuggestTagsRaw returns the model's tags for content as written, without
// ranking against a vocabulary.
func (s *Service) SuggestTagsRaw(ctx context.Context, content string) ([]string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, aierr.New(aierr.CodeContentMissing, "No content provided")
	}
	raw, err := s.tags.Raw(ctx, content)
	if err != nil {
		return nil, err
	}
	names := tags.ParseRaw(raw)
	if len(names) == 0 {
		return nil, aierr.New(aierr.CodeNoValidTags, "No valid tags after processing")
	}
	return names, nil
}

// SuggestTags ranks the model's tags for content against the user's existing tags.
func (s *Service) SuggestTags(ctx context.Context, content string, existing []tags.ExistingTag) (*tags.Response, error) {
	return s.tags.Suggest(ctx, content, existing)
}

func (s *Service) RunChain(ctx context.Context, content string) *chain.Result {
	return s.chain.RunChain(ctx, content)
}

func (s *Service) RunChainWithBase(ctx context.Context, task prompt.Task, content string) (*chain.WithBaseResult, error) {
	return s.chain.RunChainWithBase(ctx, task, content)
}

// Transcribe never fails; "" means no text could be obtained.
func (s *Service) Transcribe(ctx context.Context, audio []byte, fileName string) string {
	return s.transcriber.TranscribeNamed(ctx, audio, fileName)
}

func (s *Service) TranscribeReader(ctx context.Context, r io.Reader, fileName string) string {
	return s.transcriber.TranscribeReader(ctx, r, fileName)
}

func (s *Service) TranscribeFile(ctx context.Context, path string) string {
	return s.transcriber.TranscribeFile(ctx, path)
}
