// Package gateway gives every configured LLM backend one uniform capability:
// a prompt and a token ceiling in, generated text out, or a tagged failure.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/core/llm"
)

// Gateway invokes a provider.
type Gateway interface {
	// Invoke sends prompt to provider with maxOutputTokens as a hard cap.
	// It never retries. Failures carry PROVIDER_UNAVAILABLE, PROVIDER_ERROR or EMPTY_RESPONSE.
	Invoke(ctx context.Context, provider ProviderID, prompt string, maxOutputTokens int) (string, error)

	// Available reports whether role has a configured credential.
	Available(role Role) bool
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, provider ProviderID, req *llm.TranscriptionRequest) (string, error)
}

// CallRecorder observes provider calls.
type CallRecorder interface {
	RecordProviderCall(role, model, outcome string, latency time.Duration)
}

// Call outcomes reported to the CallRecorder.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeEmpty       = "empty"
)

// ProviderConfig describes one backend role.
type ProviderConfig struct {
	Role     Role   `yaml:"role"`
	Provider string `yaml:"provider"` // openai, anthropic, mistral, deepseek, openrouter, ollama
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`
	BaseURL  string `yaml:"base_url"`
	Timeout  int    `yaml:"timeout"`
}

// HasCredential reports whether the role can be reached.
// Local ollama needs no key.
func (c ProviderConfig) HasCredential() bool {
	return c.APIKey != "" || c.Provider == "ollama"
}

// Registry is the Gateway over a fixed set of backends, one per role.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	backends map[Role]llm.Service
	recorder CallRecorder
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder sets the metrics recorder.
func WithRecorder(r CallRecorder) Option {
	return func(reg *Registry) {
		reg.recorder = r
	}
}

// NewRegistry creates a Registry from ready backends.
func NewRegistry(backends map[Role]llm.Service, opts ...Option) *Registry {
	bs := make(map[Role]llm.Service, len(backends))
	for role, svc := range backends {
		if svc != nil {
			bs[role] = svc
		}
	}
	reg := &Registry{backends: bs}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// New builds a backend for every role that has a credential.
// Roles without one stay unavailable for the lifetime of the Registry.
func New(cfgs []ProviderConfig, opts ...Option) (*Registry, error) {
	backends := make(map[Role]llm.Service, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.HasCredential() {
			slog.Info("LLM provider not configured, role unavailable",
				"role", cfg.Role,
				"provider", cfg.Provider,
			)
			continue
		}
		svc, err := llm.NewService(&llm.Config{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("LLM provider initialized",
			"role", cfg.Role,
			"provider", cfg.Provider,
			"model", cfg.Model,
		)
		backends[cfg.Role] = svc
	}
	return NewRegistry(backends, opts...), nil
}

func (r *Registry) Available(role Role) bool {
	_, ok := r.backends[role]
	return ok
}

func (r *Registry) Invoke(ctx context.Context, provider ProviderID, prompt string, maxOutputTokens int) (string, error) {
	backend, ok := r.backends[provider.Role]
	if !ok {
		r.record(provider, OutcomeUnavailable, 0)
		return "", aierr.Newf(aierr.CodeProviderUnavailable, "provider %s is not configured", provider.Role).
			WithProvider(provider.String())
	}

	start := time.Now()
	content, _, err := backend.Chat(ctx, &llm.ChatRequest{
		Model:     provider.Model,
		MaxTokens: maxOutputTokens,
		Messages:  []llm.Message{llm.UserMessage(prompt)},
	})
	latency := time.Since(start)

	if errors.Is(err, llm.ErrEmptyResponse) {
		r.record(provider, OutcomeEmpty, latency)
		return "", aierr.Wrap(err, aierr.CodeEmptyResponse, "provider returned no choices").WithProvider(provider.String())
	}
	if err != nil {
		r.record(provider, OutcomeError, latency)
		return "", aierr.Wrap(err, aierr.CodeProviderError, "provider call failed").WithProvider(provider.String())
	}

	text := strings.TrimSpace(content)
	if text == "" {
		r.record(provider, OutcomeEmpty, latency)
		return "", aierr.New(aierr.CodeEmptyResponse, "provider returned empty text").WithProvider(provider.String())
	}

	r.record(provider, OutcomeSuccess, latency)
	return text, nil
}

func (r *Registry) Transcribe(ctx context.Context, provider ProviderID, req *llm.TranscriptionRequest) (string, error) {
	backend, ok := r.backends[provider.Role]
	if !ok {
		return "", aierr.Newf(aierr.CodeProviderUnavailable, "provider %s is not configured", provider.Role)
	}
	if req.Model == "" {
		req.Model = provider.Model
	}

	start := time.Now()
	text, err := backend.Transcribe(ctx, req)
	latency := time.Since(start)
	audioProvider := ProviderID{Role: provider.Role, Model: req.Model}
	if err != nil {
		r.record(audioProvider, OutcomeError, latency)
		return "", aierr.Wrap(err, aierr.CodeProviderError, "transcription failed").WithProvider(req.Model)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.record(audioProvider, OutcomeEmpty, latency)
		return "", aierr.New(aierr.CodeEmptyResponse, "transcription returned empty text").WithProvider(req.Model)
	}
	r.record(audioProvider, OutcomeSuccess, latency)
	return text, nil
}

// Warmup pings the primary backend. Best effort.
func (r *Registry) Warmup(ctx context.Context) {
	if svc, ok := r.backends[RolePrimary]; ok {
		svc.Warmup(ctx)
	}
}

func (r *Registry) record(provider ProviderID, outcome string, latency time.Duration) {
	if r.recorder == nil {
		return
	}
	r.recorder.RecordProviderCall(string(provider.Role), provider.Model, outcome, latency)
}
