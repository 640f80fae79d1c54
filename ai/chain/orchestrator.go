// Package chain drives a sequence of gateway calls across providers, feeding
// each one the insights produced so far.
package chain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/prompt"
)

// Result is the outcome of one chain run. Insights keep call order.
type Result struct {
	GeneratedAt time.Time         `json:"generated_at"`
	BaseText    string            `json:"base_text"`
	Insights    []gateway.Insight `json:"insights"`
	Failures    []Failure         `json:"failures,omitempty"`
}

// Failure records a provider that was tried and produced nothing.
type Failure struct {
	Provider gateway.ProviderID `json:"provider"`
	Code     aierr.Code         `json:"code"`
	Message  string             `json:"message"`
}

// ModelsUsed returns the providers that contributed an insight, in order.
func (r *Result) ModelsUsed() []gateway.ProviderID {
	used := make([]gateway.ProviderID, 0, len(r.Insights))
	for _, insight := range r.Insights {
		used = append(used, insight.Provider)
	}
	return used
}

// WithBaseResult joins a task's primary deliverable with an independent chain run.
type WithBaseResult struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Chain        *Result              `json:"chain"`
	Task         prompt.Task          `json:"task"`
	Base         string               `json:"base"`
	BaseProvider gateway.ProviderID   `json:"base_provider"`
	ModelsUsed   []gateway.ProviderID `json:"models_used"`
}

// Recorder observes chain runs.
type Recorder interface {
	RecordChainRun(task string, insights, failures int, duration time.Duration)
}

// Orchestrator runs insight chains. It holds no per-request state.
type Orchestrator struct {
	gw       gateway.Gateway
	routing  gateway.Routing
	recorder Recorder
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator. routing.Chain is the fixed provider
// order, primary first.
func NewOrchestrator(gw gateway.Gateway, routing gateway.Routing, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gw:      gw,
		routing: routing,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunChain calls each provider of the chain in turn. Unavailable providers are
// skipped; failing providers are recorded and skipped. A canceled context stops
// further calls and returns what was accumulated.
// A Result with no insights means the whole chain failed.
func (o *Orchestrator) RunChain(ctx context.Context, content string) *Result {
	return o.runChain(ctx, "chain", content)
}

// runChain reports the run to the recorder under label.
func (o *Orchestrator) runChain(ctx context.Context, label, content string) *Result {
	start := time.Now()
	result := &Result{BaseText: content}

	for _, provider := range o.routing.Chain {
		if ctx.Err() != nil {
			slog.Warn("Chain canceled, returning partial result",
				"insights", len(result.Insights),
				"error", ctx.Err(),
			)
			break
		}

		if !o.gw.Available(provider.Role) {
			slog.Debug("Chain provider unavailable, skipping", "role", provider.Role, "model", provider.Model)
			continue
		}

		chainPrompt := prompt.ComposeChainPrompt(content, result.Insights)
		text, err := o.gw.Invoke(ctx, provider, chainPrompt, prompt.ChainMaxTokens)
		if err != nil {
			if aierr.HasCode(err, aierr.CodeProviderUnavailable) {
				continue
			}
			code := aierr.CodeOf(err)
			slog.Warn("Chain provider failed, continuing",
				"role", provider.Role,
				"model", provider.Model,
				"code", code,
				"error", err,
			)
			result.Failures = append(result.Failures, Failure{
				Provider: provider,
				Code:     code,
				Message:  err.Error(),
			})
			continue
		}

		result.Insights = append(result.Insights, gateway.Insight{Provider: provider, Text: text})
	}

	result.GeneratedAt = o.now()
	if o.recorder != nil {
		o.recorder.RecordChainRun(label, len(result.Insights), len(result.Failures), time.Since(start))
	}
	return result
}

// RunChainWithBase runs the task-specific generation, then an independent chain
// over the same content. A failure of the task call propagates; a chain with no
// insights is CHAIN_FAILED.
func (o *Orchestrator) RunChainWithBase(ctx context.Context, task prompt.Task, content string) (*WithBaseResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, aierr.New(aierr.CodeContentMissing, "No content provided")
	}
	spec, ok := prompt.Lookup(task)
	if !ok {
		return nil, aierr.Newf(aierr.CodeInvalidArgument, "unknown task %q", task)
	}

	basePrompt, err := prompt.ComposeBasePrompt(task, content)
	if err != nil {
		return nil, err
	}
	baseProvider := o.routing.ForTier(spec.Tier)
	base, err := o.gw.Invoke(ctx, baseProvider, basePrompt, spec.MaxTokens)
	if err != nil {
		return nil, err
	}

	chainResult := o.runChain(ctx, string(task), content)
	if len(chainResult.Insights) == 0 {
		return nil, aierr.Newf(aierr.CodeChainFailed, "no provider produced an insight (%d failed)", len(chainResult.Failures))
	}

	return &WithBaseResult{
		Task:         task,
		Base:         base,
		BaseProvider: baseProvider,
		Chain:        chainResult,
		ModelsUsed:   chainResult.ModelsUsed(),
		GeneratedAt:  o.now(),
	}, nil
}
