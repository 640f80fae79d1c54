// Package transcribe converts audio to text. It never fails: every problem
// collapses to an empty transcript that callers must check for.
package transcribe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/core/llm"
	"github.com/hrygo/ideanote/ai/filter"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/internal/strutil"
)

// Defaults of the transcription call.
const (
	DefaultModel       = "whisper-1"
	DefaultLanguage    = "en"
	DefaultTemperature = 0.2

	previewLength = 100
)

// Transcription outcomes reported to the Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeNoInput = "no_input"
)

// Config holds the fixed transcription settings. A nil Temperature means
// DefaultTemperature; an explicit 0 is kept.
type Config struct {
	Temperature *float32 `yaml:"temperature"`
	Model       string   `yaml:"model"`
	Language    string   `yaml:"language"`
}

// Temperature returns a pointer to t, for Config literals.
func Temperature(t float32) *float32 {
	return &t
}

// Recorder observes transcriptions.
type Recorder interface {
	RecordTranscription(outcome string, bytes int)
}

// Adapter transcribes audio through a gateway provider.
type Adapter struct {
	transcriber gateway.Transcriber
	provider    gateway.ProviderID
	cfg         Config
	recorder    Recorder
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		a.recorder = r
	}
}

// NewAdapter creates an Adapter. Unset Config fields take the defaults.
func NewAdapter(transcriber gateway.Transcriber, provider gateway.ProviderID, cfg Config, opts ...Option) *Adapter {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Temperature == nil {
		cfg.Temperature = Temperature(DefaultTemperature)
	}
	a := &Adapter{transcriber: transcriber, provider: provider, cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Transcribe returns the text spoken in audio, or "" if there is none.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte) string {
	return a.transcribe(ctx, audio, "")
}

// TranscribeNamed is Transcribe with the original file name, whose extension
// tells the provider the container format.
func (a *Adapter) TranscribeNamed(ctx context.Context, audio []byte, fileName string) string {
	return a.transcribe(ctx, audio, fileName)
}

// TranscribeReader reads r fully and transcribes it.
func (a *Adapter) TranscribeReader(ctx context.Context, r io.Reader, fileName string) string {
	if r == nil {
		slog.Error("No audio input provided")
		a.record(OutcomeNoInput, 0)
		return ""
	}
	audio, err := io.ReadAll(r)
	if err != nil {
		slog.Error("Failed to read audio input", "file", fileName, "error", err)
		a.record(OutcomeError, len(audio))
		return ""
	}
	return a.transcribe(ctx, audio, fileName)
}

// TranscribeFile transcribes the audio file at path.
func (a *Adapter) TranscribeFile(ctx context.Context, path string) string {
	audio, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Error("Audio file not found", "path", path)
		} else {
			slog.Error("Failed to read audio file", "path", path, "error", err)
		}
		a.record(OutcomeNoInput, 0)
		return ""
	}
	return a.transcribe(ctx, audio, filepath.Base(path))
}

func (a *Adapter) transcribe(ctx context.Context, audio []byte, fileName string) string {
	if len(audio) == 0 {
		slog.Error("Audio input is empty", "file", fileName)
		a.record(OutcomeNoInput, 0)
		return ""
	}
	slog.Info("Transcribing audio", "bytes", len(audio), "file", fileName, "model", a.cfg.Model)

	text, err := a.transcriber.Transcribe(ctx, a.provider, &llm.TranscriptionRequest{
		Audio:       audio,
		FileName:    fileName,
		Model:       a.cfg.Model,
		Language:    a.cfg.Language,
		Temperature: *a.cfg.Temperature,
	})
	if aierr.HasCode(err, aierr.CodeEmptyResponse) {
		err, text = nil, ""
	}
	if err != nil {
		slog.Error("Transcription failed", "bytes", len(audio), "error", err)
		a.record(OutcomeError, len(audio))
		return ""
	}
	if text == "" {
		slog.Warn("Transcription returned empty text", "bytes", len(audio))
		a.record(OutcomeEmpty, len(audio))
		return ""
	}

	slog.Info("Transcription completed", "chars", len(text), "preview", strutil.Preview(filter.Redact(text), previewLength))
	a.record(OutcomeSuccess, len(audio))
	return text
}

func (a *Adapter) record(outcome string, bytes int) {
	if a.recorder != nil {
		a.recorder.RecordTranscription(outcome, bytes)
	}
}
