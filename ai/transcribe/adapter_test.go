package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/core/llm"
	"github.com/hrygo/ideanote/ai/gateway"
)

// MockTranscriber is a mock for gateway.Transcriber.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, provider gateway.ProviderID, req *llm.TranscriptionRequest) (string, error) {
	args := m.Called(ctx, provider, req)
	return args.String(0), args.Error(1)
}

type fakeRecorder struct {
	outcomes []string
	bytes    []int
}

func (f *fakeRecorder) RecordTranscription(outcome string, bytes int) {
	f.outcomes = append(f.outcomes, outcome)
	f.bytes = append(f.bytes, bytes)
}

var primary = gateway.ProviderID{Role: gateway.RolePrimary, Model: "gpt-4o"}

func TestAdapter_Transcribe(t *testing.T) {
	ctx := context.Background()
	audio := []byte("RIFF....WAVEfmt ")

	tr := new(MockTranscriber)
	tr.On("Transcribe", ctx, primary, mock.MatchedBy(func(req *llm.TranscriptionRequest) bool {
		return req.Model == "whisper-1" &&
			req.Language == "en" &&
			req.Temperature == float32(0.2) &&
			string(req.Audio) == string(audio)
	})).Return("remember to buy milk", nil)
	rec := &fakeRecorder{}

	text := NewAdapter(tr, primary, Config{}, WithRecorder(rec)).Transcribe(ctx, audio)

	assert.Equal(t, "remember to buy milk", text)
	assert.Equal(t, []string{OutcomeSuccess}, rec.outcomes)
	assert.Equal(t, []int{len(audio)}, rec.bytes)
	tr.AssertExpectations(t)
}

func TestAdapter_NeverFails(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		reply   string
		err     error
		outcome string
	}{
		{"Transport failure", "", aierr.Wrap(errors.New("connection reset"), aierr.CodeProviderError, "transcription failed"), OutcomeError},
		{"Unconfigured provider", "", aierr.New(aierr.CodeProviderUnavailable, "not configured"), OutcomeError},
		{"Empty response", "", aierr.New(aierr.CodeEmptyResponse, "empty"), OutcomeEmpty},
		{"Empty text", "", nil, OutcomeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTranscriber)
			tr.On("Transcribe", ctx, primary, mock.Anything).Return(tt.reply, tt.err)
			rec := &fakeRecorder{}

			text := NewAdapter(tr, primary, Config{}, WithRecorder(rec)).Transcribe(ctx, []byte{1, 2, 3})

			assert.Empty(t, text)
			assert.Equal(t, []string{tt.outcome}, rec.outcomes)
		})
	}
}

func TestAdapter_NoInput(t *testing.T) {
	ctx := context.Background()
	tr := new(MockTranscriber)
	a := NewAdapter(tr, primary, Config{})

	assert.Empty(t, a.Transcribe(ctx, nil))
	assert.Empty(t, a.TranscribeReader(ctx, nil, "memo.webm"))
	assert.Empty(t, a.TranscribeReader(ctx, iotest.ErrReader(errors.New("broken pipe")), "memo.webm"))
	tr.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdapter_TranscribeFile(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing file returns empty", func(t *testing.T) {
		tr := new(MockTranscriber)
		rec := &fakeRecorder{}

		text := NewAdapter(tr, primary, Config{}, WithRecorder(rec)).
			TranscribeFile(ctx, filepath.Join(t.TempDir(), "does-not-exist.wav"))

		assert.Empty(t, text)
		assert.Equal(t, []string{OutcomeNoInput}, rec.outcomes)
		tr.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Passes file name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memo.m4a")
		assert.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o600))

		tr := new(MockTranscriber)
		tr.On("Transcribe", ctx, primary, mock.MatchedBy(func(req *llm.TranscriptionRequest) bool {
			return req.FileName == "memo.m4a" && string(req.Audio) == "audio-bytes"
		})).Return("hello", nil)

		assert.Equal(t, "hello", NewAdapter(tr, primary, Config{}).TranscribeFile(ctx, path))
	})
}

func TestAdapter_ExplicitZeroTemperature(t *testing.T) {
	ctx := context.Background()
	tr := new(MockTranscriber)
	tr.On("Transcribe", ctx, primary, mock.MatchedBy(func(req *llm.TranscriptionRequest) bool {
		return req.Temperature == 0
	})).Return("deterministic", nil)

	a := NewAdapter(tr, primary, Config{Temperature: Temperature(0)})

	assert.Equal(t, "deterministic", a.Transcribe(ctx, []byte("audio")))
	tr.AssertExpectations(t)
}

func TestAdapter_TranscribeReader(t *testing.T) {
	ctx := context.Background()
	tr := new(MockTranscriber)
	tr.On("Transcribe", ctx, primary, mock.MatchedBy(func(req *llm.TranscriptionRequest) bool {
		return req.Model == "whisper-large" && req.Language == "fr" && req.FileName == "note.ogg"
	})).Return("bonjour", nil)

	a := NewAdapter(tr, primary, Config{Model: "whisper-large", Language: "fr", Temperature: Temperature(0.1)})

	assert.Equal(t, "bonjour", a.TranscribeReader(ctx, strings.NewReader("ogg"), "note.ogg"))
}
