package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ideanote/ai/metrics"
	"github.com/hrygo/ideanote/internal/profile"
	"github.com/hrygo/ideanote/store"
	"github.com/hrygo/ideanote/store/db/sqlite"
)

func newTestProfile(t *testing.T) *profile.Profile {
	return &profile.Profile{
		Mode:                  "dev",
		Addr:                  "127.0.0.1",
		Port:                  0,
		Driver:                "sqlite",
		DSN:                   filepath.Join(t.TempDir(), "ideanote_test.db"),
		LightModel:            "gpt-4o-mini",
		StandardModel:         "gpt-4o",
		AnthropicModel:        "claude-3-5-sonnet-20241022",
		MistralModel:          "mistral-large-latest",
		TranscribeModel:       "whisper-1",
		TranscribeLanguage:    "en",
		TranscribeConcurrency: 1,
		AITimeout:             5,
	}
}

func newTestStore(t *testing.T, p *profile.Profile) *store.Store {
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestNewServer_StartAndShutdown(t *testing.T) {
	ctx := context.Background()
	p := newTestProfile(t)
	st := newTestStore(t, p)

	s, err := NewServer(ctx, p, st, metrics.NewPrometheusExporter(metrics.DefaultConfig()))
	require.NoError(t, err)

	require.NoError(t, s.Start(ctx))
	s.Shutdown(ctx)
}

func TestNewServer_ProvidersFile(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid roster", func(t *testing.T) {
		p := newTestProfile(t)
		p.ProvidersFile = filepath.Join(t.TempDir(), "providers.yaml")
		require.NoError(t, os.WriteFile(p.ProvidersFile, []byte("routing:\n  chain: [alternative-1]\n"), 0o600))
		st := newTestStore(t, p)
		t.Cleanup(func() { _ = st.Close() })

		_, err := NewServer(ctx, p, st, metrics.NewPrometheusExporter(metrics.DefaultConfig()))
		assert.ErrorContains(t, err, "invalid AI configuration")
	})

	t.Run("Missing roster", func(t *testing.T) {
		p := newTestProfile(t)
		p.ProvidersFile = filepath.Join(t.TempDir(), "missing.yaml")
		st := newTestStore(t, p)
		t.Cleanup(func() { _ = st.Close() })

		_, err := NewServer(ctx, p, st, metrics.NewPrometheusExporter(metrics.DefaultConfig()))
		assert.ErrorContains(t, err, "failed to load providers file")
	})
}
