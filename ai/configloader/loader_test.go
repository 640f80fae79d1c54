package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.yaml"), []byte("name: roster\nitems: [a, b]\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "typo.yaml"), []byte("nmae: roster\n"), 0o600))

	l := NewLoader(dir)

	t.Run("Relative path", func(t *testing.T) {
		var s sample
		require.NoError(t, l.Load("ok.yaml", &s))
		assert.Equal(t, sample{Name: "roster", Items: []string{"a", "b"}}, s)
	})

	t.Run("Absolute path", func(t *testing.T) {
		var s sample
		require.NoError(t, NewLoader("unused").Load(filepath.Join(dir, "ok.yaml"), &s))
		assert.Equal(t, "roster", s.Name)
	})

	t.Run("Unknown key rejected", func(t *testing.T) {
		var s sample
		assert.Error(t, l.Load("typo.yaml", &s))
	})

	t.Run("Missing file", func(t *testing.T) {
		var s sample
		assert.Error(t, l.Load("missing.yaml", &s))
	})
}
