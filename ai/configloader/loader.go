// Package configloader reads the YAML files that tune the AI layer.
package configloader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader reads YAML files relative to a base directory.
type Loader struct {
	baseDir string
}

// NewLoader creates a new configuration loader.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		baseDir: baseDir,
	}
}

// Load reads a YAML file and decodes it into target.
// Unknown keys are rejected so typos in a roster fail loudly.
func (l *Loader) Load(subPath string, target any) error {
	data, err := l.ReadFileWithFallback(subPath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", subPath, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("unmarshal YAML %s: %w", subPath, err)
	}
	return nil
}

// ReadFileWithFallback reads path relative to baseDir (or as given when
// absolute), then falls back to the executable directory.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	primary := path
	if !filepath.IsAbs(path) {
		primary = filepath.Join(l.baseDir, path)
	}
	data, err := os.ReadFile(primary)
	if err == nil || filepath.IsAbs(path) {
		return data, err
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(filepath.Dir(execPath), l.baseDir, path))
}
