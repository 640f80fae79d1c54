package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Provider credentials, one per chain role.
	// A provider without a key is unavailable for the process lifetime.
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	MistralAPIKey    string
	MistralBaseURL   string

	// Model tiers
	LightModel     string // suggestions, categorization, tagging
	StandardModel  string // enhancement, summaries, expansion, analysis
	AnthropicModel string // chain step 2
	MistralModel   string // chain step 3

	// Transcription
	TranscribeModel       string
	TranscribeLanguage    string
	TranscribeConcurrency int

	AITimeout     int    // provider request timeout in seconds
	ProvidersFile string // optional YAML roster overriding the env-derived providers

	// AllowedOrigins lists the browser origins allowed to call the API with
	// credentials. Empty means same-origin only.
	AllowedOrigins []string

	Mode    string
	Addr    string
	Data    string
	Driver  string
	DSN     string
	Version string
	Port    int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the primary provider is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.OpenAIAPIKey != ""
}

// getEnvOrDefault returns the first set environment variable of keys, or defaultValue.
func getEnvOrDefault(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		slog.Warn("Ignoring non-integer environment value", "key", key, "value", value)
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// IDEANOTE_-prefixed keys win over the vendors' conventional names.
func (p *Profile) FromEnv() {
	p.OpenAIAPIKey = getEnvOrDefault("", "IDEANOTE_OPENAI_API_KEY", "OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("", "IDEANOTE_OPENAI_BASE_URL")
	p.AnthropicAPIKey = getEnvOrDefault("", "IDEANOTE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	p.AnthropicBaseURL = getEnvOrDefault("", "IDEANOTE_ANTHROPIC_BASE_URL")
	p.MistralAPIKey = getEnvOrDefault("", "IDEANOTE_MISTRAL_API_KEY", "MISTRAL_API_KEY")
	p.MistralBaseURL = getEnvOrDefault("", "IDEANOTE_MISTRAL_BASE_URL")

	p.LightModel = getEnvOrDefault("gpt-4o-mini", "IDEANOTE_AI_LIGHT_MODEL")
	p.StandardModel = getEnvOrDefault("gpt-4o", "IDEANOTE_AI_STANDARD_MODEL")
	p.AnthropicModel = getEnvOrDefault("claude-3-5-sonnet-20241022", "IDEANOTE_AI_ANTHROPIC_MODEL")
	p.MistralModel = getEnvOrDefault("mistral-large-latest", "IDEANOTE_AI_MISTRAL_MODEL")

	p.TranscribeModel = getEnvOrDefault("whisper-1", "IDEANOTE_TRANSCRIBE_MODEL")
	p.TranscribeLanguage = getEnvOrDefault("en", "IDEANOTE_TRANSCRIBE_LANGUAGE")
	p.TranscribeConcurrency = getEnvOrDefaultInt("IDEANOTE_TRANSCRIBE_CONCURRENCY", 2)

	p.AITimeout = getEnvOrDefaultInt("IDEANOTE_AI_TIMEOUT_SECONDS", 120)
	p.AllowedOrigins = splitList(strings.Join(p.AllowedOrigins, ","))
	if len(p.AllowedOrigins) == 0 {
		p.AllowedOrigins = splitList(getEnvOrDefault("", "IDEANOTE_ALLOWED_ORIGINS"))
	}
	if p.ProvidersFile == "" {
		p.ProvidersFile = getEnvOrDefault("", "IDEANOTE_AI_PROVIDERS_FILE")
	}
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}

	if err := validation.ValidateStruct(p,
		validation.Field(&p.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&p.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&p.AITimeout, validation.Required, validation.Min(1)),
		validation.Field(&p.TranscribeConcurrency, validation.Required, validation.Min(1)),
		validation.Field(&p.DSN, validation.When(p.Driver == "postgres", validation.Required)),
		validation.Field(&p.AllowedOrigins, validation.Each(validation.NotIn("*").Error("wildcard origin is not allowed with credentials"))),
	); err != nil {
		return errors.Wrap(err, "invalid profile")
	}

	if p.Driver == "postgres" {
		return nil
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "ideanote")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/ideanote"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("ideanote_%s.db", p.Mode))
	}
	return nil
}
