// Package ai assembles the process-wide configuration of the enrichment layer.
package ai

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hrygo/ideanote/ai/configloader"
	"github.com/hrygo/ideanote/ai/core/llm"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/transcribe"
	"github.com/hrygo/ideanote/internal/profile"
)

// Config is built once at start and passed explicitly to every component.
type Config struct {
	Providers     []gateway.ProviderConfig
	Routing       gateway.Routing
	Transcription TranscriptionConfig
}

// TranscriptionConfig selects the provider and settings for audio.
type TranscriptionConfig struct {
	Provider gateway.ProviderID
	transcribe.Config
}

// NewConfigFromProfile creates AI config from profile.
// The primary role is OpenAI; the chain alternates to Anthropic and Mistral.
func NewConfigFromProfile(p *profile.Profile) *Config {
	primary := gateway.ProviderID{Role: gateway.RolePrimary, Model: p.StandardModel}
	alt1 := gateway.ProviderID{Role: gateway.RoleAlternative1, Model: p.AnthropicModel}
	alt2 := gateway.ProviderID{Role: gateway.RoleAlternative2, Model: p.MistralModel}

	return &Config{
		Providers: []gateway.ProviderConfig{
			{
				Role:     gateway.RolePrimary,
				Provider: "openai",
				Model:    p.StandardModel,
				APIKey:   p.OpenAIAPIKey,
				BaseURL:  p.OpenAIBaseURL,
				Timeout:  p.AITimeout,
			},
			{
				Role:     gateway.RoleAlternative1,
				Provider: "anthropic",
				Model:    p.AnthropicModel,
				APIKey:   p.AnthropicAPIKey,
				BaseURL:  p.AnthropicBaseURL,
				Timeout:  p.AITimeout,
			},
			{
				Role:     gateway.RoleAlternative2,
				Provider: "mistral",
				Model:    p.MistralModel,
				APIKey:   p.MistralAPIKey,
				BaseURL:  p.MistralBaseURL,
				Timeout:  p.AITimeout,
			},
		},
		Routing: gateway.Routing{
			Light:    gateway.ProviderID{Role: gateway.RolePrimary, Model: p.LightModel},
			Standard: primary,
			Chain:    []gateway.ProviderID{primary, alt1, alt2},
		},
		Transcription: TranscriptionConfig{
			Provider: gateway.ProviderID{Role: gateway.RolePrimary, Model: p.TranscribeModel},
			Config: transcribe.Config{
				Model:       p.TranscribeModel,
				Language:    p.TranscribeLanguage,
				Temperature: transcribe.Temperature(transcribe.DefaultTemperature),
			},
		},
	}
}

// Provider returns the configuration of role.
func (c *Config) Provider(role gateway.Role) (gateway.ProviderConfig, bool) {
	for _, pc := range c.Providers {
		if pc.Role == role {
			return pc, true
		}
	}
	return gateway.ProviderConfig{}, false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for i := range c.Providers {
		pc := &c.Providers[i]
		if err := validation.ValidateStruct(pc,
			validation.Field(&pc.Role, validation.Required, validation.In(roleValues()...)),
			validation.Field(&pc.Provider, validation.Required, validation.By(knownProvider(pc.BaseURL))),
			validation.Field(&pc.Model, validation.Required),
			validation.Field(&pc.Timeout, validation.Min(0)),
		); err != nil {
			return fmt.Errorf("provider %d: %w", i, err)
		}
	}

	r := &c.Routing
	if err := validation.ValidateStruct(r,
		validation.Field(&r.Standard, validation.By(c.providerRule)),
		validation.Field(&r.Chain, validation.Required, validation.By(primaryFirst), validation.Each(validation.By(c.providerRule))),
	); err != nil {
		return fmt.Errorf("routing: %w", err)
	}
	if r.Light.Role != "" {
		if err := c.providerRule(r.Light); err != nil {
			return fmt.Errorf("routing: light: %w", err)
		}
	}

	tc := &c.Transcription
	if err := validation.ValidateStruct(&tc.Config,
		validation.Field(&tc.Config.Model, validation.Required),
		validation.Field(&tc.Config.Language, validation.Required, validation.Length(2, 5)),
		validation.Field(&tc.Config.Temperature, validation.Min(float32(0)), validation.Max(float32(1))),
	); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	return nil
}

func roleValues() []any {
	values := make([]any, 0, len(gateway.Roles()))
	for _, r := range gateway.Roles() {
		values = append(values, r)
	}
	return values
}

func knownProvider(baseURL string) validation.RuleFunc {
	return func(value any) error {
		name, _ := value.(string)
		if baseURL == "" && llm.DefaultBaseURL(name) == "" {
			return fmt.Errorf("unknown provider %q needs a base_url", name)
		}
		return nil
	}
}

// providerRule checks that a routed ProviderID names a configured role.
func (c *Config) providerRule(value any) error {
	id, ok := value.(gateway.ProviderID)
	if !ok {
		return fmt.Errorf("unexpected type %T", value)
	}
	if _, ok := c.Provider(id.Role); !ok {
		return fmt.Errorf("role %q has no provider", id.Role)
	}
	if id.Model == "" {
		return fmt.Errorf("role %q has no model", id.Role)
	}
	return nil
}

func primaryFirst(value any) error {
	chain, _ := value.([]gateway.ProviderID)
	if len(chain) > 0 && chain[0].Role != gateway.RolePrimary {
		return fmt.Errorf("chain must start with the %s provider", gateway.RolePrimary)
	}
	return nil
}

// Roster is the YAML file that overrides the env-derived providers.
//
//	providers:
//	  - role: alternative-2
//	    provider: deepseek
//	    model: deepseek-chat
//	    api_key_env: DEEPSEEK_API_KEY
//	routing:
//	  light_model: gpt-4o-mini
//	  chain: [primary, alternative-2]
type Roster struct {
	Providers []RosterProvider `yaml:"providers"`
	Routing   struct {
		LightModel    string         `yaml:"light_model"`
		StandardModel string         `yaml:"standard_model"`
		Chain         []gateway.Role `yaml:"chain"`
	} `yaml:"routing"`
	Transcription *transcribe.Config `yaml:"transcription"`
}

// RosterProvider is a provider entry of a Roster.
type RosterProvider struct {
	gateway.ProviderConfig `yaml:",inline"`
	APIKeyEnv              string `yaml:"api_key_env"`
}

// LoadRoster reads a Roster file.
func LoadRoster(path string) (*Roster, error) {
	var r Roster
	if err := configloader.NewLoader(".").Load(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ApplyRoster overlays r onto c. A roster provider replaces the entry of its
// role; its key comes from api_key_env, or is kept from the replaced entry.
func (c *Config) ApplyRoster(r *Roster) {
	for _, rp := range r.Providers {
		pc := rp.ProviderConfig
		existing, ok := c.Provider(pc.Role)
		switch {
		case rp.APIKeyEnv != "":
			pc.APIKey = os.Getenv(rp.APIKeyEnv)
		case ok:
			pc.APIKey = existing.APIKey
		}
		if pc.Timeout == 0 && ok {
			pc.Timeout = existing.Timeout
		}
		c.setProvider(pc)
	}

	modelOf := func(role gateway.Role) string {
		pc, _ := c.Provider(role)
		return pc.Model
	}

	if r.Routing.StandardModel != "" {
		c.Routing.Standard = gateway.ProviderID{Role: gateway.RolePrimary, Model: r.Routing.StandardModel}
	} else {
		c.Routing.Standard.Model = modelOf(c.Routing.Standard.Role)
	}
	if r.Routing.LightModel != "" {
		c.Routing.Light = gateway.ProviderID{Role: gateway.RolePrimary, Model: r.Routing.LightModel}
	}

	chainRoles := r.Routing.Chain
	if len(chainRoles) == 0 {
		for _, id := range c.Routing.Chain {
			chainRoles = append(chainRoles, id.Role)
		}
	}
	chain := make([]gateway.ProviderID, 0, len(chainRoles))
	for _, role := range chainRoles {
		model := modelOf(role)
		if role == gateway.RolePrimary {
			model = c.Routing.Standard.Model
		}
		chain = append(chain, gateway.ProviderID{Role: role, Model: model})
	}
	c.Routing.Chain = chain

	if r.Transcription != nil {
		tc := *r.Transcription
		if tc.Model == "" {
			tc.Model = c.Transcription.Model
		}
		if tc.Language == "" {
			tc.Language = c.Transcription.Language
		}
		if tc.Temperature == nil {
			tc.Temperature = c.Transcription.Temperature
		}
		c.Transcription.Config = tc
		c.Transcription.Provider.Model = tc.Model
	}
}

func (c *Config) setProvider(pc gateway.ProviderConfig) {
	for i := range c.Providers {
		if c.Providers[i].Role == pc.Role {
			c.Providers[i] = pc
			return
		}
	}
	c.Providers = append(c.Providers, pc)
}
