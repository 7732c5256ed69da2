// Package config loads ivrdesk configuration from a TOML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Platform     PlatformConfig     `toml:"platform"`
	AI           AIConfig           `toml:"ai"`
	Organization OrganizationConfig `toml:"organization"`
	Prompts      PromptsConfig      `toml:"prompts"`
	Notify       NotifyConfig       `toml:"notify"`
	Transcripts  TranscriptsConfig  `toml:"transcripts"`
}

type ServerConfig struct {
	// Address to listen on (e.g., ":3000")
	Listen string `toml:"listen"`

	// Speech locale passed to recording directives
	Locale string `toml:"locale"`

	// SessionTTL drops sessions idle for longer than this ("30m"). Empty disables sweeping.
	SessionTTL string `toml:"session_ttl"`

	Debug   bool `toml:"debug"`
	JSONLog bool `toml:"json_log"`
}

// PlatformConfig describes the IVR line; it is shown on the status page.
type PlatformConfig struct {
	Phone  string `toml:"phone"`
	APIKey string `toml:"api_key"`
}

type AIConfig struct {
	// Provider is one of groq, openai, gemini
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	MaxTokens   int      `toml:"max_tokens"`
	Temperature *float64 `toml:"temperature"`

	GroqAPIKey   string `toml:"groq_api_key"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	GeminiAPIKey string `toml:"gemini_api_key"`
}

type OrganizationConfig struct {
	Name              string `toml:"name"`
	VerificationPhone string `toml:"verification_phone"`
}

// PromptsConfig texts may contain {ORG_NAME} and {PHONE}.
type PromptsConfig struct {
	Greeting string `toml:"greeting"`
	System   string `toml:"system"`
}

type NotifyConfig struct {
	Email        string `toml:"email"`
	ResendAPIKey string `toml:"resend_api_key"`
	From         string `toml:"from"`
}

type TranscriptsConfig struct {
	// DBPath is the SQLite archive path. Empty keeps transcripts in memory.
	DBPath string `toml:"db_path"`
}

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Load reads path (when non-empty) over the defaults and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("could not decode config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Listen = ":" + strings.TrimPrefix(v, ":")
	}
	str("SESSION_TTL", &c.Server.SessionTTL)
	str("YEMOT_PHONE", &c.Platform.Phone)
	str("YEMOT_API_KEY", &c.Platform.APIKey)
	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_MODEL", &c.AI.Model)
	str("AI_BASE_URL", &c.AI.BaseURL)
	str("GROQ_API_KEY", &c.AI.GroqAPIKey)
	str("OPENAI_API_KEY", &c.AI.OpenAIAPIKey)
	str("GEMINI_API_KEY", &c.AI.GeminiAPIKey)
	str("ORG_NAME", &c.Organization.Name)
	str("VERIFICATION_PHONE", &c.Organization.VerificationPhone)
	str("GREETING_MESSAGE", &c.Prompts.Greeting)
	str("SYSTEM_PROMPT", &c.Prompts.System)
	str("NOTIFICATION_EMAIL", &c.Notify.Email)
	str("RESEND_API_KEY", &c.Notify.ResendAPIKey)
	str("TRANSCRIPTS_DB", &c.Transcripts.DBPath)

	if v, ok := lookup("DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.Debug = b
		}
	}
}

// Validate checks the provider and durations.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported AI provider %q (want groq, openai or gemini)", c.AI.Provider)
	}

	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch c.AI.Provider {
	case ProviderOpenAI:
		return c.AI.OpenAIAPIKey
	case ProviderGemini:
		return c.AI.GeminiAPIKey
	default:
		return c.AI.GroqAPIKey
	}
}

// SessionTTL parses Server.SessionTTL. Zero means sweeping is disabled.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Server.SessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %w", c.Server.SessionTTL, err)
	}
	return d, nil
}

// Expand replaces {ORG_NAME} and {PHONE} placeholders.
func (c *Config) Expand(text string) string {
	return strings.NewReplacer(
		"{ORG_NAME}", c.Organization.Name,
		"{PHONE}", c.Organization.VerificationPhone,
	).Replace(text)
}

// Greeting returns the expanded greeting.
func (c *Config) Greeting() string {
	return c.Expand(c.Prompts.Greeting)
}

// SystemPrompt returns the expanded system prompt.
func (c *Config) SystemPrompt() string {
	return c.Expand(c.Prompts.System)
}
