package ivr

import (
	"time"

	"github.com/papercomputeco/ivrdesk/pkg/callflow"
	"github.com/papercomputeco/ivrdesk/pkg/config"
)

// Config is the IVR server configuration.
type Config struct {
	// Address to listen on (e.g., ":3000")
	ListenAddr string

	// Speech locale for recording directives (e.g., "he-IL")
	Locale string

	// SessionTTL drops sessions idle for longer than this. Zero disables sweeping.
	SessionTTL time.Duration

	// DBPath is the SQLite transcript archive. Empty keeps transcripts in memory.
	DBPath string

	// Shown on /health and the status page
	Organization  string
	PlatformPhone string
	Provider      string

	Prompts callflow.Prompts

	// Email notifications are sent only when both are set.
	NotifyEmail  string
	ResendAPIKey string
	NotifyFrom   string
}

// ConfigFrom maps the file/environment configuration onto server settings.
func ConfigFrom(c *config.Config) (Config, error) {
	ttl, err := c.SessionTTL()
	if err != nil {
		return Config{}, err
	}

	return Config{
		ListenAddr:    c.Server.Listen,
		Locale:        c.Server.Locale,
		SessionTTL:    ttl,
		DBPath:        c.Transcripts.DBPath,
		Organization:  c.Organization.Name,
		PlatformPhone: c.Platform.Phone,
		Provider:      c.AI.Provider,
		Prompts:       PromptsFrom(c),
		NotifyEmail:   c.Notify.Email,
		ResendAPIKey:  c.Notify.ResendAPIKey,
		NotifyFrom:    c.Notify.From,
	}, nil
}

// PromptsFrom returns the placeholder-expanded prompts of c.
func PromptsFrom(c *config.Config) callflow.Prompts {
	return callflow.Prompts{
		Greeting: c.Greeting(),
		System:   c.SystemPrompt(),
	}
}
