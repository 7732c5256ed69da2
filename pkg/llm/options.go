package llm

import "time"

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama-3.3-70b-versatile"

	// DefaultMaxTokens keeps replies short enough for spoken playback.
	DefaultMaxTokens = 300
)

// Options configures a generation client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	MaxTokens   int
	Temperature *float64

	// Timeout bounds the HTTP round trip. Zero means no client-side limit.
	Timeout time.Duration
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}
