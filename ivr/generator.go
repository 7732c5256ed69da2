package ivr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/callflow"
	"github.com/papercomputeco/ivrdesk/pkg/config"
	"github.com/papercomputeco/ivrdesk/pkg/llm"
	"github.com/papercomputeco/ivrdesk/pkg/llm/completions"
	"github.com/papercomputeco/ivrdesk/pkg/llm/gemini"
	"github.com/papercomputeco/ivrdesk/pkg/metrics"
)

// NewGenerator builds the generation backend for the configured provider.
func NewGenerator(ctx context.Context, c *config.Config, logger *zap.Logger) (callflow.Generator, error) {
	opts := llm.Options{
		APIKey:      c.APIKey(),
		BaseURL:     c.AI.BaseURL,
		Model:       c.AI.Model,
		MaxTokens:   c.AI.MaxTokens,
		Temperature: c.AI.Temperature,
	}
	if opts.APIKey == "" {
		logger.Warn("no API key configured for AI provider", zap.String("provider", c.AI.Provider))
	}

	switch c.AI.Provider {
	case config.ProviderGroq:
		return instrument(c.AI.Provider, completions.New(c.AI.Provider, opts, logger)), nil

	case config.ProviderOpenAI:
		if opts.BaseURL == "" {
			opts.BaseURL = completions.OpenAIBaseURL
		}
		if opts.Model == "" || opts.Model == llm.DefaultModel {
			opts.Model = completions.OpenAIDefaultModel
		}
		return instrument(c.AI.Provider, completions.New(c.AI.Provider, opts, logger)), nil

	case config.ProviderGemini:
		g, err := gemini.New(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return instrument(c.AI.Provider, g), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider %q", c.AI.Provider)
	}
}

// instrumented records latency and outcome of every generation call.
type instrumented struct {
	provider string
	inner    callflow.Generator
}

func instrument(provider string, g callflow.Generator) callflow.Generator {
	return &instrumented{provider: provider, inner: g}
}

func (i *instrumented) Generate(ctx context.Context, system string, history []llm.Message) (string, error) {
	start := time.Now()
	reply, err := i.inner.Generate(ctx, system, history)
	metrics.RecordGeneration(i.provider, err, time.Since(start))
	return reply, err
}
