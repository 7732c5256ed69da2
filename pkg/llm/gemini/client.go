// Package gemini generates replies with Google's Gemini models.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/papercomputeco/ivrdesk/pkg/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Client generates replies through the genai Models service.
type Client struct {
	client *genai.Client
	opts   llm.Options
	logger *zap.Logger
}

// New creates a Gemini client.
func New(ctx context.Context, opts llm.Options, logger *zap.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if opts.Model == "" || opts.Model == llm.DefaultModel {
		opts.Model = DefaultModel
	}
	opts = opts.WithDefaults()

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{client: client, opts: opts, logger: logger}, nil
}

// Name returns the provider label.
func (c *Client) Name() string {
	return "gemini"
}

// Generate sends history with system as the system instruction.
func (c *Client) Generate(ctx context.Context, system string, history []llm.Message) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   int32(c.opts.MaxTokens),
	}
	if c.opts.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*c.opts.Temperature))
	}

	c.logger.Debug("sending gemini request",
		zap.String("model", c.opts.Model),
		zap.Int("message_count", len(history)),
	)

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, toContents(history), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return resp.Text(), nil
}

// toContents maps chat roles onto Gemini roles. Gemini has no system role in
// the content list; system messages are dropped here because the prompt is
// passed as the system instruction.
func toContents(history []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case llm.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents
}
