// Package completions talks to OpenAI-compatible chat completion APIs such as
// Groq and OpenAI.
package completions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/llm"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"

	// OpenAIDefaultModel replaces the Groq default model when talking to OpenAI.
	OpenAIDefaultModel = "gpt-4o-mini"
)

// Client generates replies through POST {BaseURL}/chat/completions.
type Client struct {
	name       string
	opts       llm.Options
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client. name labels the provider in logs and metrics.
func New(name string, opts llm.Options, logger *zap.Logger) *Client {
	opts = opts.WithDefaults()
	if opts.BaseURL == "" {
		opts.BaseURL = GroqBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{
		name:       name,
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
	}
}

// Name returns the provider label.
func (c *Client) Name() string {
	return c.name
}

// Generate sends the system prompt followed by history and returns the first
// choice's content.
func (c *Client) Generate(ctx context.Context, system string, history []llm.Message) (string, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, history...)

	reqBody, err := json.Marshal(llm.ChatRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.opts.BaseURL + "/chat/completions"
	c.logger.Debug("sending chat completion",
		zap.String("provider", c.name),
		zap.String("model", c.opts.Model),
		zap.Int("message_count", len(messages)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp llm.ChatResponse
	decodeErr := json.Unmarshal(body, &resp)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := string(body)
		if decodeErr == nil && resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		return "", &llm.UpstreamError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return "", fmt.Errorf("unmarshal response: %w", decodeErr)
	}

	return resp.Content(), nil
}
