// Package llm provides the chat-completion types shared by the text generation
// backends ivrdesk talks to.
package llm

import "fmt"

// ErrorResponse is the JSON error body returned by ivrdesk's own JSON endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is the error envelope of OpenAI-compatible providers.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// UpstreamError is returned when a provider answers with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}
