package llm

// ChatRequest represents an OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`                 // Model name (e.g., "llama-3.3-70b-versatile")
	Messages    []Message `json:"messages"`              // System prompt followed by the conversation
	MaxTokens   int       `json:"max_tokens,omitempty"`  // Reply length cap
	Temperature *float64  `json:"temperature,omitempty"` // Sampling temperature
	Stream      bool      `json:"stream"`                // Always false; replies are spoken in one piece
}
