// Package provider defines the uniform capability surface over the
// generative backends used by the ensemble pipeline.
package provider

import "context"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation turn. The caller owns the history and
// supplies it in full on every request; insertion order is chronological.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is an ordered conversation transcript.
type History []Turn

// Provider represents an AI model provider service
type Provider interface {
	// GenerateResponse performs a one-shot generation
	GenerateResponse(ctx context.Context, request Request) (Response, error)

	// GenerateStreamingResponse streams the generation through handler.
	// The emitted fragments are finite and concatenate to the full text.
	GenerateStreamingResponse(ctx context.Context, request Request, handler StreamHandler) error

	// Information methods
	Name() string
	Model() string
}

// Request contains all parameters for a generation request
type Request struct {
	// Prompt is the text prompt or query
	Prompt string

	// History is the prior conversation, oldest turn first. Providers
	// translate it into their own turn schema; the translation is pure.
	History History

	// Temperature controls randomness (0.0-1.0)
	Temperature float64

	// MaxTokens limits the response length
	MaxTokens int
}

// Response contains the output from an AI provider
type Response struct {
	// Content is the text response
	Content string

	// Model identifies the model used
	Model string

	// Provider identifies the provider used
	Provider string

	// Usage contains token usage information
	Usage *UsageInfo
}

// UsageInfo contains token usage statistics
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamHandler processes chunks from streaming responses
type StreamHandler func(chunk ResponseChunk) error

// ResponseChunk represents a piece of a streaming response
type ResponseChunk struct {
	// Content is the text chunk
	Content string

	// IsFinal indicates whether this is the last chunk
	IsFinal bool
}
