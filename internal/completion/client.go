// Package completion submits prompts to an OpenAI compatible completion endpoint.
package completion

import (
	"context"
	"time"
)

// Mode selects the remote endpoint.
type Mode string

const (
	// ModeChat posts to {base}/chat/completions with the prompt as one user message.
	ModeChat Mode = "chat"
	// ModeCompletion posts to {base}/completions with the prompt as a plain string.
	ModeCompletion Mode = "completion"
)

const (
	DefaultMode  = ModeChat
	DefaultModel = "gpt-4o"
	// DefaultCompletionModel is used in ModeCompletion, whose endpoint rejects chat models.
	DefaultCompletionModel = "gpt-3.5-turbo-instruct"
	DefaultMaxTokens       = 4096
	DefaultTemperature     = float32(0.2)
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultTimeout         = 5 * time.Minute
)

// Request is one prompt submission. Zero fields fall back to the client configuration.
type Request struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float32
	// User tags the request for abuse monitoring on the provider side.
	User string
}

// Response is the first choice returned by the service.
type Response struct {
	Text             string
	Model            string
	FinishReason     string
	Truncated        bool
	PromptTokens     int
	CompletionTokens int
}

// DefaultModelFor returns the model used when none is configured for mode.
func DefaultModelFor(mode Mode) string {
	if mode == ModeCompletion {
		return DefaultCompletionModel
	}
	return DefaultModel
}

// Client submits a prompt and returns the model's answer.
type Client interface {
	Complete(ctx context.Context, request Request) (Response, error)
}
