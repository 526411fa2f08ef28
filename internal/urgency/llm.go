package urgency

import (
	"context"
	"strings"
)

// Provider is the interface for any completion backend.
type Provider interface {
	Send(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
}

// LLMRequest is a single-turn completion request.
type LLMRequest struct {
	MaxTokens   int
	Temperature float64
	System      string
	Messages    []Message
}

// LLMResponse is the provider's answer to an LLMRequest.
type LLMResponse struct {
	Content    []ContentBlock
	StopReason string
	Usage      Usage
	Model      string
}

// Message is one conversation message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Text joins every text block of the response.
func (r *LLMResponse) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}
