// Package claude implements urgency.Provider on the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/urgency/internal/urgency"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("claude: API key is not set")

// Client implements urgency.Provider for the Claude API.
type Client struct {
	sdk   anthropic.Client
	model string
}

// New creates a Claude client for model. SDK retries are disabled: a failed
// call degrades to a fallback classification instead of being retried.
// Extra options are applied last (tests use option.WithBaseURL).
func New(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		return nil, errors.New("claude: model is not set")
	}

	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Client{
		sdk:   anthropic.NewClient(append(base, opts...)...),
		model: model,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Send issues one Messages.New call. The deadline comes from ctx.
func (c *Client) Send(ctx context.Context, req *urgency.LLMRequest) (*urgency.LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    toSDKMessages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	return fromSDKResponse(msg), nil
}

func toSDKMessages(msgs []urgency.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			if b.Type == "text" {
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			}
		}
		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func fromSDKResponse(msg *anthropic.Message) *urgency.LLMResponse {
	resp := &urgency.LLMResponse{
		StopReason: string(msg.StopReason),
		Model:      string(msg.Model),
		Usage: urgency.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, b := range msg.Content {
		resp.Content = append(resp.Content, urgency.ContentBlock{Type: b.Type, Text: b.Text})
	}
	return resp
}

// mapError tags err with a short kind. Context errors pass through
// untouched so urgency.ErrorKind sees them directly.
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &urgency.ProviderError{Kind: statusKind(apiErr.StatusCode), Err: err}
	}
	return &urgency.ProviderError{Kind: "transport", Err: err}
}

func statusKind(code int) string {
	switch code {
	case http.StatusTooManyRequests:
		return "rate_limited"
	case 529:
		return "overloaded"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "auth"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		return fmt.Sprintf("status_%d", code)
	}
}
