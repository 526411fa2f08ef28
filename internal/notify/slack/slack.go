// Package slack posts High urgency classifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
	"github.com/linnemanlabs/urgency/internal/urgency"
)

const (
	maxReasoningLen = 2000
	httpTimeout     = 10 * time.Second
)

// Notifier sends classification results to a Slack webhook. It implements
// urgency.Notifier.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout:   httpTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Send posts r to the configured webhook.
func (n *Notifier) Send(ctx context.Context, r *urgency.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(r, time.Now()))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "slack notification sent", "urgency", r.Urgency, "subcategory", r.Subcategory)
	return nil
}

func buildMessage(r *urgency.Result, now time.Time) map[string]any {
	return map[string]any{
		"text": fmt.Sprintf("%s urgency email: %s", r.Urgency, r.Subcategory),
		"blocks": []map[string]any{
			headerBlock(r),
			fieldsBlock(r),
			reasoningBlock(r),
			contextBlock(now),
		},
	}
}

func headerBlock(r *urgency.Result) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s urgency: %s", urgencyEmoji(r.Urgency), r.Urgency, r.Subcategory),
		},
	}
}

func fieldsBlock(r *urgency.Result) map[string]any {
	field := func(label string, value any) map[string]any {
		return map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*%s:* %v", label, value)}
	}
	return map[string]any{
		"type": "section",
		"fields": []map[string]any{
			field("Urgency", r.Urgency),
			field("Subcategory", r.Subcategory),
			field("SLA", r.SLA),
			field("Confidence", fmt.Sprintf("%.0f%%", r.Confidence*100)),
			field("Category", taxonomy.ParentCategory(r.Subcategory)),
		},
	}
}

func reasoningBlock(r *urgency.Result) map[string]any {
	text := truncate(r.Reasoning, maxReasoningLen)
	if text == "" {
		text = "_No reasoning provided._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": "*Reasoning*\n" + text,
		},
	}
}

func contextBlock(now time.Time) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{{
			"type": "mrkdwn",
			"text": "urgency classifier • " + now.UTC().Format("2006-01-02 15:04 UTC"),
		}},
	}
}

func urgencyEmoji(u taxonomy.Urgency) string {
	switch u {
	case taxonomy.High:
		return "\U0001f534" // red circle
	case taxonomy.Medium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	i := limit - 3
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "..."
}
