package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/city-events/internal/event"
)

const webhookTimeout = 10 * time.Second

// ErrMissingWebhookURL is returned by NewWebhookNotifier for an empty URL.
var ErrMissingWebhookURL = errors.New("webhook URL is required")

// webhookPayload carries the message under the keys Slack ("text") and
// Discord ("content") expect, plus the record itself.
type webhookPayload struct {
	Text    string        `json:"text"`
	Content string        `json:"content"`
	Record  *event.Record `json:"record"`
}

// WebhookNotifier posts records to an incoming-webhook URL
type WebhookNotifier struct {
	url     string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewWebhookNotifier creates a notifier that waits at least delay between posts.
func NewWebhookNotifier(url string, delay time.Duration) (*WebhookNotifier, error) {
	if url == "" {
		return nil, ErrMissingWebhookURL
	}

	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	return &WebhookNotifier{
		url: url,
		client: resty.New().
			SetTimeout(webhookTimeout).
			SetHeader("Content-Type", "application/json"),
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Notify posts one message per record and stops at the first failure
func (n *WebhookNotifier) Notify(ctx context.Context, records []*event.Record) error {
	for _, rec := range records {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting to post: %w", err)
		}

		msg := FormatMessage(rec)
		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(webhookPayload{Text: msg, Content: msg, Record: rec}).
			Post(n.url)
		if err != nil {
			return fmt.Errorf("posting record %s: %w", rec.ID, err)
		}
		if resp.IsError() {
			return fmt.Errorf("webhook error for record %s (status %d): %s", rec.ID, resp.StatusCode(), resp.String())
		}
	}

	return nil
}
