package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/pkg/clients"
)

const eventHeader = "X-Escrowpay-Event"

// WebhookSink POSTs every event as JSON to a fixed URL.
type WebhookSink struct {
	url    string
	client clients.HTTPClientI
}

func NewWebhookSink(url string, client clients.HTTPClientI) *WebhookSink {
	return &WebhookSink{url: url, client: client}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Send(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := http.Header{}
	headers.Set(eventHeader, event.Type)
	statusCode, respHeaders, err := s.client.PostJSON(ctx, s.url, payload, headers)
	if err != nil {
		return err
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		var after time.Duration
		if seconds, err := strconv.Atoi(respHeaders.Get("Retry-After")); err == nil {
			after = time.Duration(seconds) * time.Second
		}
		return &RetryAfterError{After: after, Err: fmt.Errorf("webhook rate limited")}
	case statusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("webhook responded with status %d", statusCode)
	}
	return nil
}
