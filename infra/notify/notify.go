// Package notify delivers outbound texts: to an SMS gateway webhook in
// deployed environments and to the log during development.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/amirasaad/voicepay/infra/httpx"
	"github.com/amirasaad/voicepay/pkg/notify"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

// WebhookSender POSTs each message as JSON to a gateway URL.
type WebhookSender struct {
	url     string
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewWebhookSender creates a WebhookSender.
func NewWebhookSender(url string, timeout time.Duration, retryMax int, logger *slog.Logger) *WebhookSender {
	logger = logger.With("sender", "webhook")
	return &WebhookSender{
		url:     url,
		client:  httpx.NewClient(timeout, retryMax, logger),
		breaker: httpx.NewBreaker("notify-webhook", logger),
		logger:  logger,
	}
}

var _ notify.Sender = (*WebhookSender)(nil)

func (s *WebhookSender) Send(ctx context.Context, msg notify.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpx.Do(s.breaker, s.client, req)
	if err != nil {
		s.logger.Error("notification delivery failed", "kind", msg.Kind, "error", err)
		return err
	}
	_ = resp.Body.Close()
	s.logger.Debug("notification delivered", "kind", msg.Kind)
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("sender", "log")}
}

var _ notify.Sender = (*LogSender)(nil)

func (s *LogSender) Send(_ context.Context, msg notify.Message) error {
	s.logger.Info("notification", "phone", msg.Phone, "kind", msg.Kind, "body", msg.Body)
	return nil
}
