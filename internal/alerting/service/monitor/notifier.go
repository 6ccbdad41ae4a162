package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier delivers an emitted alert to one sink.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a *Alert) error
}

// WebhookNotifier POSTs {text, severity, timestamp} to the configured URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, a *Alert) error {
	if n.url == "" {
		return nil
	}
	body, err := json.Marshal(map[string]any{
		"text":      fmt.Sprintf("[%s] %s: %s", a.Severity, a.Title, a.Message),
		"severity":  a.Severity,
		"timestamp": a.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

// EmailNotifier handles critical alerts addressed to the admin mailbox.
// There is no SMTP transport here; the outgoing message is logged and the
// implementation is swappable by the host.
type EmailNotifier struct {
	to string
}

func NewEmailNotifier(to string) *EmailNotifier { return &EmailNotifier{to: to} }

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(_ context.Context, a *Alert) error {
	if n.to == "" || a.Severity != "critical" {
		return nil
	}
	log.Info().
		Str("to", n.to).
		Str("subject", "[CRITICAL] "+a.Title).
		Str("body", a.Message).
		Msg("admin alert email queued")
	return nil
}

// ConsoleNotifier echoes alerts to the log in development mode.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Name() string { return "console" }

func (ConsoleNotifier) Notify(_ context.Context, a *Alert) error {
	log.Info().
		Str("alert_id", a.ID).
		Str("severity", a.Severity).
		Str("title", a.Title).
		Str("message", a.Message).
		Msg("alert")
	return nil
}
