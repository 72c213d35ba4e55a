package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/danniel-isiah-libor/talos-io/internal/checkout"
	"github.com/danniel-isiah-libor/talos-io/internal/redact"
)

// successColor is the green accent on success embeds.
const successColor = 0x2ecc71

// webhookPayload is the Discord webhook message shape.
type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// WebhookNotifier posts success embeds to the globally configured webhook
// and, for auto-checkout tasks, to the task's own webhook with the gateway
// session cookie included so the downstream bot can finish payment.
type WebhookNotifier struct {
	globalURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ checkout.Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier creates a notifier. globalURL may be empty; per-task
// webhooks still work.
func NewWebhookNotifier(globalURL string, log *slog.Logger) *WebhookNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookNotifier{
		globalURL:  globalURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.With("component", "webhook_notifier"),
	}
}

// NotifySuccess implements checkout.Notifier. Posts run in the background;
// the pipeline never waits on notification delivery.
func (n *WebhookNotifier) NotifySuccess(ctx context.Context, s checkout.SuccessNotification) {
	fields := []embedField{
		{Name: "Product", Value: orDash(s.ProductName), Inline: true},
		{Name: "Size", Value: orDash(s.Product.SizeLabel), Inline: true},
		{Name: "Profile", Value: orDash(s.ProfileName), Inline: true},
		{Name: "Checkout Time", Value: s.Seconds + "s", Inline: true},
		{Name: "SKU", Value: orDash(s.Task.Sku), Inline: true},
	}

	if n.globalURL != "" {
		n.post(n.globalURL, fields)
	}

	// Auto-checkout tasks forward the session cookie to their own webhook so
	// an external payer can pick the order up.
	if s.Task.AutoCheckout && s.Task.Webhook != "" && s.Task.Webhook != n.globalURL {
		acoFields := append(append([]embedField(nil), fields...), embedField{
			Name: "Cookie", Value: s.Cookie.Value,
		})
		n.post(s.Task.Webhook, acoFields)
	}
}

func (n *WebhookNotifier) post(url string, fields []embedField) {
	payload := webhookPayload{
		Username: "talos-io",
		Embeds: []embed{{
			Title:  "checked out",
			Color:  successColor,
			Fields: fields,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("failed to encode webhook payload", "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			n.logger.Warn("failed to build webhook request", "url", redact.String(url), "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.logger.Warn("webhook delivery failed", "url", redact.String(url), "error", redact.Error(err))
			return
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 300 {
			n.logger.Warn("webhook rejected", "url", redact.String(url), "status", resp.StatusCode)
		}
	}()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
