package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Patrick7854/kgl-groceries-system/internal/config"
)

// Severity classifies an operational notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Notice is the JSON body posted to the configured alert webhook. Low-stock
// and overdue-credit sweeps are the main producers.
type Notice struct {
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Branch   string    `json:"branch,omitempty"`
	SentAt   time.Time `json:"sentAt"`
}

// Client delivers operational notices to whoever watches the webhook.
type Client interface {
	SendNotice(ctx context.Context, notice Notice) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewClient builds an alert client from configuration.
func NewClient(cfg config.AlertsConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		webhookURL: cfg.WebhookURL,
	}
}

// SendNotice posts the notice to the webhook, stamping SentAt when unset.
func (c *WebhookClient) SendNotice(ctx context.Context, notice Notice) error {
	if notice.SentAt.IsZero() {
		notice.SentAt = time.Now().UTC()
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(notice).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("send alert notice: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode())
	}
	return nil
}
