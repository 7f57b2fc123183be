package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/supportops/zendesk-shift-report/internal/config"
)

type Client struct {
	webhookURL    string
	httpClient    *http.Client
	retryAttempts int
}

type Message struct {
	Text string `json:"text"`
}

func NewClient(cfg config.SlackConfig) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryAttempts: cfg.RetryAttempts,
	}
}

func (c *Client) SendMessage(ctx context.Context, text string) error {
	message := Message{Text: text}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return nil
		}

		lastErr = fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return fmt.Errorf("failed after %d attempts: %w", c.retryAttempts, lastErr)
}

// TestWebhook posts a short test message, used by -check-connections.
func TestWebhook(ctx context.Context, webhookURL string) error {
	client := NewClient(config.SlackConfig{
		WebhookURL:    webhookURL,
		Timeout:       10 * time.Second,
		RetryAttempts: 1,
	})

	return client.SendMessage(ctx, "🔧 Shift report test message - connection successful!")
}
