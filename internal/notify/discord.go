package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DiscordSender delivers notifications via a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *resty.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL with a
// 10-second request timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	c := resty.New()
	c.SetTimeout(10 * time.Second)
	return &DiscordSender{webhookURL: webhookURL, client: c}
}

// Send posts the message to the webhook, title in bold.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"content": fmt.Sprintf("**%s**\n%s", title, message),
		}).
		Post(d.webhookURL)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	// Discord answers 204 No Content on success.
	if resp.IsError() {
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode(), truncate(resp.String(), 1024))
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
