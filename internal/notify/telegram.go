package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const telegramAPI = "https://api.telegram.org"

// TelegramSender delivers notifications via the Telegram Bot API.
type TelegramSender struct {
	token  string
	chatID string
	client *resty.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// ID with a 10-second request timeout.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return newTelegramSender(telegramAPI, token, chatID)
}

func newTelegramSender(baseURL, token, chatID string) *TelegramSender {
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetTimeout(10 * time.Second)
	return &TelegramSender{token: token, chatID: chatID, client: c}
}

// Send posts to the configured chat via sendMessage, title in bold.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.chatID,
			"text":       fmt.Sprintf("*%s*\n%s", title, message),
			"parse_mode": "Markdown",
		}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode(), truncate(resp.String(), 1024))
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
