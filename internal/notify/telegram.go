package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Telegram sends plain text messages through the Bot API.
type Telegram struct {
	client *http.Client
	apiURL string
	token  string
}

func NewTelegram(apiURL, token string, timeout time.Duration) *Telegram {
	return &Telegram{
		client: &http.Client{Timeout: timeout},
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
	}
}

// Enabled is false when no bot token is configured.
func (t *Telegram) Enabled() bool {
	return t.token != ""
}

type sendMessageBody struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	const op = "internal.notify.Telegram.Send"

	b, err := json.Marshal(sendMessageBody{ChatID: chatID, Text: text, DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("%s: failed to marshal message: %w", op, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// the url carries the bot token
		return fmt.Errorf("%s: request failed", op)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed botResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK || !parsed.OK {
		if parsed.Description != "" {
			return fmt.Errorf("%s: status=%d: %s", op, resp.StatusCode, parsed.Description)
		}

		return fmt.Errorf("%s: status=%d", op, resp.StatusCode)
	}

	return nil
}
