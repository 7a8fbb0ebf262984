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

// Email is one dynamic template message.
type Email struct {
	To         string
	ToName     string
	TemplateID string
	Data       map[string]any
}

// SendGrid sends dynamic template emails through the v3 mail API.
type SendGrid struct {
	client   *http.Client
	apiURL   string
	apiKey   string
	from     address
	template map[string]string
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NewSendGrid takes templates keyed by "<key>" or "<key>.<locale>", valued
// by SendGrid template ids.
func NewSendGrid(apiURL, apiKey, fromEmail, fromName string, templates map[string]string, timeout time.Duration) *SendGrid {
	return &SendGrid{
		client:   &http.Client{Timeout: timeout},
		apiURL:   strings.TrimRight(apiURL, "/"),
		apiKey:   apiKey,
		from:     address{Email: fromEmail, Name: fromName},
		template: templates,
	}
}

func (s *SendGrid) Enabled() bool {
	return s.apiKey != ""
}

// TemplateID prefers the localized template and falls back to the generic
// one.
func (s *SendGrid) TemplateID(key, locale string) (string, bool) {
	if id, ok := s.template[key+"."+locale]; ok && id != "" {
		return id, true
	}

	id, ok := s.template[key]

	return id, ok && id != ""
}

type mailSendBody struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	TemplateID       string            `json:"template_id"`
}

type personalization struct {
	To                  []address      `json:"to"`
	DynamicTemplateData map[string]any `json:"dynamic_template_data,omitempty"`
}

func (s *SendGrid) Send(ctx context.Context, email Email) error {
	const op = "internal.notify.SendGrid.Send"

	b, err := json.Marshal(mailSendBody{
		Personalizations: []personalization{{
			To:                  []address{{Email: email.To, Name: email.ToName}},
			DynamicTemplateData: email.Data,
		}},
		From:       s.from,
		TemplateID: email.TemplateID,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to marshal email: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v3/mail/send", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil && len(body) > 0 {
			return fmt.Errorf("%s: status=%d body=%s", op, resp.StatusCode, body)
		}

		return fmt.Errorf("%s: status=%d", op, resp.StatusCode)
	}

	return nil
}
