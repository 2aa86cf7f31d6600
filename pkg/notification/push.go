package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"WasteGuard-Backend/pkg/logger"
)

const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

type (
	// PushSender delivers an alert to a set of device push tokens.
	PushSender interface {
		Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error
	}

	expoPushSender struct {
		url    string
		client *http.Client
	}

	expoPushMessage struct {
		To    string            `json:"to"`
		Title string            `json:"title"`
		Body  string            `json:"body"`
		Sound string            `json:"sound"`
		Data  map[string]string `json:"data,omitempty"`
	}
)

func NewExpoPushSender(url string) PushSender {
	if url == "" {
		url = DefaultExpoPushURL
	}
	return &expoPushSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *expoPushSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	messages := make([]expoPushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, expoPushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Sound: "default",
			Data:  data,
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("expo push: unexpected status %d", resp.StatusCode)
	}
	logger.Logger.Debug().Int("tokens", len(tokens)).Msg("push notifications sent")
	return nil
}

// NopPushSender drops every message. Used when push delivery is not
// configured and in tests.
type NopPushSender struct{}

func (NopPushSender) Send(context.Context, []string, string, string, map[string]string) error {
	return nil
}
