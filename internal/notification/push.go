package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PushSender delivers a push message to a set of device tokens.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// ExpoPushSender sends push notifications through the Expo push API.
type ExpoPushSender struct {
	url    string
	client *http.Client
}

// NewExpoPushSender creates an ExpoPushSender targeting the given endpoint.
func NewExpoPushSender(url string) *ExpoPushSender {
	return &ExpoPushSender{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type expoPushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

// Send posts one Expo message per token in a single batch request.
func (s *ExpoPushSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	messages := make([]expoPushMessage, 0, len(tokens))
	for _, t := range tokens {
		messages = append(messages, expoPushMessage{
			To:    t,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
