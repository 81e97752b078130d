package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mayvqt/StatusBot/internal/domain"
)

// WebhookSink maintains one persistent chat message through a Discord-style
// webhook: POST ?wait=true creates the message and returns its id, PATCH
// /messages/<id> edits it in place. A vanished message (404 on edit) is
// recreated rather than treated as an error.
type WebhookSink struct {
	URL    string
	Client *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	if url == "" {
		return nil
	}
	return &WebhookSink{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

type webhookMessage struct {
	ID string `json:"id"`
}

func (w *WebhookSink) Publish(ctx context.Context, handle domain.NotificationHandle, s Summary) (domain.NotificationHandle, error) {
	if w == nil || w.URL == "" {
		return handle, errors.New("webhook sink disabled")
	}

	if handle.MessageID != "" {
		err := w.edit(ctx, handle.MessageID, s)
		if err == nil {
			handle.UpdatedAt = time.Now().UTC()
			return handle, nil
		}
		if !errors.Is(err, errMessageGone) {
			return handle, err
		}
		// fall through and create a fresh message
	}

	id, err := w.create(ctx, s)
	if err != nil {
		return handle, err
	}
	return domain.NotificationHandle{MessageID: id, UpdatedAt: time.Now().UTC()}, nil
}

var errMessageGone = errors.New("message gone")

func (w *WebhookSink) create(ctx context.Context, s Summary) (string, error) {
	body, _ := json.Marshal(webhookPayload{Content: s.Text()})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL+"?wait=true", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("webhook create: status %d", resp.StatusCode)
	}

	var msg webhookMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", fmt.Errorf("webhook create: decode response: %w", err)
	}
	if msg.ID == "" {
		return "", errors.New("webhook create: response missing message id")
	}
	return msg.ID, nil
}

func (w *WebhookSink) edit(ctx context.Context, id string, s Summary) error {
	body, _ := json.Marshal(webhookPayload{Content: s.Text()})
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, w.URL+"/messages/"+id, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode/100 == 2:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errMessageGone
	default:
		return fmt.Errorf("webhook edit: status %d", resp.StatusCode)
	}
}
