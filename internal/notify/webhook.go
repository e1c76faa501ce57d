// Package notify posts estimate summaries to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"costdelta/internal/logging"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetry      = 3
	defaultRetryDelay = time.Second
	maxErrorBody      = 512
)

// Webhook posts {"text": ...} messages, the payload accepted by Slack,
// Mattermost and Teams incoming webhooks.
type Webhook struct {
	URL     string
	Client  *http.Client
	Headers map[string]string
	// Retry is the number of retries after the first attempt
	Retry      int
	RetryDelay time.Duration
}

// New creates a webhook with default timeout and retries
func New(url string) *Webhook {
	return &Webhook{
		URL:        url,
		Client:     &http.Client{Timeout: defaultTimeout},
		Retry:      defaultRetry,
		RetryDelay: defaultRetryDelay,
	}
}

type message struct {
	Text string `json:"text"`
}

// StatusError is a non-2xx webhook response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when repeated
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Send posts text, retrying server errors and transport failures
func (w *Webhook) Send(ctx context.Context, text string) error {
	if w.URL == "" {
		return fmt.Errorf("webhook URL not specified")
	}

	body, err := json.Marshal(message{Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.Retry; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying webhook", map[string]interface{}{
				"attempt": attempt + 1,
				"error":   lastErr.Error(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.RetryDelay):
			}
		}

		lastErr = w.sendOnce(ctx, body)
		if lastErr == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && !statusErr.Temporary() {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", w.Retry+1, lastErr)
}

func (w *Webhook) sendOnce(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
}
