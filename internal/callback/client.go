package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
)

// SearchCallbackData is the webhook payload posted when an async search
// task finishes. Failure statuses carry a null data field.
type SearchCallbackData struct {
	ProcessID      string      `json:"processId"`
	Status         string      `json:"status"`
	Data           interface{} `json:"data"`
	Error          string      `json:"error,omitempty"`
	Timestamp      string      `json:"timestamp"`
	Operation      string      `json:"operation"`
	ProcessingTime string      `json:"processing_time"`
}

// Client posts completion webhooks for async search tasks
type Client struct {
	httpClient *http.Client
	maxRetries int
	logger     types.Logger
}

// NewClient creates a new webhook callback client
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Callback.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.Callback.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		logger:     logging.GetGlobalLogger().WithField("component", "callback"),
	}
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SendSearchCallback posts the payload to the caller-supplied URL,
// retrying transient failures with exponential backoff. A 4xx answer is
// not retried.
func (c *Client) SendSearchCallback(ctx context.Context, callbackURL string, data *SearchCallbackData) error {
	if callbackURL == "" {
		return fmt.Errorf("callback URL is required")
	}

	if isFailureStatus(data.Status) {
		data.Data = nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal callback payload: %w", err)
	}

	c.logger.Info("Sending search callback", map[string]interface{}{
		"process_id": data.ProcessID,
		"status":     data.Status,
		"url":        callbackURL,
	})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(func() error {
		return c.post(ctx, callbackURL, payload)
	}, policy); err != nil {
		c.logger.Error("Failed to send search callback", map[string]interface{}{
			"process_id": data.ProcessID,
			"url":        callbackURL,
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to send callback: %w", err)
	}

	c.logger.Info("Search callback sent successfully", map[string]interface{}{
		"process_id": data.ProcessID,
		"url":        callbackURL,
	})
	return nil
}

// post performs one webhook delivery attempt
func (c *Client) post(ctx context.Context, callbackURL string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build callback request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return backoff.Permanent(fmt.Errorf("callback rejected with status %d", resp.StatusCode))
	default:
		return fmt.Errorf("callback failed with status %d", resp.StatusCode)
	}
}

// isFailureStatus reports whether the task status is a failure
func isFailureStatus(status string) bool {
	return status == "FAILURE"
}
