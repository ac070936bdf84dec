// Package telegram implements the delivery client for the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recorder-notifier/internal/common/errors"
	"recorder-notifier/internal/common/httpclient"
)

// Config holds the settings for the Bot API client.
type Config struct {
	// BotToken authenticates against the Bot API.
	BotToken string
	// ChatID is the destination chat for all notifications.
	ChatID string
	// APIBase is the Bot API base URL, overridable for tests.
	APIBase string
	// Timeout bounds each sendMessage call.
	Timeout time.Duration
}

// Client sends notification text to a single Telegram chat.
//
// The client performs no retries of its own: the upstream webhook sender
// already retries on non-2xx responses, and a second hidden retry layer would
// compound with the Bot API's rate limits.
type Client struct {
	config     Config
	httpClient *http.Client
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the subset of the Bot API response envelope we check.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewClient creates a Bot API client.
func NewClient(config Config) *Client {
	if config.APIBase == "" {
		config.APIBase = "https://api.telegram.org"
	}
	if config.Timeout == 0 {
		config.Timeout = 8 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: httpclient.New(httpclient.WithTimeout(config.Timeout)),
	}
}

// Send delivers text to the configured chat. Any failure (network error,
// non-2xx status, or an ok:false API envelope) is reported as a delivery
// error so the caller can surface a retryable status to the webhook sender.
func (c *Client) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                c.config.ChatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return errors.InternalError("failed to marshal sendMessage payload", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(c.config.APIBase, "/"), c.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.InternalError("failed to build sendMessage request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.DeliveryError("telegram request failed", err)
	}
	defer resp.Body.Close()

	// Cap the body read; the sendMessage envelope is small.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return errors.DeliveryError("failed to read telegram response", err)
	}

	if resp.StatusCode >= 300 {
		return errors.DeliveryError("telegram API returned an error status", nil).
			WithContext("status", resp.StatusCode).
			WithContext("body", string(respBody))
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return errors.DeliveryError("telegram response is not valid JSON", err)
	}
	if !envelope.OK {
		return errors.DeliveryError("telegram API reported failure", nil).
			WithContext("description", envelope.Description)
	}

	return nil
}
