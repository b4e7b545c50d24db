// internal/chat/client.go
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rideviz/internal/common/logger"
	"rideviz/internal/common/metrics"
)

var (
	ErrBackendUnreachable = errors.New("CHAT_BACKEND_UNREACHABLE")
	ErrBackendRejected    = errors.New("CHAT_BACKEND_REJECTED")
)

// Client talks to the external chat backend that actually answers ride-data
// questions. One request, one response, no retry.
type Client struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: log.With(map[string]interface{}{
			"component": "chat",
		}),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Ask forwards the user's question and returns the bot's natural-language
// answer. Non-2xx responses and success=false payloads both count as
// backend failure; the HTTP layer turns either into the fixed error bubble.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	body, _ := json.Marshal(chatRequest{Message: message})

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat", bytes.NewBuffer(body))
	if err != nil {
		metrics.ChatRequests.WithLabelValues("unreachable").Inc()
		return "", fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("unreachable").Inc()
		return "", fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ChatRequests.WithLabelValues("unreachable").Inc()
		return "", fmt.Errorf("%w: status %d", ErrBackendUnreachable, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		metrics.ChatRequests.WithLabelValues("unreachable").Inc()
		return "", fmt.Errorf("%w: decode error: %v", ErrBackendUnreachable, err)
	}

	if !chatResp.Success {
		c.logger.Warn("chat backend rejected message", map[string]interface{}{
			"error": chatResp.Error,
		})
		metrics.ChatRequests.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: %s", ErrBackendRejected, chatResp.Error)
	}

	metrics.ChatRequests.WithLabelValues("ok").Inc()
	return chatResp.Message, nil
}
