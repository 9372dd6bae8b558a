package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookClient 把推送消息 POST 给统一的推送网关，
// 网关负责具体渠道（APNs/FCM/小程序订阅消息）的投递。
type WebhookClient struct {
	httpClient *http.Client
	url        string
}

func NewWebhookClient(url string, timeoutSec int) (*WebhookClient, error) {
	if url == "" {
		return nil, fmt.Errorf("push webhook url is empty")
	}
	if timeoutSec <= 0 {
		timeoutSec = 5
	}

	return &WebhookClient{
		url: url,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}, nil
}

func (c *WebhookClient) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver push message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	return nil
}
