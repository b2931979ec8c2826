package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client delivers messages to a Slack incoming webhook.
type Client struct {
	webhookURL string
	client     *http.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// NewClient constructs a webhook client.
func NewClient(webhookURL string, opts ...ClientOption) (*Client, error) {
	if webhookURL == "" {
		return nil, errors.New("slack: empty webhook url")
	}
	client := &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type webhookPayload struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Deliver posts a message with fallback text and optional blocks. A non-2xx
// response is a delivery failure; the caller decides whether to report it,
// delivery is never retried here.
func (c *Client) Deliver(ctx context.Context, fallback string, blocks []Block) error {
	if c == nil || c.webhookURL == "" {
		return errors.New("slack: client not configured")
	}
	return post(ctx, c.client, c.webhookURL, webhookPayload{Text: fallback, Blocks: blocks})
}

// DeliverText posts a plain text message.
func (c *Client) DeliverText(ctx context.Context, text string) error {
	return c.Deliver(ctx, text, nil)
}

// DeliverError posts a compact error notification.
func (c *Client) DeliverError(ctx context.Context, source string, cause error) error {
	blocks := []Block{
		HeaderBlock("Analytics Report Error"),
		SectionBlock(fmt.Sprintf("*Source:* `%s`\n*Error:* %v", source, cause)),
		ContextBlock(time.Now().UTC().Format("2006-01-02 15:04:05 UTC")),
	}
	return c.Deliver(ctx, fmt.Sprintf("Analytics error in %s", source), blocks)
}

type commandResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// PostResponse sends an ephemeral follow-up to a slash-command response URL.
func PostResponse(ctx context.Context, responseURL, text string) error {
	if responseURL == "" {
		return errors.New("slack: empty response url")
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return post(ctx, client, responseURL, commandResponse{ResponseType: "ephemeral", Text: text})
}

func post(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack: status %d", resp.StatusCode)
	}
	return nil
}
