// Package webhook is the outbound client for the automation system's
// webhooks. The dashboard never calls the automation endpoints directly from
// the browser; everything funnels through here with the target key mapped to
// a configured path.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/config"
)

// ErrUnknownTarget is returned for a target key with no configured path.
var ErrUnknownTarget = errors.New("unknown webhook target")

// UpstreamError is a non-2xx response from the automation system. The status
// and decoded body travel up so the API can relay them to the caller.
type UpstreamError struct {
	Status int
	Body   map[string]any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("webhook returned %d", e.Status)
}

// Client posts job requests to the automation webhooks.
type Client struct {
	baseURL string
	targets map[string]string
	http    *http.Client
}

// NewClient creates a webhook client from configuration. The HTTP client has
// no request timeout: a hung trigger stalls only the dialog that issued it,
// and cutting it off early could abandon a job the automation already began.
func NewClient(cfg config.WebhookConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		targets: cfg.Targets,
		http:    &http.Client{},
	}
}

// Trigger posts params as JSON to the target's webhook and returns the
// decoded response body. Non-JSON responses come back wrapped as {"raw": text}
// so callers always get a JSON-serializable result.
func (c *Client) Trigger(ctx context.Context, target string, params any) (map[string]any, error) {
	path, ok := c.targets[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	url := c.baseURL + path

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook params: %w", err)
	}

	slog.Info("Triggering automation webhook", "target", target, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(text, &body); err != nil {
		body = map[string]any{"raw": string(text)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("Automation webhook rejected request",
			"target", target, "status", resp.StatusCode)
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}

	return body, nil
}
