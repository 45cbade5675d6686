// Package webhook posts parse reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ccollicutt/robolog/pkg/config"
	"github.com/ccollicutt/robolog/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = config.DefaultWebhookTimeout

// maxResponseBody caps how much of a response is kept.
const maxResponseBody = 1024 * 1024

// Client sends parse reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a report to a webhook endpoint as JSON.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fail(errors.Errorf("marshaling report: %w", err))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(errors.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "robolog-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(errors.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return fail(errors.Errorf("reading response: %w", err))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = errors.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}

// Notify sends the report to every webhook whose trigger matches. Delivery
// problems are logged at warn level and never returned. It reports how many
// webhooks accepted the report.
func (c *Client) Notify(ctx context.Context, report *output.Report, hooks []config.WebhookConfig) int {
	logger := zerolog.Ctx(ctx)
	delivered := 0

	for i := range hooks {
		hook := &hooks[i]
		if !hook.Trigger.ShouldFire(report.HasWarnings()) {
			logger.Debug().Str("webhook", hook.DisplayName()).Str("trigger", string(hook.Trigger)).Msg("webhook not triggered")
			continue
		}

		resp := c.Send(ctx, report, SendOptions{
			URL:     hook.URL,
			Token:   hook.Token,
			Timeout: hook.TimeoutDuration(),
		})
		if !resp.Success() {
			logger.Warn().
				Str("webhook", hook.DisplayName()).
				Int("status", resp.StatusCode).
				Dur("duration", resp.Duration).
				Err(resp.Error).
				Msg("webhook delivery failed")
			continue
		}

		delivered++
		logger.Info().
			Str("webhook", hook.DisplayName()).
			Int("status", resp.StatusCode).
			Dur("duration", resp.Duration).
			Msg("webhook delivered")
	}

	return delivered
}
