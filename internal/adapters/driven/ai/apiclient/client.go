// Package apiclient is the JSON-over-HTTP transport shared by the cloud AI
// adapters. It applies the per-attempt timeout and retry policy and turns
// non-2xx responses into StatusError values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aksara-legal/aksara/internal/retry"
)

// DefaultTimeout bounds one attempt when Config.Timeout is zero.
const DefaultTimeout = 20 * time.Second

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 2048

// Config holds configuration for a Client.
type Config struct {
	// Provider names the remote service in error messages ("gemini", "openai").
	Provider string

	// Timeout bounds each attempt (default: 20s).
	Timeout time.Duration

	// Retry is the policy for transient failures. Zero value uses retry.DefaultPolicy.
	Retry retry.Policy

	// HTTPClient overrides the underlying client. Used by tests.
	HTTPClient *http.Client
}

// Client posts JSON requests and decodes JSON responses.
type Client struct {
	http     *http.Client
	policy   retry.Policy
	provider string
}

// New creates a Client.
func New(cfg Config) *Client {
	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	policy.AttemptTimeout = cfg.Timeout

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{http: client, policy: policy, provider: cfg.Provider}
}

// Policy returns the effective retry policy.
func (c *Client) Policy() retry.Policy {
	return c.policy
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// PostJSON sends in as a JSON body to url and decodes the response into out.
// Transport errors and 429/5xx responses are retried per the policy.
// Decode failures are never retried.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	body, err := retry.Do(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, http.MethodPost, url, headers, payload)
	})
	if err != nil {
		return unwrapTransient(err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// Get performs a single GET without retries. Used by Ping.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()
	_, err := c.send(ctx, http.MethodGet, url, headers, nil)
	return unwrapTransient(err)
}

func (c *Client) send(ctx context.Context, method, url string, headers map[string]string, payload []byte) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%s: send request: %w", c.provider, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%s: read response: %w", c.provider, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		statusErr := &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
		if retry.IsTransientStatus(resp.StatusCode) {
			return nil, &retry.TransientError{StatusCode: resp.StatusCode, Err: statusErr}
		}
		return nil, statusErr
	}
	return body, nil
}

// unwrapTransient strips the retry marker so callers see the provider error.
func unwrapTransient(err error) error {
	var te *retry.TransientError
	if errors.As(err, &te) {
		return te.Err
	}
	return err
}
