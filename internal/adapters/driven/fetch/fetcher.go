// Package fetch retrieves raw regulatory sources over HTTP.
//
// Transport failures and 429/5xx responses are retried with capped
// exponential backoff; other non-2xx statuses fail immediately. Every
// failure surfaces as *domain.FetchError.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/logger"
	"github.com/aksara-legal/aksara/internal/retry"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout bounds each fetch attempt.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodyBytes caps the size of a fetched source.
	DefaultMaxBodyBytes = 50 << 20

	// DefaultUserAgent identifies the fetcher to source servers.
	DefaultUserAgent = "aksara-ingest/1.0"
)

// Config holds fetcher configuration.
type Config struct {
	// Timeout bounds each attempt.
	Timeout time.Duration

	// Retry controls attempts and backoff. Zero fields use retry defaults.
	Retry retry.Policy

	// RequestsPerSecond and Burst set the per-host politeness limit.
	RequestsPerSecond float64
	Burst             int

	// MaxBodyBytes caps the body size.
	MaxBodyBytes int64

	// UserAgent is sent with every request.
	UserAgent string

	// Client overrides the HTTP client. Useful for testing.
	Client *http.Client
}

// Fetcher downloads sources over HTTP.
type Fetcher struct {
	client    *http.Client
	policy    retry.Policy
	limiter   *RateLimiter
	maxBody   int64
	userAgent string
}

// New creates a new HTTP fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	policy := cfg.Retry
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = retry.DefaultMaxAttempts
	}
	policy.AttemptTimeout = cfg.Timeout

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	return &Fetcher{
		client:    client,
		policy:    policy,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
	}
}

// Fetch downloads rawURL and tags the result with kind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, kind domain.ContentKind) (*domain.RawSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}

	logger.Debug("fetch: GET %s", rawURL)
	raw, err := retry.Do(ctx, f.policy, func(ctx context.Context) (*domain.RawSource, error) {
		return f.fetchOnce(ctx, u)
	})
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}

	raw.Kind = kind
	logger.Debug("fetch: %s returned %d bytes (%s)", rawURL, len(raw.Content), raw.ContentType)
	return raw, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, u *url.URL) (*domain.RawSource, error) {
	rawURL := u.String()

	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/markdown;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		// Network errors are transient unless the caller gave up.
		fe := &domain.FetchError{URL: rawURL, Err: err}
		return nil, &retry.TransientError{Err: fe}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		fe := &domain.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			f.limiter.Backoff(u.Host, retryAfter(resp))
		}
		if retry.IsTransientStatus(resp.StatusCode) {
			return nil, &retry.TransientError{StatusCode: resp.StatusCode, Err: fe}
		}
		return nil, fe
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &retry.TransientError{Err: &domain.FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("body exceeds %d bytes", f.maxBody)}
	}

	return &domain.RawSource{
		URL:         rawURL,
		ContentType: resp.Header.Get("Content-Type"),
		Content:     body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}
