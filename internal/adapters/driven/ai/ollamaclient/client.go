// Package ollamaclient builds Ollama API clients and classifies their
// errors for the retry policy.
package ollamaclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/aksara-legal/aksara/internal/retry"
)

// DefaultBaseURL is the local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// New returns an Ollama client for baseURL.
func New(baseURL string) (*api.Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL %q: %w", baseURL, err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

// Classify marks network failures and 429/5xx responses as transient.
// Everything else, including malformed responses, is permanent.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if retry.IsTransientStatus(statusErr.StatusCode) {
			return &retry.TransientError{StatusCode: statusErr.StatusCode, Err: err}
		}
		return err
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Transient(err)
	}
	return err
}

// Unwrap strips the transient marker added by Classify.
func Unwrap(err error) error {
	var te *retry.TransientError
	if errors.As(err, &te) {
		return te.Err
	}
	return err
}
