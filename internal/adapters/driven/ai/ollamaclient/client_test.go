package ollamaclient

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/retry"
)

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = New("http://[::1")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "nil", err: nil},
		{name: "server error", err: api.StatusError{StatusCode: 503}, transient: true},
		{name: "rate limited", err: api.StatusError{StatusCode: 429}, transient: true},
		{name: "not found", err: api.StatusError{StatusCode: 404}},
		{name: "transport", err: &url.Error{Op: "Post", URL: "http://x", Err: errors.New("refused")}, transient: true},
		{name: "attempt timeout", err: context.DeadlineExceeded, transient: true},
		{name: "cancelled", err: context.Canceled},
		{name: "malformed", err: errors.New("invalid character")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.transient, retry.IsTransient(got))
			if tt.err != nil {
				assert.Equal(t, tt.err, Unwrap(got))
			}
		})
	}
}
