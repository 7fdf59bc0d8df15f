package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/retry"
)

func testFetcher() *Fetcher {
	return New(Config{
		Timeout:           time.Second,
		Retry:             retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		RequestsPerSecond: 1000,
		Burst:             100,
	})
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>Pasal 1</p>"))
	}))
	defer server.Close()

	raw, err := testFetcher().Fetch(context.Background(), server.URL+"/perda", domain.ContentKindHTML)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/perda", raw.URL)
	assert.Equal(t, domain.ContentKindHTML, raw.Kind)
	assert.Equal(t, "text/html; charset=utf-8", raw.ContentType)
	assert.Equal(t, "<p>Pasal 1</p>", string(raw.Content))
	assert.False(t, raw.FetchedAt.IsZero())
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer server.Close()

	_, err := testFetcher().Fetch(context.Background(), server.URL, domain.ContentKindHTML)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	raw, err := testFetcher().Fetch(context.Background(), server.URL, domain.ContentKindPDF)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(raw.Content))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_GivesUpOnPersistentServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testFetcher().Fetch(context.Background(), server.URL, domain.ContentKindHTML)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := testFetcher().Fetch(context.Background(), addr, domain.ContentKindHTML)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.StatusCode)
	assert.Equal(t, addr, fe.URL)
}

func TestFetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer server.Close()

	f := New(Config{MaxBodyBytes: 16, RequestsPerSecond: 1000})
	_, err := f.Fetch(context.Background(), server.URL, domain.ContentKindHTML)

	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestFetch_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher().Fetch(ctx, server.URL, domain.ContentKindHTML)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestRateLimiter_Backoff(t *testing.T) {
	r := NewRateLimiter(1000, 10)
	r.Backoff("example.com", 30*time.Millisecond)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background(), "example.com"))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	// Other hosts are unaffected.
	start = time.Now()
	require.NoError(t, r.Wait(context.Background(), "other.example.com"))
	assert.Less(t, time.Since(start), 25*time.Millisecond)
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Zero(t, retryAfter(resp))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(resp))

	resp.Header.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	assert.Zero(t, retryAfter(resp))
}
