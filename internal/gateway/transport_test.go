package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestThrottledTransport(t *testing.T) {
	calls := 0
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
	transport := NewThrottledTransport(base, 60)

	req := httptest.NewRequest(http.MethodGet, "https://api.github.com/users/alice", nil)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)

	// The burst is spent, so a cancelled request never reaches the base transport.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = transport.RoundTrip(req.WithContext(ctx))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed waiting for request slot")
	assert.Equal(t, 1, calls)
}

func TestNewHTTPClient_SetsAuthorization(t *testing.T) {
	var gotAuth string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotAuth = r.Header.Get("Authorization")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: http.Header{}, Request: r}, nil
	})
	client, err := NewHTTPClient("secret-token", TransportOptions{Base: base})
	require.NoError(t, err)

	resp, err := client.Get("https://api.github.com/rate_limit")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestResetFromHeader(t *testing.T) {
	h := http.Header{}
	assert.True(t, resetFromHeader(h).IsZero())

	h.Set("X-RateLimit-Reset", "not-a-number")
	assert.True(t, resetFromHeader(h).IsZero())

	h.Set("X-RateLimit-Reset", "1760529600")
	assert.True(t, resetFromHeader(h).Equal(time.Unix(1760529600, 0)))
}

func TestRateLimitError_Message(t *testing.T) {
	err := &RateLimitError{ResetAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), Err: assert.AnError}
	assert.True(t, strings.HasPrefix(err.Error(), "github rate limit exceeded, resets at 2026-10-15T12:00:00Z"))
	assert.ErrorIs(t, err, assert.AnError)
}
