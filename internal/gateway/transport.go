package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// TransportOptions configures the HTTP stack shared by the REST and GraphQL clients.
type TransportOptions struct {
	// RequestsPerMinute caps the client-side request rate. Zero disables throttling.
	RequestsPerMinute int
	// MaxSecondaryWait is the longest single sleep allowed for a secondary rate limit.
	MaxSecondaryWait time.Duration
	// Base is the innermost transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// NewHTTPClient builds the client stack: oauth2 -> secondary rate limit waiter -> throttle -> base.
func NewHTTPClient(token string, opts TransportOptions) (*http.Client, error) {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.RequestsPerMinute > 0 {
		base = NewThrottledTransport(base, opts.RequestsPerMinute)
	}
	maxWait := opts.MaxSecondaryWait
	if maxWait <= 0 {
		maxWait = time.Hour
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(base, github_ratelimit.WithSingleSleepLimit(maxWait, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

// ThrottledTransport blocks each request until the limiter grants a token.
type ThrottledTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewThrottledTransport allows requestsPerMinute requests per minute with a burst of one.
func NewThrottledTransport(base http.RoundTripper, requestsPerMinute int) *ThrottledTransport {
	every := time.Minute / time.Duration(requestsPerMinute)
	return &ThrottledTransport{
		base:    base,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

func (t *ThrottledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("failed waiting for request slot: %w", err)
	}
	return t.base.RoundTrip(req)
}

// resetFromHeader reads X-RateLimit-Reset (unix seconds). Zero if absent or malformed.
func resetFromHeader(h http.Header) time.Time {
	v := h.Get("X-RateLimit-Reset")
	if v == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
