// Package github wraps the GitHub API calls used to discover pull requests and read their review comments.
package github

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerSecond = 10
	defaultBurst             = 5
	connectTimeout           = 30 * time.Second
	requestTimeout           = 300 * time.Second
)

// Client wraps the GitHub API client
type Client struct {
	client  *github.Client
	limiter *rate.Limiter
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

type clientOptions struct {
	requestsPerSecond float64
	burst             int
	timeout           time.Duration
	baseURL           *url.URL
}

// WithRateLimit paces outgoing requests
func WithRateLimit(requestsPerSecond float64, burst int) ClientOption {
	return func(o *clientOptions) {
		o.requestsPerSecond = requestsPerSecond
		o.burst = burst
	}
}

// WithTimeout bounds each HTTP request end to end
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// WithBaseURL points the client at a GitHub Enterprise or test server. The URL must end with a slash.
func WithBaseURL(u *url.URL) ClientOption {
	return func(o *clientOptions) { o.baseURL = u }
}

// NewClient creates a new GitHub client with token authentication
func NewClient(ctx context.Context, token string, opts ...ClientOption) *Client {
	o := clientOptions{
		requestsPerSecond: defaultRequestsPerSecond,
		burst:             defaultBurst,
		timeout:           requestTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = o.timeout

	gh := github.NewClient(tc)
	if o.baseURL != nil {
		gh.BaseURL = o.baseURL
	}

	return &Client{
		client:  gh,
		limiter: rate.NewLimiter(rate.Limit(o.requestsPerSecond), o.burst),
	}
}

// wait blocks until the rate limiter admits one more request
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
