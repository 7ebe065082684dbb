// Package transport provides the default network Transport for adapters.
package transport

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"BarPull/internal/domain/repository"
	"BarPull/internal/service/ratelimit"
	apphttp "BarPull/pkg/http"
)

// Option configures the HTTP transport.
type Option func(*httpTransport)

type httpTransport struct {
	client  *apphttp.Client
	limiter *ratelimit.Limiter
}

// WithClient sets the HTTP client.
func WithClient(c *apphttp.Client) Option {
	return func(t *httpTransport) { t.client = c }
}

// WithLimiter gates calls per host. A denied call fails with ratelimit.ErrRateLimited.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(t *httpTransport) { t.limiter = l }
}

// NewHTTP returns a Transport issuing GET requests.
func NewHTTP(opts ...Option) repository.Transport {
	t := &httpTransport{}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = apphttp.NewClient()
	}
	return t.do
}

// Default is the unlimited HTTP transport.
func Default() repository.Transport { return NewHTTP() }

func (t *httpTransport) do(ctx context.Context, rawURL string, params, headers map[string]string, timeout time.Duration) ([]byte, error) {
	if t.limiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		if err := t.limiter.Take(u.Host); err != nil {
			return nil, fmt.Errorf("%s: %w", u.Host, err)
		}
	}
	return t.client.Get(ctx, rawURL, params, headers, timeout)
}
