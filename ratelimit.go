package main

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient wraps http.Client with a client-side request rate cap
// so concurrent batch fan-out cannot burst past the provider's per-second
// quota.
type rateLimitedClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newRateLimitedClient(rps float64, timeout time.Duration) *rateLimitedClient {
	return &rateLimitedClient{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *rateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}
