package httputil

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/matzehuels/solvent/pkg/observability"
)

// DefaultRate is the request rate applied when no limiter is configured.
const DefaultRate = 10

// RLClient is a rate-limited HTTP client. Every request waits for the
// limiter before hitting the wire, respecting the request's context.
type RLClient struct {
	Client      *http.Client
	Ratelimiter *rate.Limiter
}

// NewRLClient wraps client with the given limiter. A nil client falls back
// to http.DefaultClient; a nil limiter falls back to DefaultRate req/s.
func NewRLClient(client *http.Client, limiter *rate.Limiter) *RLClient {
	if client == nil {
		client = http.DefaultClient
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(DefaultRate), 1)
	}
	return &RLClient{
		Client:      client,
		Ratelimiter: limiter,
	}
}

// Do sends an HTTP request once the limiter permits it.
func (c *RLClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := c.Ratelimiter.Wait(ctx); err != nil {
		return nil, err
	}

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, err
	}
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
	return resp, nil
}
