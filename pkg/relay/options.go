package relay

import (
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithTransport replaces the default resty-backed transport. Useful for
// injecting mocks or alternative HTTP stacks.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithTimeout sets the per-request timeout used when the client builds its
// default transport. It has no effect when WithTransport is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDefaultHeader adds a header merged into every outgoing request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders adds multiple headers merged into every outgoing request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithLogger attaches a logger for request lifecycle events.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = ensureLogger(log)
	}
}

// WithRateLimit throttles request dispatch to at most rps requests per
// second with the given burst. Cancellation interrupts a throttled request
// before it reaches the transport.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}
