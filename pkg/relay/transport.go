package relay

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Transport performs a single HTTP exchange. Implementations must honor
// context cancellation so an in-flight exchange can be aborted, and must
// treat non-2xx statuses as responses rather than errors.
type Transport interface {
	Execute(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, error)
}

// RestyTransport adapts resty.Client to the Transport interface. One
// instance shares a connection pool across all concurrent exchanges.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a RestyTransport with the specified per-request
// timeout.
func NewRestyTransport(timeout time.Duration) *RestyTransport {
	c := resty.New()
	c.SetTimeout(timeout)
	return &RestyTransport{client: c}
}

// Execute performs one exchange and maps the result into a Response.
func (t *RestyTransport) Execute(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, error) {
	req := t.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}

	respHeaders := make(map[string]string, len(resp.Header()))
	for k := range resp.Header() {
		respHeaders[k] = resp.Header().Get(k)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Headers:    respHeaders,
		Body:       resp.Body(),
		Duration:   resp.Time(),
	}, nil
}

// Close releases idle connections held by the underlying pool.
func (t *RestyTransport) Close() error {
	t.client.GetClient().CloseIdleConnections()
	return nil
}
