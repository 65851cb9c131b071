// Package relay implements an asynchronous HTTP request client. Requests
// issued against a fixed base URL execute concurrently over a shared
// transport; every in-flight request is tracked by an opaque handle and can
// be aborted in bulk. Each request delivers its outcome to a caller-supplied
// continuation exactly once, with either a response or an error, never both.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the per-request timeout of the default transport.
const DefaultTimeout = 30 * time.Second

// Continuation receives the outcome of one request. It is invoked exactly
// once per issued request, off the caller's goroutine for any request that
// reached the transport, and synchronously for arguments rejected before
// registration (invalid endpoint, unserializable body).
type Continuation func(resp *Response, err error)

// Client issues GET/POST requests against a fixed base URL. It is safe for
// concurrent use; the zero value is not usable, construct with New.
type Client struct {
	baseURL        *url.URL
	defaultHeaders map[string]string
	transport      Transport
	registry       *requestRegistry
	limiter        *rate.Limiter
	log            Logger
	timeout        time.Duration
	wg             sync.WaitGroup
}

// New builds a client for the given absolute http(s) base URL. It fails
// with ErrInvalidConfiguration when the URL is empty or malformed.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:        u,
		defaultHeaders: make(map[string]string),
		registry:       newRequestRegistry(),
		log:            NopLogger{},
		timeout:        DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewRestyTransport(c.timeout)
	}
	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: base URL is empty", ErrInvalidConfiguration)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base URL %q: %v", ErrInvalidConfiguration, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL %q must be absolute http(s)", ErrInvalidConfiguration, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q has no host", ErrInvalidConfiguration, raw)
	}
	return u, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Get issues an asynchronous GET against the endpoint resolved relative to
// the base URL and returns the handle tracking it. A validation failure
// delivers the error immediately and returns a zero handle.
func (c *Client) Get(endpoint string, cont Continuation) Handle {
	return c.start(http.MethodGet, endpoint, nil, cont)
}

// Post issues an asynchronous POST with the body serialized as JSON. An
// unserializable body delivers ErrSerialization without registering
// anything; otherwise the contract is identical to Get.
func (c *Client) Post(endpoint string, body map[string]any, cont Continuation) Handle {
	payload, err := json.Marshal(body)
	if err != nil {
		deliver(cont, nil, fmt.Errorf("%w: %v", ErrSerialization, err))
		return ""
	}
	return c.start(http.MethodPost, endpoint, payload, cont)
}

// start registers the request before dispatching, so it is visible to
// PendingRequests and eligible for cancellation as soon as control returns
// to the caller.
func (c *Client) start(method, endpoint string, payload []byte, cont Continuation) Handle {
	target, err := c.resolve(endpoint)
	if err != nil {
		deliver(cont, nil, err)
		return ""
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := c.registry.register(method, endpoint, cancel)

	c.wg.Add(1)
	go c.dispatch(ctx, cancel, handle, method, endpoint, target, payload, cont)
	return handle
}

func (c *Client) resolve(endpoint string) (string, error) {
	if strings.TrimSpace(endpoint) == "" {
		return "", fmt.Errorf("%w: endpoint is empty", ErrInvalidEndpoint)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: parse endpoint %q: %v", ErrInvalidEndpoint, endpoint, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func (c *Client) dispatch(ctx context.Context, cancel context.CancelFunc, handle Handle, method, endpoint, target string, payload []byte, cont Continuation) {
	defer c.wg.Done()
	defer cancel()

	resp, err := c.execute(ctx, method, target, payload)

	// Removal strictly precedes continuation delivery: a continuation
	// observing PendingRequests never sees its own now-resolving request.
	c.registry.deregister(handle)

	switch {
	case err == nil:
		// A response obtained before a cancellation signal was observed is
		// still reported as success. That race is inherent to network timing.
		c.log.DebugObj("request completed", "request", map[string]any{
			"handle": string(handle),
			"method": method,
			"target": target,
			"status": resp.StatusCode,
		})
		deliver(cont, resp, nil)
	case ctx.Err() != nil:
		c.log.DebugObj("request cancelled", "request", map[string]any{
			"handle": string(handle),
			"method": method,
			"target": target,
		})
		deliver(cont, nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrCancelled))
	default:
		c.log.WarnObj("request failed", "request", map[string]any{
			"handle": string(handle),
			"method": method,
			"target": target,
			"error":  err.Error(),
		})
		deliver(cont, nil, fmt.Errorf("%s %s: %w: %v", method, endpoint, ErrTransport, err))
	}
}

func (c *Client) execute(ctx context.Context, method, target string, payload []byte) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return c.transport.Execute(ctx, method, target, c.headersFor(payload), payload)
}

// headersFor copies the default header set so a transport never touches
// shared state; JSON requests carry an explicit content type.
func (c *Client) headersFor(payload []byte) map[string]string {
	headers := make(map[string]string, len(c.defaultHeaders)+1)
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	if payload != nil {
		headers["Content-Type"] = "application/json"
	}
	return headers
}

// PendingRequests returns a snapshot of the handles currently in flight.
// Requests starting or finishing after the call do not affect the returned
// slice.
func (c *Client) PendingRequests() []Handle {
	return c.registry.snapshot()
}

// CancelAllRequests aborts every currently in-flight request. Each claimed
// request resolves through its own continuation with ErrCancelled, unless
// its exchange had already produced a response before the signal was
// observed, in which case it still reports success. The method returns once
// all cancellation signals have been issued; it does not wait for
// continuations to drain.
func (c *Client) CancelAllRequests() {
	claimed := c.registry.cancelAll()
	for _, p := range claimed {
		p.cancel()
	}
	if len(claimed) > 0 {
		c.log.InfoObj("cancelled in-flight requests", "count", len(claimed))
	}
}

// Close cancels all outstanding requests, waits until every continuation
// has been delivered, and releases transport resources. The client must not
// be used afterwards.
func (c *Client) Close() error {
	c.CancelAllRequests()
	c.wg.Wait()
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func deliver(cont Continuation, resp *Response, err error) {
	if cont == nil {
		return
	}
	cont(resp, err)
}
