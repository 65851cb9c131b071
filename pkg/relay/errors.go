package relay

import "errors"

// Error kinds reported by the client. Per-request failures are delivered
// through the request's continuation wrapped around one of these sentinels,
// so callers can branch with errors.Is.
var (
	// ErrInvalidConfiguration is returned by New when the base URL is empty
	// or not a well-formed absolute http(s) URL.
	ErrInvalidConfiguration = errors.New("invalid client configuration")

	// ErrInvalidEndpoint is delivered when an endpoint argument is empty or
	// cannot be resolved against the base URL. No transport call is made.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrSerialization is delivered when a POST body cannot be encoded as
	// JSON. No transport call is made and nothing is registered.
	ErrSerialization = errors.New("request body serialization failed")

	// ErrTransport is delivered when the underlying exchange fails after the
	// request was dispatched.
	ErrTransport = errors.New("transport failure")

	// ErrCancelled is delivered when a request is aborted by
	// CancelAllRequests before the transport produced a response. Callers
	// must treat it as distinct from ErrTransport.
	ErrCancelled = errors.New("request cancelled")
)
