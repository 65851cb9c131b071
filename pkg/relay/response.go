package relay

import (
	"encoding/json"
	"strings"
	"time"
)

// Response is the outcome of one completed HTTP exchange. It is constructed
// once, immutable afterwards, and owned by the continuation that receives it.
// Higher-level decoding of the body is the caller's responsibility.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// Header returns the value for the given header name, matching
// case-insensitively per HTTP convention.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// BodyJSON decodes the body as JSON into a generic value.
func (r *Response) BodyJSON() (any, error) {
	var out any
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
