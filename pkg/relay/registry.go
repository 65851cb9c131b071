package relay

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle is an opaque per-request identifier, unique for the lifetime of the
// owning client and never reused after the request resolves.
type Handle string

func newHandle() Handle { return Handle(uuid.NewString()) }

// pendingRequest is one in-flight entry. The cancel func is the capability
// to abort the transport exchange for this specific request.
type pendingRequest struct {
	handle   Handle
	method   string
	endpoint string
	cancel   context.CancelFunc
}

// requestRegistry is the single source of truth for in-flight state. An
// entry exists in the map if and only if the request is in flight; all
// mutations are serialized by the mutex.
type requestRegistry struct {
	mu      sync.Mutex
	entries map[Handle]*pendingRequest
}

func newRequestRegistry() *requestRegistry {
	return &requestRegistry{entries: make(map[Handle]*pendingRequest)}
}

// register allocates a fresh handle and inserts a new in-flight entry.
// It never fails.
func (r *requestRegistry) register(method, endpoint string, cancel context.CancelFunc) Handle {
	h := newHandle()

	r.mu.Lock()
	r.entries[h] = &pendingRequest{
		handle:   h,
		method:   method,
		endpoint: endpoint,
		cancel:   cancel,
	}
	r.mu.Unlock()

	return h
}

// deregister removes the entry if present. Removing an already-absent handle
// is a no-op, which guards against the completion/cancellation race.
func (r *requestRegistry) deregister(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[h]; !ok {
		return false
	}
	delete(r.entries, h)
	return true
}

// snapshot returns the handles of all currently in-flight entries. The
// returned slice is a copy, unaffected by later registry mutation.
func (r *requestRegistry) snapshot() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles := make([]Handle, 0, len(r.entries))
	for h := range r.entries {
		handles = append(handles, h)
	}
	return handles
}

// cancelAll atomically claims and removes every in-flight entry. Each entry
// is handed to exactly one caller: a concurrent second caller observes an
// empty set for already-claimed entries.
func (r *requestRegistry) cancelAll() []*pendingRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return nil
	}

	claimed := make([]*pendingRequest, 0, len(r.entries))
	for _, p := range r.entries {
		claimed = append(claimed, p)
	}
	r.entries = make(map[Handle]*pendingRequest)
	return claimed
}

func (r *requestRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
