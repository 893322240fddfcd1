package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Well-known counter names.
const (
	TicksSent        = "ticks_sent"
	SendFailures     = "send_failures"
	MessagesReceived = "messages_received"
	UpdatesApplied   = "updates_applied"
	DecodeFailures   = "decode_failures"
	UnknownSymbols   = "unknown_symbols"
	ConnectFailures  = "connect_failures"
)

// Registry is a set of named monotonic counters. All methods are safe for
// concurrent use and safe on a nil receiver, so components can run without
// metrics wired in.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]int64),
	}
}

// Inc increments the named counter by one.
func (r *Registry) Inc(name string) {
	r.Add(name, 1)
}

// Add increments the named counter by delta.
func (r *Registry) Add(name string, delta int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.counters[name] += delta
	r.mu.Unlock()
}

// Get returns the current value of the named counter.
func (r *Registry) Get(name string) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Snapshot returns a copy of all counters.
func (r *Registry) Snapshot() map[string]int64 {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64, len(r.counters))
	for name, v := range r.counters {
		out[name] = v
	}
	return out
}

// Handler serves the counter snapshot as JSON.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(r.Snapshot())
	})
}
