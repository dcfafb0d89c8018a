package client

import (
	"strings"
	"sync"
)

// Handler receives one raw inbound line.
type Handler func(rawLine string)

type dispatchEntry struct {
	prefix  string
	handler Handler
}

// Registry routes inbound lines to at most one active handler per message
// prefix, modelling "whichever screen is currently open for this data
// type". It is an ordered table of (prefix, handler) pairs evaluated by
// first literal-prefix match, not a multi-subscriber fan-out.
type Registry struct {
	mu      sync.RWMutex
	entries []dispatchEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make([]dispatchEntry, 0)}
}

// Register installs the handler for a prefix, replacing any prior handler
// registered under the same prefix. Last writer wins.
//
// Replacing keeps the entry's original position, so registration order
// matters when prefixes overlap: a shorter prefix registered first (say
// "LOGIN") will shadow a longer one registered later ("LOGIN_FAILED").
func (r *Registry) Register(prefix string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.prefix == prefix {
			r.entries[i].handler = h
			return
		}
	}

	r.entries = append(r.entries, dispatchEntry{prefix: prefix, handler: h})
}

// Unregister clears the handler for a prefix. Unknown prefixes are a
// no-op.
func (r *Registry) Unregister(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.prefix == prefix {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Dispatch offers a line to the first entry whose prefix is a literal
// prefix of the line, in registration order. It reports whether any
// handler was invoked. The handler runs outside the registry lock so it
// may register or unregister freely.
func (r *Registry) Dispatch(rawLine string) bool {
	r.mu.RLock()

	var h Handler
	for _, entry := range r.entries {
		if strings.HasPrefix(rawLine, entry.prefix) {
			h = entry.handler
			break
		}
	}

	r.mu.RUnlock()

	if h == nil {
		return false
	}

	h(rawLine)
	return true
}
