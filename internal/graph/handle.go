package graph

import "sync/atomic"

// Handle holds the current graph. A build publishes a new graph with Swap;
// searches take a snapshot with Current and keep using it even if a newer
// graph is published meanwhile.
type Handle struct {
	current atomic.Pointer[Graph]
}

// NewHandle creates a handle in the "no graph built yet" state.
func NewHandle() *Handle {
	return &Handle{}
}

// Current returns the published graph, or false if none has been built.
func (h *Handle) Current() (*Graph, bool) {
	g := h.current.Load()
	return g, g != nil
}

// Swap publishes g and returns the previously published graph, if any.
func (h *Handle) Swap(g *Graph) *Graph {
	return h.current.Swap(g)
}
