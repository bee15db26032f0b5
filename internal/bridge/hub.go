package bridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/logger"
)

// sendBuffer is the per-client outbound queue length.
const sendBuffer = 32

// Hub tracks connected clients and broadcasts engine signals to them. It
// implements engine.Notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), log: logger.OrNop(log)}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. A client whose queue is full is
// disconnected rather than left waiting for a signal it will never get.
func (h *Hub) Broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.enqueue(msg) {
			h.log.Warn("client send queue full, disconnecting", zap.String("client", c.id))
			delete(h.clients, c)
			c.closeSend()
		}
	}
}

// Done broadcasts gen-dummy-done.
func (h *Hub) Done(id document.NodeID) {
	h.Broadcast(GenDummyDone{Type: TypeGenDummyDone, NodeID: id})
}

// Notice broadcasts notify.
func (h *Hub) Notice(message string) {
	h.Broadcast(notify(message))
}
