package server

import (
	"sync"

	"go.uber.org/zap"
)

// FrameBroadcaster fans encoded frames out to stream subscribers. A slow
// subscriber misses frames rather than blocking the others.
type FrameBroadcaster struct {
	mu      sync.Mutex
	clients map[int]chan []byte
	nextID  int
	closed  bool
	skipped uint64
	logger  *zap.SugaredLogger
}

// NewFrameBroadcaster creates an empty broadcaster.
func NewFrameBroadcaster(logger *zap.SugaredLogger) *FrameBroadcaster {
	return &FrameBroadcaster{
		clients: make(map[int]chan []byte),
		logger:  logger,
	}
}

// Subscribe adds a client. The returned channel is closed on Unsubscribe or
// Close.
func (fb *FrameBroadcaster) Subscribe() (int, <-chan []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	id := fb.nextID
	fb.nextID++
	ch := make(chan []byte, 2)
	if fb.closed {
		close(ch)
		return id, ch
	}
	fb.clients[id] = ch

	fb.logger.Debugw("stream client subscribed", "client", id, "clients", len(fb.clients))
	return id, ch
}

// Unsubscribe removes a client. Unknown ids are ignored.
func (fb *FrameBroadcaster) Unsubscribe(id int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if ch, ok := fb.clients[id]; ok {
		close(ch)
		delete(fb.clients, id)
		fb.logger.Debugw("stream client unsubscribed", "client", id, "clients", len(fb.clients))
	}
}

// Broadcast offers data to every subscriber without blocking.
func (fb *FrameBroadcaster) Broadcast(data []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for _, ch := range fb.clients {
		select {
		case ch <- data:
		default:
			fb.skipped++
		}
	}
}

// Len returns the number of subscribers.
func (fb *FrameBroadcaster) Len() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.clients)
}

// Close drops every subscriber. Later subscriptions receive a closed channel.
func (fb *FrameBroadcaster) Close() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return
	}
	fb.closed = true
	for id, ch := range fb.clients {
		close(ch)
		delete(fb.clients, id)
	}
	if fb.skipped > 0 {
		fb.logger.Debugw("frame broadcaster closed", "skipped", fb.skipped)
	}
}
