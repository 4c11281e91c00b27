package services

import (
	"sync"
)

// ActivityHub fans new feed entries out to live subscribers.
type ActivityHub struct {
	clients map[string]chan Activity
	buffer  int
	mu      sync.RWMutex
}

func NewActivityHub() *ActivityHub {
	return &ActivityHub{
		clients: make(map[string]chan Activity),
		buffer:  100,
	}
}

// Subscribe registers clientID and returns its event channel. Subscribing
// an id twice replaces the earlier channel.
func (h *ActivityHub) Subscribe(clientID string) <-chan Activity {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old)
	}
	ch := make(chan Activity, h.buffer)
	h.clients[clientID] = ch
	return ch
}

func (h *ActivityHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish never blocks; a subscriber with a full buffer misses the entry.
func (h *ActivityHub) Publish(a Activity) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- a:
		default:
		}
	}
}

// CloseAll disconnects every subscriber. Streams see their channel close.
func (h *ActivityHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}

func (h *ActivityHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	globalActivityHub *ActivityHub
	activityHubOnce   sync.Once
)

func GetActivityHub() *ActivityHub {
	activityHubOnce.Do(func() {
		globalActivityHub = NewActivityHub()
	})
	return globalActivityHub
}
