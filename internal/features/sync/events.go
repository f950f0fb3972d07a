package sync

import (
	"sync"
)

const subscriberBuffer = 16

// EventHub fans sync events out to websocket subscribers. Slow subscribers
// miss events instead of stalling a run.
type EventHub struct {
	mu          sync.Mutex
	subscribers map[chan SyncEvent]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subscribers: make(map[chan SyncEvent]struct{})}
}

// Subscribe returns the event channel and a func that detaches it.
func (h *EventHub) Subscribe() (<-chan SyncEvent, func()) {
	ch := make(chan SyncEvent, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *EventHub) Publish(event SyncEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
