package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Bus is a simple publish/subscribe event bus.
// Subscribers receive events on buffered channels; a slow subscriber drops
// events rather than blocking publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[int]chan Event),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its channel and an
// unsubscribe function. The channel is closed on unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish delivers an event to all current subscribers
func (b *Bus) Publish(data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.log.Warn().Str("event", string(event.Type)).Msg("Subscriber channel full, dropping event")
		}
	}
}
