package event

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Bus is an in-process fan-out Broadcaster. Publish never blocks the write
// path: a subscriber whose buffer is full misses the event, which is logged.
// Callers always publish after the corresponding write is durable, so a slow
// subscriber can re-read current state instead of replaying the gap.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
	logger *log.Logger
}

func NewBus(buffer int, logger *log.Logger) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber channel. The returned cancel func
// removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			if b.logger != nil {
				b.logger.Warn("dropping event for slow subscriber", "subscriber", id, "kind", e.Kind)
			}
		}
	}
}

// Close removes and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
