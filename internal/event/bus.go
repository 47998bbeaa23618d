package event

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const subscriberBuffer = 100

type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	dropped     atomic.Int64
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *InMemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryBus{
		subscribers: make(map[string]chan Event),
		logger:      logger,
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the event.
func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
			b.logger.Warn("event dropped", "event_type", e.Type, "event_id", e.ID, "subscriber", id)
		}
	}
}

func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, exists := b.subscribers[id]; exists {
			close(ch)
			delete(b.subscribers, id)
		}
	}

	return ch, unsubscribe
}

// Dropped reports how many deliveries were skipped because of full buffers.
func (b *InMemoryBus) Dropped() int64 {
	return b.dropped.Load()
}
