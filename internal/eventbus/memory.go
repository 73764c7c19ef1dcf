package eventbus

import (
	"context"
	"sync"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

// MemoryBus is an in-process Bus for tests and single-node
// deployments without Kafka: a bounded channel per subscriber, with
// Publish dropping to a slow subscriber rather than blocking the
// match loop, matching the non-blocking contract of spec §6.
type MemoryBus struct {
	mu   sync.Mutex
	subs []chan Published
}

// Published pairs a delivered event with the pair it belongs to, for
// subscribers listening across multiple markets.
type Published struct {
	Pair  book.Pair
	Event book.Event
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Subscribe returns a channel of every event published after the
// call, buffered so a burst doesn't need the publisher to wait.
func (b *MemoryBus) Subscribe(buffer int) <-chan Published {
	ch := make(chan Published, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *MemoryBus) Publish(_ context.Context, pair book.Pair, ev book.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- Published{Pair: pair, Event: ev}:
		default:
			// subscriber too slow; drop rather than block the book actor
		}
	}
	return nil
}

func (b *MemoryBus) Close() error { return nil }
