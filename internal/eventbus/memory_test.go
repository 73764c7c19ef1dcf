package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

func TestMemoryBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewMemoryBus()
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)

	pair := book.Pair{AmountAsset: "BTC", PriceAsset: "USD"}
	ev := book.OrderCanceled{Pair: pair, OrderID: "o1"}
	require.NoError(t, bus.Publish(context.Background(), pair, ev))

	select {
	case got := <-a:
		assert.Equal(t, ev, got.Event)
	case <-time.After(time.Second):
		t.Fatal("subscriber a never received the event")
	}
	select {
	case got := <-b:
		assert.Equal(t, ev, got.Event)
	case <-time.After(time.Second):
		t.Fatal("subscriber b never received the event")
	}
}

func TestMemoryBusDropsToSlowSubscriberRatherThanBlocking(t *testing.T) {
	bus := NewMemoryBus()
	slow := bus.Subscribe(1)
	pair := book.Pair{AmountAsset: "BTC", PriceAsset: "USD"}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = bus.Publish(context.Background(), pair, book.OrderCanceled{Pair: pair, OrderID: "o"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber instead of dropping")
	}
	assert.Len(t, slow, 1, "buffer holds only the first delivered event; the rest were dropped")
}
