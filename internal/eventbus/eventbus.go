// Package eventbus publishes domain events to downstream consumers
// (order history, market-data indexers). Interface shape grounded on
// the exchange repo's match-publisher/v1 and order-reader/v1
// packages — a small publish-only interface per concern rather than a
// god "Kafka" type — with the Kafka-backed implementation itself
// grounded on the teacher's infra/kafka.Producer (kafka-go).
package eventbus

import (
	"context"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

// Bus is the non-blocking publish sink spec §6 names as
// event_bus.publish(event). Publish must not block the match loop on
// slow consumers; implementations buffer or drop, never stall.
type Bus interface {
	Publish(ctx context.Context, pair book.Pair, ev book.Event) error
	Close() error
}
