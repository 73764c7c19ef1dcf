package eventbus

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/journal"
)

// KafkaBus publishes events to a Kafka topic, one message per event,
// keyed by pair so a single consumer group can partition by market.
// Grounded on the teacher's infra/kafka.Producer.
type KafkaBus struct {
	writer *kafka.Writer
}

func NewKafkaBus(brokers []string, topic string) *KafkaBus {
	return &KafkaBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (b *KafkaBus) Publish(ctx context.Context, pair book.Pair, ev book.Event) error {
	payload, err := journal.EncodeEvent(ev)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(pair.Canonical()),
		Value: payload,
	})
}

func (b *KafkaBus) Close() error { return b.writer.Close() }
