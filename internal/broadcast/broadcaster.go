// Package broadcast fans accepted transactions out to the peer-to-peer
// channel group. Fire-and-forget per spec §6's
// channels.broadcast(tx) contract: a failed send leaves the
// transaction at StateSent in the outbox for the next tick to retry,
// rather than surfacing an error back into the match loop.
//
// Grounded on the teacher's jobs/broadcaster.Broadcaster: same sarama
// sync-producer setup and periodic outbox-scan loop. The teacher's
// replayOnce calls exitWAL.ScanPending/MarkSent/MarkAcked — methods
// that do not exist on its own ExitWAL type (which only has
// ScanByState/UpdateState) — so the scan loop below is written fresh
// against txoutbox's actual API rather than copied.
package broadcast

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"github.com/dexmatcher/matcher-core/internal/logging"
	"github.com/dexmatcher/matcher-core/internal/txoutbox"
)

type Broadcaster struct {
	outbox   *txoutbox.Outbox
	producer sarama.SyncProducer
	topic    string
	log      *logging.Logger
}

func New(outbox *txoutbox.Outbox, brokers []string, topic string, log *logging.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{outbox: outbox, producer: producer, topic: topic, log: log}, nil
}

// Run polls the outbox for transactions ready to send until ctx is
// canceled.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.replayOnce()
		}
	}
}

func (b *Broadcaster) replayOnce() {
	for _, state := range [...]txoutbox.State{txoutbox.StateNew, txoutbox.StateSent} {
		_ = b.outbox.ScanByState(state, func(txID string, rec txoutbox.Record) error {
			b.send(txID, rec)
			return nil
		})
	}
}

func (b *Broadcaster) send(txID string, rec txoutbox.Record) {
	if err := b.outbox.UpdateState(txID, txoutbox.StateSent, rec.Retries+1); err != nil {
		b.log.Warn("broadcast sent-state persist failed", logging.F("tx_id", txID), logging.F("error", err.Error()))
		return
	}

	msg := &sarama.ProducerMessage{Topic: b.topic, Value: sarama.ByteEncoder(rec.Payload)}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		b.log.Warn("broadcast send failed, will retry", logging.F("tx_id", txID), logging.F("error", err.Error()))
		return // stays at StateSent; next tick retries
	}

	if err := b.outbox.UpdateState(txID, txoutbox.StateAcked, rec.Retries+1); err != nil {
		b.log.Warn("broadcast ack persist failed", logging.F("tx_id", txID), logging.F("error", err.Error()))
	}
}

func (b *Broadcaster) Close() error { return b.producer.Close() }
