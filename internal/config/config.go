// Package config loads matcherd's configuration from the environment
// the way the exchange repo's pkg/config and services/matching-service
// config packages do: caarlos0/env struct tags over a godotenv-loaded
// .env file, with nested structs carrying envPrefix for each
// subsystem's settings.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is matcherd's full process configuration: the spec's own
// recognized options (SnapshotInterval, OrderCleanupInterval,
// RecoverOrderHistory, price bounds) plus the ambient settings a real
// deployment needs for storage, messaging, and the health-check front
// door.
type Config struct {
	Pair string `env:"PAIR,required"`

	SnapshotInterval     uint64 `env:"SNAPSHOT_INTERVAL" envDefault:"1000"`
	OrderCleanupInterval string `env:"ORDER_CLEANUP_INTERVAL" envDefault:"5m"`
	RecoverOrderHistory  bool   `env:"RECOVER_ORDER_HISTORY" envDefault:"false"`
	MaxPrice             uint64 `env:"MAX_PRICE" envDefault:"0"`
	MinPrice             uint64 `env:"MIN_PRICE" envDefault:"0"`
	PriceTick            uint64 `env:"PRICE_TICK" envDefault:"1"`
	MailboxCapacity      int    `env:"MAILBOX_CAPACITY" envDefault:"4096"`

	Journal   JournalConfig   `envPrefix:"JOURNAL_"`
	Snapshot  SnapshotConfig  `envPrefix:"SNAPSHOT_"`
	Outbox    OutboxConfig    `envPrefix:"OUTBOX_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Broadcast BroadcastConfig `envPrefix:"BROADCAST_"`
	Health    HealthConfig    `envPrefix:"HEALTH_"`

	App AppConfig `envPrefix:"APP_"`
}

// AppConfig covers process-wide ambient settings.
type AppConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// JournalConfig configures the per-pair write-ahead log.
type JournalConfig struct {
	Dir         string `env:"DIR" envDefault:"./data/journal"`
	SegmentSize int64  `env:"SEGMENT_SIZE" envDefault:"67108864"`
}

// SnapshotConfig configures the gob-encoded snapshot store.
type SnapshotConfig struct {
	Dir string `env:"DIR" envDefault:"./data/snapshots"`
}

// OutboxConfig configures the pebble-backed unconfirmed-transaction
// outbox that absorbs TxBuilder/UTX admission before broadcast.
type OutboxConfig struct {
	Dir          string `env:"DIR" envDefault:"./data/outbox"`
	PollInterval string `env:"POLL_INTERVAL" envDefault:"250ms"`
}

// KafkaConfig configures the domain event bus (kafka-go).
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"matcher.events"`
}

// BroadcastConfig configures the sarama producer used to fan accepted
// transactions out to the peer-to-peer channel group.
type BroadcastConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"matcher.broadcast"`
}

// HealthConfig configures the gRPC health-check front door.
type HealthConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":7070"`
}

// Load reads a .env file if present, then parses the environment into
// a Config, applying defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
