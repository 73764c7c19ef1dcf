// Command matcherd runs one BookCore for a single trading pair:
// config load, storage open, recovery, then the cleanup timer and the
// gRPC health front door, in the wiring order cmd/server/main.go uses
// for the teacher's WAL/service/gRPC startup sequence.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dexmatcher/matcher-core/internal/bookcore"
	"github.com/dexmatcher/matcher-core/internal/broadcast"
	"github.com/dexmatcher/matcher-core/internal/config"
	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/eventbus"
	"github.com/dexmatcher/matcher-core/internal/journal"
	"github.com/dexmatcher/matcher-core/internal/logging"
	"github.com/dexmatcher/matcher-core/internal/snapshotstore"
	"github.com/dexmatcher/matcher-core/internal/txbuilder"
	"github.com/dexmatcher/matcher-core/internal/txoutbox"

	healthfrontdoor "github.com/dexmatcher/matcher-core/api/health"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Level(cfg.App.LogLevel))
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	pair, ok := book.ParsePair(cfg.Pair)
	if !ok {
		log.Fatalf("matcherd: malformed PAIR %q, want AMOUNT-PRICE", cfg.Pair)
	}
	pairLog := logger.With(logging.F("pair", pair.Canonical()))

	// ---------------- Journal ----------------

	j, err := journal.Open(journal.Config{Dir: cfg.Journal.Dir, SegmentSize: cfg.Journal.SegmentSize})
	if err != nil {
		log.Fatalf("journal open failed: %v", err)
	}
	defer j.Close()

	// ---------------- Snapshot store ----------------

	snaps, err := snapshotstore.Open(cfg.Snapshot.Dir)
	if err != nil {
		log.Fatalf("snapshot store open failed: %v", err)
	}

	// ---------------- UTX outbox ----------------

	outbox, err := txoutbox.Open(cfg.Outbox.Dir)
	if err != nil {
		log.Fatalf("outbox open failed: %v", err)
	}
	defer outbox.Close()

	// ---------------- Event bus ----------------

	bus := eventbus.Bus(eventbus.NewMemoryBus())
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != "" {
		bus = eventbus.NewKafkaBus(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// ---------------- BookCore ----------------

	core, err := bookcore.New(bookcore.Options{
		Pair:                pair,
		SnapshotInterval:    cfg.SnapshotInterval,
		MaxPrice:            cfg.MaxPrice,
		MinPrice:            cfg.MinPrice,
		PriceTick:           cfg.PriceTick,
		MailboxCapacity:     cfg.MailboxCapacity,
		RecoverOrderHistory: cfg.RecoverOrderHistory,
		Journal:             j,
		Snapshots:           snaps,
		Bus:                 bus,
		TxBuilder:           txbuilder.PassthroughBuilder{},
		UTX:                 txbuilder.AcceptAllUTX{},
		Outbox:              outbox,
		Log:                 pairLog,
		Now:                 func() uint64 { return uint64(time.Now().Unix()) },
	})
	if err != nil {
		log.Fatalf("bookcore init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go core.Run(ctx)

	// ---------------- Cleanup timer ----------------

	cleanupInterval, err := time.ParseDuration(cfg.OrderCleanupInterval)
	if err != nil {
		log.Fatalf("bad ORDER_CLEANUP_INTERVAL %q: %v", cfg.OrderCleanupInterval, err)
	}
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				core.Cleanup(uint64(time.Now().Unix()))
			}
		}
	}()

	// ---------------- Broadcast ----------------

	if len(cfg.Broadcast.Brokers) > 0 && cfg.Broadcast.Brokers[0] != "" {
		bc, err := broadcast.New(outbox, cfg.Broadcast.Brokers, cfg.Broadcast.Topic, pairLog)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		pollInterval, err := time.ParseDuration(cfg.Outbox.PollInterval)
		if err != nil {
			log.Fatalf("bad OUTBOX_POLL_INTERVAL %q: %v", cfg.Outbox.PollInterval, err)
		}
		go bc.Run(ctx, pollInterval)
	}

	// ---------------- Metrics ----------------

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.App.MetricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			pairLog.Warn("metrics server exited", logging.F("error", err.Error()))
		}
	}()

	// ---------------- gRPC health front door ----------------

	hs := healthfrontdoor.New(pairLog)
	hs.SetServing(true)

	if err := hs.ListenAndServe(ctx, cfg.Health.ListenAddr); err != nil {
		log.Fatalf("health server exited: %v", err)
	}
}
