package bookcore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/eventbus"
	"github.com/dexmatcher/matcher-core/internal/journal"
	"github.com/dexmatcher/matcher-core/internal/snapshotstore"
	"github.com/dexmatcher/matcher-core/internal/txoutbox"
)

// TestRecoveryReplaysRestingOrdersAcrossRestart builds a core, rests a
// few orders and executes one trade, then tears it down and builds a
// fresh Core against the same journal/snapshot/outbox directories —
// simulating a process restart — and checks the recovered book matches
// what was left standing.
func TestRecoveryReplaysRestingOrdersAcrossRestart(t *testing.T) {
	journalDir := t.TempDir()
	snapDir := t.TempDir()
	outboxDir := t.TempDir()
	now := func() uint64 { return 1000 }

	j1, err := journal.Open(journal.Config{Dir: journalDir, SegmentSize: 1 << 20})
	require.NoError(t, err)
	snaps1, err := snapshotstore.Open(snapDir)
	require.NoError(t, err)
	outbox1, err := txoutbox.Open(outboxDir)
	require.NoError(t, err)

	c1, err := New(Options{
		Pair:             testPair(),
		SnapshotInterval: 1_000_000, // large enough that no snapshot fires mid-test
		MailboxCapacity:  64,
		Journal:          j1,
		Snapshots:        snaps1,
		Bus:              eventbus.NewMemoryBus(),
		TxBuilder:        newFakeTxBuilder(),
		UTX:              newFakeUTX(),
		Outbox:           outbox1,
		Now:              now,
	})
	require.NoError(t, err)

	ctx1, cancel1 := context.WithCancel(context.Background())
	go c1.Run(ctx1)

	placeAndWait(t, &testCore{Core: c1}, testOrder("ask1", book.Sell, book.Limit, 100, 10))
	placeAndWait(t, &testCore{Core: c1}, testOrder("bid1", book.Buy, book.Limit, 100, 4))
	placeAndWait(t, &testCore{Core: c1}, testOrder("bid2", book.Buy, book.Limit, 95, 5))
	time.Sleep(20 * time.Millisecond)

	before, err := c1.GetOrders(context.Background())
	require.NoError(t, err)

	cancel1()
	require.NoError(t, j1.Close())
	require.NoError(t, outbox1.Close())

	j2, err := journal.Open(journal.Config{Dir: journalDir, SegmentSize: 1 << 20})
	require.NoError(t, err)
	defer j2.Close()
	snaps2, err := snapshotstore.Open(snapDir)
	require.NoError(t, err)
	outbox2, err := txoutbox.Open(outboxDir)
	require.NoError(t, err)
	defer outbox2.Close()

	c2, err := New(Options{
		Pair:             testPair(),
		SnapshotInterval: 1_000_000,
		MailboxCapacity:  64,
		Journal:          j2,
		Snapshots:        snaps2,
		Bus:              eventbus.NewMemoryBus(),
		TxBuilder:        newFakeTxBuilder(),
		UTX:              newFakeUTX(),
		Outbox:           outbox2,
		Now:              now,
	})
	require.NoError(t, err)

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	go c2.Run(ctx2)

	after, err := c2.GetOrders(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, orderIDs(before.Orders), orderIDs(after.Orders))

	status, err := c2.GetMarketStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasLastTrade, "the execution against ask1 should have survived recovery as last-trade state")
}

// TestRecoveryRebasesSequenceSoNewAppendsDoNotCollide checks that a
// recovered Core continues issuing strictly increasing sequence numbers
// after the ones replayed from the journal, rather than restarting from
// zero and overwriting history.
func TestRecoveryRebasesSequenceSoNewAppendsDoNotCollide(t *testing.T) {
	journalDir := t.TempDir()
	snapDir := t.TempDir()
	outboxDir := t.TempDir()
	now := func() uint64 { return 1000 }

	j1, err := journal.Open(journal.Config{Dir: journalDir, SegmentSize: 1 << 20})
	require.NoError(t, err)
	outbox1, err := txoutbox.Open(outboxDir)
	require.NoError(t, err)
	snaps1, err := snapshotstore.Open(snapDir)
	require.NoError(t, err)

	c1, err := New(Options{
		Pair: testPair(), SnapshotInterval: 1_000_000, MailboxCapacity: 64,
		Journal: j1, Snapshots: snaps1, Bus: eventbus.NewMemoryBus(),
		TxBuilder: newFakeTxBuilder(), UTX: newFakeUTX(), Outbox: outbox1, Now: now,
	})
	require.NoError(t, err)
	ctx1, cancel1 := context.WithCancel(context.Background())
	go c1.Run(ctx1)
	placeAndWait(t, &testCore{Core: c1}, testOrder("bid1", book.Buy, book.Limit, 90, 5))
	time.Sleep(10 * time.Millisecond)
	lastSeqBefore := j1.NextSeq() - 1
	cancel1()
	require.NoError(t, j1.Close())
	require.NoError(t, outbox1.Close())

	j2, err := journal.Open(journal.Config{Dir: journalDir, SegmentSize: 1 << 20})
	require.NoError(t, err)
	defer j2.Close()
	outbox2, err := txoutbox.Open(outboxDir)
	require.NoError(t, err)
	defer outbox2.Close()
	snaps2, err := snapshotstore.Open(snapDir)
	require.NoError(t, err)

	_, err = New(Options{
		Pair: testPair(), SnapshotInterval: 1_000_000, MailboxCapacity: 64,
		Journal: j2, Snapshots: snaps2, Bus: eventbus.NewMemoryBus(),
		TxBuilder: newFakeTxBuilder(), UTX: newFakeUTX(), Outbox: outbox2, Now: now,
	})
	require.NoError(t, err)

	assert.Equal(t, lastSeqBefore+1, j2.NextSeq())
}

func orderIDs(los []book.LimitOrder) []string {
	out := make([]string, 0, len(los))
	for _, lo := range los {
		out = append(out, lo.Order.ID)
	}
	return out
}
