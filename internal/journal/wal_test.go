package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

func testOrder(id string) *book.Order {
	return &book.Order{
		ID: id, Pair: testPair(), Side: book.Buy, Type: book.Limit,
		Amount: 10, Price: 100, Expiration: 999, MatcherFee: 5,
	}
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Config{Dir: t.TempDir(), SegmentSize: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalAppendAssignsIncreasingSeq(t *testing.T) {
	j := openTestJournal(t)

	seq1, err := j.Append(book.OrderAdded{Order: testOrder("o1"), RemainingAmount: 10})
	require.NoError(t, err)
	seq2, err := j.Append(book.OrderAdded{Order: testOrder("o2"), RemainingAmount: 10})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), seq1)
	assert.Equal(t, uint64(2), seq2)
}

func TestJournalReplayRecoversEveryAppendedEvent(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	require.NoError(t, err)

	_, err = j.Append(book.OrderAdded{Order: testOrder("o1"), RemainingAmount: 10})
	require.NoError(t, err)
	_, err = j.Append(book.OrderCanceled{Pair: testPair(), OrderID: "o1"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	var replayed []book.Event
	lastSeq, err := Replay(dir, 0, func(seq uint64, ev book.Event) error {
		replayed = append(replayed, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), lastSeq)
	require.Len(t, replayed, 2)
	assert.IsType(t, book.OrderAdded{}, replayed[0])
	assert.IsType(t, book.OrderCanceled{}, replayed[1])
}

func TestJournalReplaySkipsEverythingAtOrBeforeAfter(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	require.NoError(t, err)

	_, _ = j.Append(book.OrderAdded{Order: testOrder("o1"), RemainingAmount: 10})
	_, _ = j.Append(book.OrderAdded{Order: testOrder("o2"), RemainingAmount: 10})
	require.NoError(t, j.Close())

	var count int
	lastSeq, err := Replay(dir, 1, func(seq uint64, ev book.Event) error {
		count++
		assert.Greater(t, seq, uint64(1))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(2), lastSeq)
}

func TestJournalResumeAfterRebasesSequence(t *testing.T) {
	j := openTestJournal(t)
	j.ResumeAfter(41)
	assert.Equal(t, uint64(42), j.NextSeq())

	seq, err := j.Append(book.OrderAdded{Order: testOrder("o1"), RemainingAmount: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)
}

func TestJournalTruncateBeforeDeletesOldSegments(t *testing.T) {
	dir := t.TempDir()
	// tiny segment size forces a rotation on every append.
	j, err := Open(Config{Dir: dir, SegmentSize: 1})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := j.Append(book.OrderAdded{Order: testOrder("o"), RemainingAmount: 10})
		require.NoError(t, err)
	}
	require.NoError(t, j.TruncateBefore(3))
	require.NoError(t, j.Close())

	var seen []uint64
	_, err = Replay(dir, 0, func(seq uint64, ev book.Event) error {
		seen = append(seen, seq)
		return nil
	})
	require.NoError(t, err)
	for _, seq := range seen {
		assert.Greater(t, seq, uint64(3))
	}
}
