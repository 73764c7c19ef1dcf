package snapshotstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

func testPair() book.Pair { return book.Pair{AmountAsset: "BTC", PriceAsset: "USD"} }

func testBook(t *testing.T) *book.Book {
	t.Helper()
	b := book.NewBook(testPair())
	b.Add(book.Buy, book.NewLimitOrder(&book.Order{
		ID: "o1", Pair: testPair(), Side: book.Buy, Type: book.Limit,
		Amount: 10, Price: 100, Expiration: 999, MatcherFee: 5,
	}))
	return b
}

func TestLoadLatestWithNoSnapshotsIsNotAnError(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.LoadLatest()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveThenLoadLatestRoundTrips(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	b := testBook(t)

	require.NoError(t, s.Save(10, b))

	snap, ok, err := s.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(10), snap.Seq)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "o1", snap.Orders[0].Order.ID)
}

func TestLoadLatestPicksHighestSeq(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	b := testBook(t)

	require.NoError(t, s.Save(5, b))
	require.NoError(t, s.Save(20, b))
	require.NoError(t, s.Save(12, b))

	snap, ok, err := s.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(20), snap.Seq)
}

func TestDeleteBelowRemovesOlderSnapshotsOnly(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	b := testBook(t)

	require.NoError(t, s.Save(5, b))
	require.NoError(t, s.Save(10, b))
	require.NoError(t, s.Save(15, b))

	require.NoError(t, s.DeleteBelow(10))

	snap, ok, err := s.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(15), snap.Seq)
}
