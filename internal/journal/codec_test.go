package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

func testPair() book.Pair { return book.Pair{AmountAsset: "BTC", PriceAsset: "USD"} }

func TestEncodeDecodeEventRoundTrips(t *testing.T) {
	cases := []book.Event{
		book.OrderAdded{
			Order: &book.Order{
				ID: "o1", SenderKey: []byte{1, 2, 3}, Pair: testPair(),
				Side: book.Buy, Type: book.Limit, Amount: 10, Price: 100,
				Timestamp: 1, Expiration: 999, MatcherFee: 5, Version: 1,
				Signature: []byte{9, 9},
			},
			RemainingAmount: 10,
			PaidFee:         0,
		},
		book.OrderExecuted{
			Pair: testPair(), SubmittedID: "a", SubmittedSide: book.Buy,
			SubmittedFilled: 4, SubmittedFee: 1, CounterID: "b",
			CounterFilled: 4, CounterFee: 2, Price: 100, Amount: 4, Timestamp: 2,
		},
		book.OrderCanceled{
			Pair: testPair(), OrderID: "c", Side: book.Sell,
			RemainingFee: 3, Unmatchable: true, Timestamp: 3,
		},
	}

	for _, ev := range cases {
		encoded, err := EncodeEvent(ev)
		require.NoError(t, err)

		decoded, err := DecodeEvent(encoded)
		require.NoError(t, err)
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeEventEmptyPayloadErrors(t *testing.T) {
	_, err := DecodeEvent(nil)
	assert.Error(t, err)
}
