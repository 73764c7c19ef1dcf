package bookcore

import "github.com/dexmatcher/matcher-core/internal/domain/book"

// OrderAccepted is returned synchronously from Place once the order
// has passed the expiry and price checks, before the match loop runs
// for it — acceptance is independent of whether
// any execution later succeeds or fails downstream (spec §7's
// propagation policy: trade-tx failures never surface to the
// placing client).
type OrderAccepted struct {
	OrderID string
}

// OrderCanceledReply confirms a user-initiated Cancel succeeded.
type OrderCanceledReply struct {
	OrderID string
}

// OrderCancelRejected is CancelMiss: the target id was not resting.
type OrderCancelRejected struct {
	OrderID string
	Reason  string
}

// GetOrdersResponse answers GetOrders with every currently resting
// order.
type GetOrdersResponse struct {
	Orders []book.LimitOrder
}

// GetOrderBookResponse answers GetBids/GetAsks with depth-limited,
// aggregated price levels.
type GetOrderBookResponse struct {
	Pair      book.Pair
	Timestamp uint64
	Bids      []book.LevelSnapshot
	Asks      []book.LevelSnapshot
}

// GetMarketStatusResponse is the stable market-status payload from
// spec §6: lastPrice/lastSide plus best-level aggregates. Zero values
// with Has* false map to a JSON null in the surrounding HTTP layer.
type GetMarketStatusResponse struct {
	HasLastTrade bool
	LastPrice    uint64
	LastSide     book.Side

	HasBid    bool
	Bid       uint64
	BidAmount uint64

	HasAsk    bool
	Ask       uint64
	AskAmount uint64
}
