package book

// Event is the append-only record of everything that happens to a
// book. The matcher and the policy layer never mutate the book
// directly; they produce events, which Apply folds into state. That
// split is what makes journal replay and snapshot-then-replay
// reconstruct identical state.
type Event interface {
	// EventPair is the market the event belongs to, used to route
	// replay into the right per-pair actor.
	EventPair() Pair
}

// OrderAdded records a new order entering the book, either resting in
// full (if it crossed nothing) or after matching has already consumed
// part of it.
type OrderAdded struct {
	Order           *Order
	RemainingAmount uint64
	PaidFee         uint64
}

func (e OrderAdded) EventPair() Pair { return e.Order.Pair }

// OrderExecuted records one fill between a submitted order and a
// resting counter-order. Price is the resting counter's price: trades
// always execute at the maker's price.
type OrderExecuted struct {
	Pair Pair

	SubmittedID     string
	SubmittedSide   Side
	SubmittedFilled uint64
	SubmittedFee    uint64

	CounterID     string
	CounterFilled uint64
	CounterFee    uint64

	Price     uint64
	Amount    uint64
	Timestamp uint64
}

func (e OrderExecuted) EventPair() Pair { return e.Pair }

// OrderCanceled records an order leaving the book without (further)
// execution. Unmatchable distinguishes the matcher auto-cancelling an
// order that can no longer cross (expired, or the remainder rejected
// by policy) from a user- or admin-initiated cancel.
type OrderCanceled struct {
	Pair         Pair
	OrderID      string
	Side         Side
	RemainingFee uint64
	Unmatchable  bool
	Timestamp    uint64
}

func (e OrderCanceled) EventPair() Pair { return e.Pair }
