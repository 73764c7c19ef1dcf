// Package matcher implements one step of the price-time priority
// matching decision: given a book and a submitted order, decide
// whether it crosses the best counter and produce the single event
// that follows. BookCore drives the loop, calling MatchOne again with
// the new remainder after each step — this mirrors spec §4.2 exactly
// ("the component returns a single event; the driver re-invokes it
// until no further Execute is produced") rather than the teacher's
// domain/orderbook.OrderBook.Place, which inlines the whole loop and
// mutates Order fields directly. The decision logic itself (maker
// price, min(remaining) trade size, ceiling-rounded fee) is grounded
// on that file's matchBid/matchAsk.
package matcher

import "github.com/dexmatcher/matcher-core/internal/domain/book"

// Outcome tags what MatchOne decided to do.
type Outcome uint8

const (
	// Add: nothing crosses (or the book side is empty); submitted
	// should rest, if its type allows resting.
	Add Outcome = iota
	// Execute: submitted crossed the best counter; Event is the
	// resulting OrderExecuted and SubmittedRemaining/CounterRemaining carry the
	// post-fill state of each side.
	Execute
	// SkipExpired: the best counter was found stale (expired) before
	// any fill happened against it; Event is its eviction cancel, and
	// the caller should evict it and call MatchOne again with the same
	// submitted order.
	SkipExpired
)

// Result is the outcome of one MatchOne call.
type Result struct {
	Outcome Outcome
	Event   book.Event

	// Populated when Outcome == Execute.
	CounterBefore      book.LimitOrder // the resting order as found, pre-fill
	SubmittedRemaining book.LimitOrder
	CounterRemaining   book.LimitOrder
	CounterFilled      bool // true if CounterRemaining.RemainingAmount == 0

	// Populated when Outcome == SkipExpired.
	ExpiredCounterID string
}

// MatchOne runs one decision of spec §4.2's table against b's
// opposite-side ladder for submitted, at time now.
func MatchOne(b *book.Book, submitted book.LimitOrder, now uint64) Result {
	side := submitted.Order.Side

	counter, ok := b.BestCounter(side)
	if !ok {
		return Result{Outcome: Add, Event: book.OrderAdded{
			Order:           submitted.Order,
			RemainingAmount: submitted.RemainingAmount,
			PaidFee:         submitted.PaidFee,
		}}
	}

	if !counter.IsValid(now) {
		return Result{
			Outcome: SkipExpired,
			Event: book.OrderCanceled{
				Pair:         b.Pair,
				OrderID:      counter.Order.ID,
				Side:         counter.Order.Side,
				RemainingFee: counter.RemainingFee(),
				Unmatchable:  true,
				Timestamp:    now,
			},
			ExpiredCounterID: counter.Order.ID,
		}
	}

	if !crosses(submitted.Order, counter) {
		return Result{Outcome: Add, Event: book.OrderAdded{
			Order:           submitted.Order,
			RemainingAmount: submitted.RemainingAmount,
			PaidFee:         submitted.PaidFee,
		}}
	}

	trade := submitted.RemainingAmount
	if counter.RemainingAmount < trade {
		trade = counter.RemainingAmount
	}

	execPrice := counter.Order.Price // maker price
	newSubmitted := submitted.Fill(trade)
	newCounter := counter.Fill(trade)

	return Result{
		Outcome: Execute,
		Event: book.OrderExecuted{
			Pair: b.Pair,

			SubmittedID:     submitted.Order.ID,
			SubmittedSide:   side,
			SubmittedFilled: trade,
			SubmittedFee:    newSubmitted.PaidFee - submitted.PaidFee,

			CounterID:     counter.Order.ID,
			CounterFilled: trade,
			CounterFee:    newCounter.PaidFee - counter.PaidFee,

			Price:     execPrice,
			Amount:    trade,
			Timestamp: now,
		},
		CounterBefore:       counter,
		SubmittedRemaining:  newSubmitted,
		CounterRemaining:    newCounter,
		CounterFilled:       newCounter.RemainingAmount == 0,
	}
}

// crosses reports whether submitted can still trade against counter
// at counter's resting price. Market orders cross any price; everyone
// else needs the usual limit-price overlap.
func crosses(submitted *book.Order, counter book.LimitOrder) bool {
	if submitted.Type == book.Market {
		return true
	}
	if submitted.Side == book.Buy {
		return submitted.Price >= counter.Order.Price
	}
	return submitted.Price <= counter.Order.Price
}
