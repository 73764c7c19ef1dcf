package bookcore

import (
	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/domain/matcher"
	"github.com/dexmatcher/matcher-core/internal/logging"
	"github.com/dexmatcher/matcher-core/internal/metrics"
	"github.com/dexmatcher/matcher-core/internal/txbuilder"
)

// matchLoop implements spec §4.3's match loop: repeatedly call
// Matcher.MatchOne, handle whatever it decided, and continue with the
// new submitted remainder until the order rests, is fully filled, or
// its type forbids resting. It is invoked after Place has already
// replied OrderAccepted — nothing here can change that reply.
func (c *Core) matchLoop(order *book.Order, now uint64) {
	submitted := book.NewLimitOrder(order)

	if order.Type == book.FOK {
		available := c.book.AvailableLiquidity(order.Side, order.Price, false, now)
		if available < order.Amount {
			c.log.Debug("FOK rejected: insufficient resting liquidity", logging.F("order_id", order.ID))
			return
		}
	}

	iterations := 0
	for {
		iterations++
		res := matcher.MatchOne(c.book, submitted, now)

		switch res.Outcome {
		case matcher.SkipExpired:
			// processEvent journals the OrderCanceled first, then applies
			// it to the book via Apply's RemoveByID — never evict the
			// expired counter from the live book ahead of the journal
			// ack, or a failed Append leaves live state diverged from
			// durable state until the next restart repairs it.
			if err := c.processEvent(res.Event); err != nil {
				metrics.MatchLoopIterations.Observe(float64(iterations))
				return
			}
			metrics.OrdersCanceled.WithLabelValues(c.pair.Canonical(), "expired").Inc()
			continue

		case matcher.Add:
			c.handleAddOutcome(order, submitted)
			metrics.MatchLoopIterations.Observe(float64(iterations))
			return

		case matcher.Execute:
			stop, next := c.handleExecuteOutcome(order, submitted, res, now)
			if stop {
				metrics.MatchLoopIterations.Observe(float64(iterations))
				return
			}
			submitted = next
			continue
		}
	}
}

// handleAddOutcome decides whether submitted rests or is dropped
// because its type forbids resting (Market, IOC; FOK never reaches
// here unfilled, because of the pre-loop liquidity check above).
func (c *Core) handleAddOutcome(order *book.Order, submitted book.LimitOrder) {
	switch order.Type {
	case book.Market, book.IOC, book.FOK:
		return // nothing to rest; the unfilled remainder is simply dropped
	default: // Limit, PostOnly
		_ = c.processEvent(book.OrderAdded{
			Order:           order,
			RemainingAmount: submitted.RemainingAmount,
			PaidFee:         submitted.PaidFee,
		})
	}
}

// handleExecuteOutcome attempts to build and admit the trade
// transaction for one execution step against res.CounterBefore. It
// returns stop=true when the match loop should end here (submitted
// fully filled, or InvalidTxPolicy aborted the match), and otherwise
// the LimitOrder value the loop should continue matching with — the
// post-fill remainder on success, or the original unchanged submitted
// if the attempt was rejected and only the counter was evicted.
func (c *Core) handleExecuteOutcome(order *book.Order, submitted book.LimitOrder, res matcher.Result, now uint64) (stop bool, next book.LimitOrder) {
	exec := res.Event.(book.OrderExecuted)

	tx, verr := c.txBuilder.Build(exec)
	if verr == nil {
		verr = c.utx.PutIfNew(tx)
	}

	if verr == nil {
		if _, err := c.outbox.PutIfNew(tx.ID, tx.Payload); err != nil {
			c.log.Warn("outbox put failed", logging.F("tx_id", tx.ID), logging.F("error", err.Error()))
		}
		if err := c.processEvent(exec); err != nil {
			return true, submitted
		}
		c.recordLastTrade(order)

		if res.SubmittedRemaining.RemainingAmount == 0 {
			return true, res.SubmittedRemaining
		}
		if !res.SubmittedRemaining.IsValid(now) {
			_ = c.processEvent(book.OrderCanceled{
				Pair:         c.pair,
				OrderID:      order.ID,
				Side:         order.Side,
				RemainingFee: res.SubmittedRemaining.RemainingFee(),
				Unmatchable:  true,
				Timestamp:    now,
			})
			return true, res.SubmittedRemaining
		}
		return false, res.SubmittedRemaining
	}

	metrics.InvalidTx.WithLabelValues(c.pair.Canonical(), invalidTxKindLabel(verr.Kind)).Inc()
	outcome := applyInvalidTxPolicy(verr, submitted, res.CounterBefore)

	if outcome.cancelCounter {
		_ = c.processEvent(book.OrderCanceled{
			Pair:         c.pair,
			OrderID:      res.CounterBefore.Order.ID,
			Side:         res.CounterBefore.Order.Side,
			RemainingFee: res.CounterBefore.RemainingFee(),
			Unmatchable:  outcome.counterUnmatchable,
			Timestamp:    now,
		})
		metrics.OrdersCanceled.WithLabelValues(c.pair.Canonical(), "invalid_tx").Inc()
	}
	if outcome.cancelSubmitted {
		_ = c.processEvent(book.OrderCanceled{
			Pair:         c.pair,
			OrderID:      order.ID,
			Side:         order.Side,
			RemainingFee: submitted.RemainingFee(),
			Unmatchable:  outcome.submittedUnmatchable,
			Timestamp:    now,
		})
		metrics.OrdersCanceled.WithLabelValues(c.pair.Canonical(), "invalid_tx").Inc()
	}

	// submitted itself was never journaled by this attempt, so if the
	// match continues it continues with the same value it had before
	// this step — not res.SubmittedRemaining, which only describes the
	// fill that was rejected.
	return outcome.abort, submitted
}

func invalidTxKindLabel(k txbuilder.ErrorKind) string {
	switch k {
	case txbuilder.KindOrderValidationSubmitted:
		return "order_validation_submitted"
	case txbuilder.KindOrderValidationCounter:
		return "order_validation_counter"
	case txbuilder.KindAccountBalance:
		return "account_balance"
	case txbuilder.KindNegativeAmount:
		return "negative_amount"
	default:
		return "other"
	}
}
