package bookcore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/journal"
	"github.com/dexmatcher/matcher-core/internal/logging"
)

// recover implements spec §4.3's Recovery: load the latest snapshot (if
// any), install it as the book's starting state, rebase the journal's
// sequence generator past it, then replay every journal record after
// that point — applying each directly to the book, bypassing the
// matcher and InvalidTxPolicy entirely, since these events already
// cleared that gate once before crash/restart. Only after the book is
// fully caught up does the journal start accepting new Appends.
func (c *Core) recover(recoverOrderHistory bool) error {
	snap, ok, err := c.snapshots.LoadLatest()
	if err != nil {
		return errors.Wrap(err, "bookcore: snapshot load failed")
	}

	startSeq := uint64(0)
	if ok {
		startSeq = snap.Seq
		for _, e := range snap.Orders {
			order := e.Order
			lo := book.LimitOrder{Order: &order, RemainingAmount: e.RemainingAmount, PaidFee: e.PaidFee}
			if lo.RemainingAmount > 0 {
				c.book.Add(order.Side, lo)
			}
		}
	}

	lastSeq, err := journal.Replay(c.journal.Dir(), startSeq, func(seq uint64, ev book.Event) error {
		c.book.Apply(ev)
		if exec, isExec := ev.(book.OrderExecuted); isExec {
			c.recoverLastTrade(exec)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "bookcore: journal replay failed")
	}

	c.journal.ResumeAfter(lastSeq)

	if recoverOrderHistory {
		c.republishRestingOrders()
	}

	c.log.Info("recovery complete",
		logging.F("pair", c.pair.Canonical()),
		logging.F("snapshot_seq", startSeq),
		logging.F("resume_seq", lastSeq),
		logging.F("resting_orders", len(c.book.Orders())),
	)
	return nil
}

// recoverLastTrade mirrors Core.recordLastTrade during replay, where
// there is no live aggressor *book.Order pointer to reuse — the
// submitted side of the executed event stands in for it, constructed
// well enough to answer GetMarketStatus's last-trade fields.
func (c *Core) recoverLastTrade(e book.OrderExecuted) {
	c.lastTrade = &book.Order{ID: e.SubmittedID, Pair: e.Pair, Side: e.SubmittedSide, Price: e.Price}
	c.lastTradeSide = e.SubmittedSide
	c.hasLastTrade = true
}

// republishRestingOrders re-announces every order recovery left
// resting, per spec §4.3's recover_order_history option — downstream
// consumers that only persist live state from the event bus (rather
// than replaying the journal themselves) need these OrderAdded events
// republished after a restart or they silently lose track of them.
func (c *Core) republishRestingOrders() {
	for _, lo := range c.book.Orders() {
		ev := book.OrderAdded{
			Order:           lo.Order,
			RemainingAmount: lo.RemainingAmount,
			PaidFee:         lo.PaidFee,
		}
		if err := c.bus.Publish(context.Background(), c.pair, ev); err != nil {
			c.log.Warn("recovery: republish failed", logging.F("order_id", lo.Order.ID), logging.F("error", err.Error()))
		}
	}
}
