// Package bookcore is the serializing driver described in spec §4.3:
// one actor per trading pair, commands arriving on a single mailbox,
// each Place driving the matcher in a loop that journals every
// resulting event before applying it to the book and publishing it.
// Grounded on the teacher's service.OrderService as "the ONLY write
// entry point," generalized from its single fixed Place/Snapshot pair
// of operations to the full command surface spec §4.3 and §6 name.
package bookcore

import (
	"context"
	"fmt"
	"time"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/eventbus"
	"github.com/dexmatcher/matcher-core/internal/journal"
	"github.com/dexmatcher/matcher-core/internal/logging"
	"github.com/dexmatcher/matcher-core/internal/metrics"
	"github.com/dexmatcher/matcher-core/internal/snapshotstore"
	"github.com/dexmatcher/matcher-core/internal/txbuilder"
	"github.com/dexmatcher/matcher-core/internal/txoutbox"
)

// Options configures a Core for one pair.
type Options struct {
	Pair Options_Pair

	SnapshotInterval uint64
	MaxPrice         uint64 // 0 ⇒ unbounded
	MinPrice         uint64
	PriceTick        uint64 // 0 ⇒ unconstrained
	MailboxCapacity  int

	RecoverOrderHistory bool

	Journal   *journal.Journal
	Snapshots *snapshotstore.Store
	Bus       eventbus.Bus
	TxBuilder txbuilder.Builder
	UTX       txbuilder.UTX
	Outbox    *txoutbox.Outbox

	Log *logging.Logger

	// Now returns the current time as a unix-second count; overridable
	// for deterministic tests.
	Now func() uint64
}

// Options_Pair avoids an import cycle concern at call sites that would
// otherwise need to name book.Pair twice; it is exactly book.Pair.
type Options_Pair = book.Pair

// Core owns one pair's Book, Journal, and SnapshotStore, and is the
// only goroutine that ever mutates them.
type Core struct {
	pair book.Pair
	book *book.Book

	journal   *journal.Journal
	snapshots *snapshotstore.Store
	bus       eventbus.Bus
	txBuilder txbuilder.Builder
	utx       txbuilder.UTX
	outbox    *txoutbox.Outbox

	snapshotInterval uint64
	maxPrice         uint64
	minPrice         uint64
	priceTick        uint64

	log *logging.Logger
	now func() uint64

	lastTrade     *book.Order
	lastTradeSide book.Side
	hasLastTrade  bool

	mailbox chan command
	stopped chan struct{}
}

func defaultNow() uint64 { return uint64(time.Now().Unix()) }

// New builds a Core for opts.Pair and runs recovery (snapshot load +
// journal replay) before returning, so a Core is always ready to
// accept commands the moment it is constructed.
func New(opts Options) (*Core, error) {
	if opts.Now == nil {
		opts.Now = defaultNow
	}
	if opts.MailboxCapacity <= 0 {
		opts.MailboxCapacity = 4096
	}

	c := &Core{
		pair:             opts.Pair,
		book:             book.NewBook(opts.Pair),
		journal:          opts.Journal,
		snapshots:        opts.Snapshots,
		bus:              opts.Bus,
		txBuilder:        opts.TxBuilder,
		utx:              opts.UTX,
		outbox:           opts.Outbox,
		snapshotInterval: opts.SnapshotInterval,
		maxPrice:         opts.MaxPrice,
		minPrice:         opts.MinPrice,
		priceTick:        opts.PriceTick,
		log:              opts.Log,
		now:              opts.Now,
		mailbox:          make(chan command, opts.MailboxCapacity),
		stopped:          make(chan struct{}),
	}
	if c.log == nil {
		c.log = logging.NewNop()
	}

	if err := c.recover(opts.RecoverOrderHistory); err != nil {
		return nil, err
	}
	return c, nil
}

// Run processes commands until ctx is canceled or the actor receives
// a DeleteBook.
func (c *Core) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopped:
			return
		case cmd := <-c.mailbox:
			c.dispatch(cmd)
		}
	}
}

func (c *Core) dispatch(cmd command) {
	switch cc := cmd.(type) {
	case placeCmd:
		c.handlePlace(cc)
	case cancelCmd:
		c.handleCancel(cc)
	case cleanupCmd:
		c.handleCleanup(cc)
	case deleteBookCmd:
		c.handleDeleteBook(cc)
	case saveSnapshotCmd:
		c.saveSnapshot(c.journal.NextSeq() - 1)
	case getOrdersCmd:
		cc.reply <- GetOrdersResponse{Orders: c.book.Orders()}
	case getOrderBookCmd:
		cc.reply <- GetOrderBookResponse{
			Pair:      c.pair,
			Timestamp: c.now(),
			Bids:      c.book.Bids(cc.depth),
			Asks:      c.book.Asks(cc.depth),
		}
	case getMarketStatusCmd:
		cc.reply <- c.marketStatus()
	}
}

/* ---------------- client-facing API ---------------- */

// Place submits order and blocks until it has been accepted or
// rejected; acceptance is independent of whether any execution it
// triggers later succeeds downstream.
func (c *Core) Place(ctx context.Context, order *book.Order) (*OrderAccepted, error) {
	reply := make(chan placeResult, 1)
	select {
	case c.mailbox <- placeCmd{order: order, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.accepted, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests removal of a resting order by id.
func (c *Core) Cancel(ctx context.Context, orderID string) (*OrderCanceledReply, *OrderCancelRejected, error) {
	reply := make(chan cancelResult, 1)
	select {
	case c.mailbox <- cancelCmd{orderID: orderID, reply: reply}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.ok, res.rejected, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Cleanup asks the actor to scan for and evict expired resting
// orders. Fire-and-forget: the caller (a timer) does not wait for
// completion.
func (c *Core) Cleanup(now uint64) {
	select {
	case c.mailbox <- cleanupCmd{now: now}:
	default:
		c.log.Warn("cleanup dropped: mailbox full")
	}
}

// DeleteBook drains the book and stops the actor. It is terminal: no
// further commands are processed after it completes.
func (c *Core) DeleteBook(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case c.mailbox <- deleteBookCmd{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Core) GetOrders(ctx context.Context) (GetOrdersResponse, error) {
	reply := make(chan GetOrdersResponse, 1)
	select {
	case c.mailbox <- getOrdersCmd{reply: reply}:
	case <-ctx.Done():
		return GetOrdersResponse{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return GetOrdersResponse{}, ctx.Err()
	}
}

func (c *Core) GetOrderBook(ctx context.Context, depth int) (GetOrderBookResponse, error) {
	reply := make(chan GetOrderBookResponse, 1)
	select {
	case c.mailbox <- getOrderBookCmd{depth: depth, reply: reply}:
	case <-ctx.Done():
		return GetOrderBookResponse{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return GetOrderBookResponse{}, ctx.Err()
	}
}

func (c *Core) GetMarketStatus(ctx context.Context) (GetMarketStatusResponse, error) {
	reply := make(chan GetMarketStatusResponse, 1)
	select {
	case c.mailbox <- getMarketStatusCmd{reply: reply}:
	case <-ctx.Done():
		return GetMarketStatusResponse{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return GetMarketStatusResponse{}, ctx.Err()
	}
}

func (c *Core) marketStatus() GetMarketStatusResponse {
	var res GetMarketStatusResponse
	if c.hasLastTrade {
		res.HasLastTrade = true
		res.LastPrice = c.lastTrade.Price
		res.LastSide = c.lastTradeSide
	}
	if price, amount, ok := c.book.BestBid(); ok {
		res.HasBid = true
		res.Bid = price
		res.BidAmount = amount
	}
	if price, amount, ok := c.book.BestAsk(); ok {
		res.HasAsk = true
		res.Ask = price
		res.AskAmount = amount
	}
	return res
}

/* ---------------- command handlers ---------------- */

func (c *Core) handlePlace(cmd placeCmd) {
	order := cmd.order
	now := c.now()

	if order.ExpiredAt(now) {
		cmd.reply <- placeResult{err: fmt.Errorf("bookcore: order %s already expired", order.ID)}
		return
	}
	if !c.validPrice(order.Price) {
		cmd.reply <- placeResult{err: fmt.Errorf("bookcore: order %s price out of bounds", order.ID)}
		return
	}

	cmd.reply <- placeResult{accepted: &OrderAccepted{OrderID: order.ID}}
	metrics.OrdersPlaced.WithLabelValues(c.pair.Canonical()).Inc()

	c.matchLoop(order, now)
}

func (c *Core) validPrice(price uint64) bool {
	if c.maxPrice != 0 && price > c.maxPrice {
		return false
	}
	if c.minPrice != 0 && price < c.minPrice {
		return false
	}
	if c.priceTick > 1 && price%c.priceTick != 0 {
		return false
	}
	return true
}

func (c *Core) handleCancel(cmd cancelCmd) {
	lo, ok := c.book.Lookup(cmd.orderID)
	if !ok {
		cmd.reply <- cancelResult{rejected: &OrderCancelRejected{OrderID: cmd.orderID, Reason: "Order not found"}}
		return
	}

	ev := book.OrderCanceled{
		Pair:         c.pair,
		OrderID:      cmd.orderID,
		Side:         lo.Order.Side,
		RemainingFee: lo.RemainingFee(),
		Unmatchable:  false,
		Timestamp:    c.now(),
	}
	if err := c.processEvent(ev); err != nil {
		cmd.reply <- cancelResult{rejected: &OrderCancelRejected{OrderID: cmd.orderID, Reason: "persistence error"}}
		return
	}
	metrics.OrdersCanceled.WithLabelValues(c.pair.Canonical(), "user").Inc()
	cmd.reply <- cancelResult{ok: &OrderCanceledReply{OrderID: cmd.orderID}}
}

func (c *Core) handleCleanup(cmd cleanupCmd) {
	for _, lo := range c.book.Orders() {
		if lo.IsValid(cmd.now) {
			continue
		}
		ev := book.OrderCanceled{
			Pair:         c.pair,
			OrderID:      lo.Order.ID,
			Side:         lo.Order.Side,
			RemainingFee: lo.RemainingFee(),
			Unmatchable:  true,
			Timestamp:    cmd.now,
		}
		if err := c.processEvent(ev); err != nil {
			c.log.Warn("cleanup: failed to journal expiry cancel", logging.F("order_id", lo.Order.ID), logging.F("error", err.Error()))
			continue
		}
		metrics.OrdersCanceled.WithLabelValues(c.pair.Canonical(), "expired").Inc()
	}
}

// handleDeleteBook drains the book per spec §4.3: published but not
// individually journaled, since the truncation below is the record.
// This is intentionally terminal; §9 notes replay cannot reconstruct
// past a DeleteBook.
func (c *Core) handleDeleteBook(cmd deleteBookCmd) {
	now := c.now()
	for _, lo := range c.book.Orders() {
		ev := book.OrderCanceled{
			Pair:         c.pair,
			OrderID:      lo.Order.ID,
			Side:         lo.Order.Side,
			RemainingFee: lo.RemainingFee(),
			Unmatchable:  false,
			Timestamp:    now,
		}
		_ = c.bus.Publish(context.Background(), c.pair, ev)
	}

	seq := c.journal.NextSeq() - 1
	if err := c.journal.TruncateBefore(seq); err != nil {
		c.log.Warn("delete book: journal truncate failed", logging.F("error", err.Error()))
	}
	if err := c.snapshots.DeleteBelow(seq + 1); err != nil {
		c.log.Warn("delete book: snapshot cleanup failed", logging.F("error", err.Error()))
	}

	close(c.stopped)
	close(cmd.done)
}

func (c *Core) saveSnapshot(seq uint64) {
	start := time.Now()
	if err := c.snapshots.Save(seq, c.book); err != nil {
		c.log.Error(fmt.Errorf("bookcore: snapshot write failed: %w", err))
		return // failures are logged and do not block further operation
	}
	metrics.SnapshotDuration.WithLabelValues(c.pair.Canonical()).Observe(time.Since(start).Seconds())

	if err := c.journal.TruncateBefore(seq); err != nil {
		c.log.Warn("snapshot: journal truncate failed", logging.F("error", err.Error()))
	}
	if err := c.snapshots.DeleteBelow(seq); err != nil {
		c.log.Warn("snapshot: old snapshot cleanup failed", logging.F("error", err.Error()))
	}
}

// processEvent is spec §4.3's process_event: append to the journal
// (durable, strict write-ahead), apply to the book, publish, and then,
// if the appended sequence number is a multiple of snapshotInterval,
// write a snapshot at that sequence. The apply step never runs unless
// the journal accepted the write first.
func (c *Core) processEvent(e book.Event) error {
	start := time.Now()
	seq, err := c.journal.Append(e)
	metrics.JournalAppendDuration.WithLabelValues(c.pair.Canonical()).Observe(time.Since(start).Seconds())
	if err != nil {
		c.log.Error(fmt.Errorf("bookcore: journal append failed: %w", err))
		return err
	}

	c.book.Apply(e)

	if _, ok := e.(book.OrderExecuted); ok {
		metrics.TradesExecuted.WithLabelValues(c.pair.Canonical()).Inc()
	}

	if err := c.bus.Publish(context.Background(), c.pair, e); err != nil {
		c.log.Warn("event bus publish failed", logging.F("error", err.Error()))
	}

	if c.snapshotInterval > 0 && seq%c.snapshotInterval == 0 {
		c.saveSnapshot(seq)
	}
	return nil
}

// recordLastTrade is called by the match loop, which still holds the
// submitted Order pointer regardless of whether the fill emptied it
// out of the book's index.
func (c *Core) recordLastTrade(aggressor *book.Order) {
	c.lastTrade = aggressor
	c.lastTradeSide = aggressor.Side
	c.hasLastTrade = true
}
