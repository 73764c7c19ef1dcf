package book

// Book holds one trading pair's bid and ask ladders plus an order-id
// index for O(1) cancel-by-id, the same split of responsibilities as
// the teacher's domain/orderbook.OrderBook, generalized from an int64
// price key to this package's uint64 price and Level types.
type Book struct {
	Pair Pair

	bids *rbTree // descending priority: highest price first
	asks *rbTree // ascending priority: lowest price first

	orders map[string]*indexEntry
}

type indexEntry struct {
	side Side
	node *restingNode
	lvl  *Level
}

func NewBook(pair Pair) *Book {
	return &Book{
		Pair:   pair,
		bids:   newRBTree(),
		asks:   newRBTree(),
		orders: make(map[string]*indexEntry),
	}
}

func (b *Book) sideTree(s Side) *rbTree {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// Add rests lo in the book on the given side. The caller (the matcher)
// is responsible for having already consumed whatever portion of the
// order crossed the book before resting the remainder.
func (b *Book) Add(side Side, lo LimitOrder) {
	lvl := b.sideTree(side).GetOrCreate(lo.Order.Price)
	n := &restingNode{lo: lo}
	lvl.enqueue(n)
	b.orders[lo.Order.ID] = &indexEntry{side: side, node: n, lvl: lvl}
}

// RemoveByID removes and returns the resting order with id, if any.
// It is the only path by which a level can become empty and is
// pruned from its tree, preserving the invariant that every indexed
// level has at least one resting order.
func (b *Book) RemoveByID(id string) (LimitOrder, bool) {
	e, ok := b.orders[id]
	if !ok {
		return LimitOrder{}, false
	}
	lo := e.node.lo
	e.lvl.unlink(e.node)
	delete(b.orders, id)
	if e.lvl.Empty() {
		b.sideTree(e.side).Delete(e.lvl.Price)
	}
	return lo, true
}

// Lookup returns the resting order with id without removing it.
func (b *Book) Lookup(id string) (LimitOrder, bool) {
	e, ok := b.orders[id]
	if !ok {
		return LimitOrder{}, false
	}
	return e.node.lo, true
}

// BestCounter returns the best resting order available to cross
// against an incoming order on side s — i.e. the head of the
// best-priced level on the opposite side — or ok=false if that side
// is empty.
func (b *Book) BestCounter(s Side) (LimitOrder, bool) {
	counterTree := b.sideTree(s.Opposite())
	var lvl *Level
	if s == Buy {
		// a buy crosses asks, best ask is the lowest price
		lvl = counterTree.Min()
	} else {
		// a sell crosses bids, best bid is the highest price
		lvl = counterTree.Max()
	}
	if lvl == nil {
		return LimitOrder{}, false
	}
	return lvl.Head()
}

// ReplaceHead swaps the value of the best counter-order for side s's
// opposite in place, preserving its queue position, per spec §4.1's
// replace_head. The caller must have already established that the
// head's id still matches newLo.Order.ID.
func (b *Book) ReplaceHead(s Side, newLo LimitOrder) {
	counterTree := b.sideTree(s.Opposite())
	var lvl *Level
	if s == Buy {
		lvl = counterTree.Min()
	} else {
		lvl = counterTree.Max()
	}
	if lvl == nil {
		return
	}
	lvl.replaceHead(newLo)
	if e, ok := b.orders[newLo.Order.ID]; ok {
		e.node.lo = newLo
	}
	if lvl.Empty() {
		counterTree.Delete(lvl.Price)
	}
}

// RemoveHead removes and returns the counter-order at the head of the
// best opposite-side level, used once a fill exhausts it entirely.
func (b *Book) RemoveHead(s Side) (LimitOrder, bool) {
	counterTree := b.sideTree(s.Opposite())
	var lvl *Level
	if s == Buy {
		lvl = counterTree.Min()
	} else {
		lvl = counterTree.Max()
	}
	if lvl == nil {
		return LimitOrder{}, false
	}
	lo, ok := lvl.Head()
	if !ok {
		return LimitOrder{}, false
	}
	return b.RemoveByID(lo.Order.ID)
}

// BestBid and BestAsk expose the top-of-book price/quantity for
// market-status queries.
func (b *Book) BestBid() (price, remaining uint64, ok bool) {
	lvl := b.bids.Max()
	if lvl == nil {
		return 0, 0, false
	}
	return lvl.Price, lvl.TotalRemaining, true
}

func (b *Book) BestAsk() (price, remaining uint64, ok bool) {
	lvl := b.asks.Min()
	if lvl == nil {
		return 0, 0, false
	}
	return lvl.Price, lvl.TotalRemaining, true
}

// LevelSnapshot is one row of an order-book depth payload.
type LevelSnapshot struct {
	Price     uint64
	Amount    uint64
	NumOrders int
}

// Bids returns up to depth price levels, best (highest) first.
func (b *Book) Bids(depth int) []LevelSnapshot {
	return snapshotSide(b.bids, depth, true)
}

// Asks returns up to depth price levels, best (lowest) first.
func (b *Book) Asks(depth int) []LevelSnapshot {
	return snapshotSide(b.asks, depth, false)
}

func snapshotSide(t *rbTree, depth int, descending bool) []LevelSnapshot {
	out := make([]LevelSnapshot, 0, depth)
	visit := func(lvl *Level) bool {
		out = append(out, LevelSnapshot{Price: lvl.Price, Amount: lvl.TotalRemaining, NumOrders: lvl.Count})
		return len(out) < depth
	}
	if descending {
		t.Descending(visit)
	} else {
		t.Ascending(visit)
	}
	return out
}

// Orders returns every resting order in the book, in no particular
// order, for snapshot encoding.
func (b *Book) Orders() []LimitOrder {
	out := make([]LimitOrder, 0, len(b.orders))
	for _, e := range b.orders {
		out = append(out, e.node.lo)
	}
	return out
}

// Apply folds one journaled/published event into book state. It is
// used both by live processing (immediately after the matcher
// produces the event) and by recovery (replaying the journal from the
// last snapshot), and must be deterministic: replaying the same event
// log from the same starting state always reaches the same book.
func (b *Book) Apply(ev Event) {
	switch e := ev.(type) {
	case OrderAdded:
		side := e.Order.Side
		lo := LimitOrder{Order: e.Order, RemainingAmount: e.RemainingAmount, PaidFee: e.PaidFee}
		if lo.RemainingAmount > 0 {
			b.Add(side, lo)
		}
	case OrderExecuted:
		b.applyExecuted(e)
	case OrderCanceled:
		b.RemoveByID(e.OrderID)
	}
}

// applyExecuted only ever touches the counter side: the submitted
// order is never resting in the book while its own match loop is
// running (it is only added, if at all, once the loop ends with
// Outcome==Add), so there is nothing indexed under e.SubmittedID to
// update here during live processing or replay.
func (b *Book) applyExecuted(e OrderExecuted) {
	if counter, ok := b.Lookup(e.CounterID); ok {
		newRemaining := counter.RemainingAmount - e.CounterFilled
		newCounter := LimitOrder{Order: counter.Order, RemainingAmount: newRemaining, PaidFee: counter.PaidFee + e.CounterFee}
		if newRemaining == 0 {
			b.RemoveByID(e.CounterID)
		} else {
			b.ReplaceHead(e.SubmittedSide, newCounter)
		}
	}
}
