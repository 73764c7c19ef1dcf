package book

// AvailableLiquidity sums remaining amount across every level on the
// opposite side of s that submitted could legally cross at limitPrice
// (or any price, for a market order — pass limitPrice = highest/lowest
// possible and it still stops only on book exhaustion), excluding any
// resting order already expired as of now. Used for the FOK pre-check:
// grounded on the teacher's OrderBook.checkLiquidity, which dry-runs
// the same walk before committing to a fill. The expiry filter matters
// here specifically: MatchOne evicts an expired counter as SkipExpired
// rather than filling against it, so liquidity it can't actually use
// must not count toward a fill-or-kill decision.
func (b *Book) AvailableLiquidity(s Side, limitPrice uint64, marketOrder bool, now uint64) uint64 {
	var available uint64
	visit := func(lvl *Level) bool {
		if !marketOrder {
			if s == Buy && lvl.Price > limitPrice {
				return false
			}
			if s == Sell && lvl.Price < limitPrice {
				return false
			}
		}
		lvl.Each(func(lo LimitOrder) {
			if lo.IsValid(now) {
				available += lo.RemainingAmount
			}
		})
		return true
	}
	if s == Buy {
		b.asks.Ascending(visit)
	} else {
		b.bids.Descending(visit)
	}
	return available
}
