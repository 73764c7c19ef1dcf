package txbuilder

import "github.com/dexmatcher/matcher-core/internal/domain/book"

// PassthroughBuilder is the default Builder wired into cmd/matcherd:
// real transaction signing and on-chain submission are explicitly
// out of scope for the order-matching core (spec §1's "UTX — treated
// as an opaque sink"), so this just packages each execution into a Tx
// with a fresh id and no payload, never rejecting. Deployments that
// need real signing swap this for their own Builder.
type PassthroughBuilder struct{}

func (PassthroughBuilder) Build(ev book.OrderExecuted) (*Tx, *ValidationError) {
	return &Tx{
		ID:           NewTxID(),
		Pair:         ev.Pair,
		Price:        ev.Price,
		Amount:       ev.Amount,
		SubmittedID:  ev.SubmittedID,
		CounterID:    ev.CounterID,
		SubmittedFee: ev.SubmittedFee,
		CounterFee:   ev.CounterFee,
		Timestamp:    ev.Timestamp,
	}, nil
}

// AcceptAllUTX is the default UTX admission sink: it accepts every
// transaction and keeps no record of ids, so a repeated id is accepted
// again. Real deployments back this with their own
// mempool admission logic; nothing in the order-matching core depends
// on more than put_if_new's idempotency contract.
type AcceptAllUTX struct{}

func (AcceptAllUTX) PutIfNew(tx *Tx) *ValidationError { return nil }
