// Package txbuilder defines the external TxBuilder/UTX contract
// BookCore's match loop calls after every OrderExecuted event, plus a
// google/uuid-based transaction id allocator. The actual signing and
// on-chain transaction construction is out of scope for the
// order-matching core; this package only has to be pure with respect
// to book state, as the contract requires.
package txbuilder

import (
	"github.com/google/uuid"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

// Tx is the signed exchange transaction built from one execution.
type Tx struct {
	ID            string
	Pair          book.Pair
	Price         uint64
	Amount        uint64
	SubmittedID   string
	CounterID     string
	SubmittedFee  uint64
	CounterFee    uint64
	Timestamp     uint64
	Payload       []byte
}

// ErrorKind enumerates the tagged reasons a transaction can be
// rejected, matching spec §4.3's InvalidTxPolicy table exactly —
// enumerated, not open-ended subtyping.
type ErrorKind uint8

const (
	KindOrderValidationSubmitted ErrorKind = iota
	KindOrderValidationCounter
	KindAccountBalance
	KindNegativeAmount
	KindOther
)

// ValidationError is the tagged error TxBuilder/UTX returns on
// rejection. AccountBalance populates Accounts with every sender
// pubkey (hex-ish string form) the downstream balance check flagged;
// InvalidTxPolicy in bookcore consults that set directly rather than
// re-deriving it.
type ValidationError struct {
	Kind     ErrorKind
	Accounts map[string]struct{}
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "txbuilder: validation error"
}

// Builder builds a Tx from an execution, pure with respect to book
// state: it works only from the event it is handed and never reads or
// changes the book. Transaction ids are not derived from the event, so
// building the same event twice can yield two different ids.
type Builder interface {
	Build(ev book.OrderExecuted) (*Tx, *ValidationError)
}

// UTX is the unconfirmed-transaction pool's admission contract:
// idempotent by transaction id.
type UTX interface {
	PutIfNew(tx *Tx) *ValidationError
}

// NewTxID allocates a fresh transaction id.
func NewTxID() string { return uuid.NewString() }
