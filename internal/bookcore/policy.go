package bookcore

import (
	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/txbuilder"
)

// policyOutcome is what InvalidTxPolicy decided: which party (if any)
// gets cancelled as a side effect of the rejection, and what the
// match loop should treat as the next submitted order.
type policyOutcome struct {
	cancelCounter      bool
	counterUnmatchable bool

	cancelSubmitted      bool // a cancel event IS produced for submitted
	submittedUnmatchable bool

	abort bool // true ⇒ no next submitted, match loop stops here
}

// applyInvalidTxPolicy implements spec §4.3's InvalidTxPolicy table.
// submitted and counter are the two parties of the execution that
// TxBuilder/UTX just rejected.
func applyInvalidTxPolicy(verr *txbuilder.ValidationError, submitted, counter book.LimitOrder) policyOutcome {
	switch verr.Kind {
	case txbuilder.KindOrderValidationSubmitted:
		// abort this match, do nothing else: no cancel event for either
		// side, submitted simply does not continue.
		return policyOutcome{abort: true}

	case txbuilder.KindOrderValidationCounter:
		return policyOutcome{cancelCounter: true}

	case txbuilder.KindAccountBalance:
		_, counterFlagged := verr.Accounts[senderKey(counter)]
		_, submittedFlagged := verr.Accounts[senderKey(submitted)]
		switch {
		case counterFlagged:
			// preserved per spec §9's open question: when both senders are
			// flagged, the counter is cancelled first, then submitted is
			// also aborted.
			return policyOutcome{cancelCounter: true, abort: submittedFlagged}
		case submittedFlagged:
			return policyOutcome{abort: true}
		default:
			return policyOutcome{} // neither flagged: submitted continues
		}

	case txbuilder.KindNegativeAmount:
		return policyOutcome{cancelSubmitted: true, submittedUnmatchable: true, abort: true}

	default: // KindOther
		return policyOutcome{cancelCounter: true}
	}
}

func senderKey(lo book.LimitOrder) string { return string(lo.Order.SenderKey) }
