package bookcore

import "github.com/dexmatcher/matcher-core/internal/domain/book"

// command is the mailbox envelope. Concrete commands carry their own
// reply channel so the actor's Run loop stays a single straight-line
// type switch without a separate dispatch table of response types.
type command interface{ isCommand() }

func (placeCmd) isCommand()           {}
func (cancelCmd) isCommand()          {}
func (cleanupCmd) isCommand()         {}
func (deleteBookCmd) isCommand()      {}
func (saveSnapshotCmd) isCommand()    {}
func (getOrdersCmd) isCommand()       {}
func (getOrderBookCmd) isCommand()    {}
func (getMarketStatusCmd) isCommand() {}

type placeCmd struct {
	order *book.Order
	reply chan<- placeResult
}

type placeResult struct {
	accepted *OrderAccepted
	err      error
}

type cancelCmd struct {
	orderID string
	reply   chan<- cancelResult
}

type cancelResult struct {
	ok       *OrderCanceledReply
	rejected *OrderCancelRejected
}

type cleanupCmd struct {
	now uint64
}

type deleteBookCmd struct {
	done chan<- struct{}
}

type saveSnapshotCmd struct{}

type getOrdersCmd struct {
	reply chan<- GetOrdersResponse
}

type getOrderBookCmd struct {
	depth int
	reply chan<- GetOrderBookResponse
}

type getMarketStatusCmd struct {
	reply chan<- GetMarketStatusResponse
}
