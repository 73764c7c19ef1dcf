// Package txoutbox is the durable, idempotent-by-id staging area for
// exchange transactions built from OrderExecuted events: PutIfNew
// records a transaction once the external UTX pool has admitted it and
// before it is broadcast, and the state machine tracks it through SENT/ACKED/FAILED
// so a crash between "built" and "broadcast" can be resumed instead
// of silently dropping or double-sending a trade.
//
// Grounded on the teacher's infra/wal/exit.ExitWAL: same pebble-backed
// NEW/SENT/ACKED/FAILED state machine and binary record encoding, with
// the key widened from a numeric order id to this package's string
// transaction id.
package txoutbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record is the outbox's view of one pending transaction.
type Record struct {
	State       State
	Payload     []byte
	Retries     uint32
	LastAttempt int64
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payloadLen:4][payload]
func encodeRecord(r Record) []byte {
	buf := make([]byte, 1+4+8+4+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	binary.BigEndian.PutUint32(buf[13:17], uint32(len(r.Payload)))
	copy(buf[17:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < 17 {
		return Record{}, errors.New("txoutbox: invalid record length")
	}
	l := binary.BigEndian.Uint32(b[13:17])
	if len(b) != 17+int(l) {
		return Record{}, errors.New("txoutbox: truncated payload")
	}
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[17:]...),
	}, nil
}

// Outbox is a pebble-backed key-value store of pending transactions.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: false})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error { return o.db.Close() }

// PutIfNew inserts txID with payload in StateNew, unless it already
// exists — the UTX contract's idempotent-by-id put_if_new.
func (o *Outbox) PutIfNew(txID string, payload []byte) (inserted bool, err error) {
	key := keyFor(txID)
	if _, closer, err := o.db.Get(key); err == nil {
		closer.Close()
		return false, nil
	} else if err != pebble.ErrNotFound {
		return false, err
	}

	rec := Record{State: StateNew, Payload: payload}
	if err := o.db.Set(key, encodeRecord(rec), pebble.Sync); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateState transitions txID to state, recording the attempt time
// and retry count.
func (o *Outbox) UpdateState(txID string, state State, retries uint32) error {
	rec, err := o.Get(txID)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(txID), encodeRecord(rec), pebble.Sync)
}

// Delete removes an ACKED record during cleanup.
func (o *Outbox) Delete(txID string) error {
	return o.db.Delete(keyFor(txID), pebble.Sync)
}

func (o *Outbox) Get(txID string) (Record, error) {
	val, closer, err := o.db.Get(keyFor(txID))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// ScanByState iterates every record in the given state, used by the
// broadcaster to find transactions ready to publish.
func (o *Outbox) ScanByState(state State, fn func(txID string, rec Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("tx/"),
		UpperBound: []byte("tx/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}
		id := parseKey(iter.Key())
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(txID string) []byte { return []byte(fmt.Sprintf("tx/%s", txID)) }

func parseKey(b []byte) string { return strings.TrimPrefix(string(b), "tx/") }
