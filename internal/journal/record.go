// Package journal is the append-only, CRC-checked event log BookCore
// writes to before applying anything to the book. It is grounded on
// the teacher's infra/wal/entry package: the same frame layout
// ([type:1][seq:8][time:8][len:4][payload][crc:4]), the same
// size-based segment rotation and segment-%06d.wal naming, and the
// same Replay-reports-non-monotonic-seq-as-fatal contract — with the
// payload codec replaced by a typed encoder for the three book.Event
// kinds instead of the teacher's opaque byte-slice payload.
package journal

import "time"

// RecordType tags which Event kind a record's payload decodes as.
type RecordType uint8

const (
	RecordOrderAdded    RecordType = 1
	RecordOrderExecuted RecordType = 2
	RecordOrderCanceled RecordType = 3
)

// Record is one framed entry: a sequence number, a wall-clock
// timestamp stamped at append time, and an encoded event payload.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func newRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{Type: t, Seq: seq, Time: time.Now().UnixNano(), Data: data}
}
