package journal

import (
	"encoding/binary"
	"fmt"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

// EncodeEvent is encodeEvent exported for callers outside the package
// (the event bus) that want the same wire format the journal uses,
// framed with a single leading tag byte instead of a full record
// header.
func EncodeEvent(ev book.Event) ([]byte, error) {
	t, payload, err := encodeEvent(ev)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(t)}, payload...), nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(data []byte) (book.Event, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("journal: empty event payload")
	}
	return decodeEvent(RecordType(data[0]), data[1:])
}

// encodeEvent turns a book.Event into a journal payload: a record
// type tag (carried on the Record header, not repeated here) plus the
// event's fields in the declaration order spec §3 lists them in.
// Strings and byte slices are length-prefixed (uint16, big-endian).
func encodeEvent(ev book.Event) (RecordType, []byte, error) {
	switch e := ev.(type) {
	case book.OrderAdded:
		return RecordOrderAdded, encodeOrderAdded(e), nil
	case book.OrderExecuted:
		return RecordOrderExecuted, encodeOrderExecuted(e), nil
	case book.OrderCanceled:
		return RecordOrderCanceled, encodeOrderCanceled(e), nil
	default:
		return 0, nil, fmt.Errorf("journal: unknown event type %T", ev)
	}
}

func decodeEvent(t RecordType, data []byte) (book.Event, error) {
	switch t {
	case RecordOrderAdded:
		return decodeOrderAdded(data)
	case RecordOrderExecuted:
		return decodeOrderExecuted(data)
	case RecordOrderCanceled:
		return decodeOrderCanceled(data)
	default:
		return nil, fmt.Errorf("journal: unknown record type %d", t)
	}
}

// --- OrderAdded ---

func encodeOrderAdded(e book.OrderAdded) []byte {
	w := newWriter()
	w.order(e.Order)
	w.u64(e.RemainingAmount)
	w.u64(e.PaidFee)
	return w.bytes()
}

func decodeOrderAdded(data []byte) (book.OrderAdded, error) {
	r := newReader(data)
	o, err := r.order()
	if err != nil {
		return book.OrderAdded{}, err
	}
	remaining := r.u64()
	paid := r.u64()
	return book.OrderAdded{Order: o, RemainingAmount: remaining, PaidFee: paid}, r.err
}

// --- OrderExecuted ---

func encodeOrderExecuted(e book.OrderExecuted) []byte {
	w := newWriter()
	w.pair(e.Pair)
	w.str(e.SubmittedID)
	w.u8(uint8(e.SubmittedSide))
	w.u64(e.SubmittedFilled)
	w.u64(e.SubmittedFee)
	w.str(e.CounterID)
	w.u64(e.CounterFilled)
	w.u64(e.CounterFee)
	w.u64(e.Price)
	w.u64(e.Amount)
	w.u64(e.Timestamp)
	return w.bytes()
}

func decodeOrderExecuted(data []byte) (book.OrderExecuted, error) {
	r := newReader(data)
	e := book.OrderExecuted{
		Pair:            r.pair(),
		SubmittedID:     r.str(),
		SubmittedSide:   book.Side(r.u8()),
		SubmittedFilled: r.u64(),
		SubmittedFee:    r.u64(),
		CounterID:       r.str(),
		CounterFilled:   r.u64(),
		CounterFee:      r.u64(),
		Price:           r.u64(),
		Amount:          r.u64(),
		Timestamp:       r.u64(),
	}
	return e, r.err
}

// --- OrderCanceled ---

func encodeOrderCanceled(e book.OrderCanceled) []byte {
	w := newWriter()
	w.pair(e.Pair)
	w.str(e.OrderID)
	w.u8(uint8(e.Side))
	w.u64(e.RemainingFee)
	w.bool(e.Unmatchable)
	w.u64(e.Timestamp)
	return w.bytes()
}

func decodeOrderCanceled(data []byte) (book.OrderCanceled, error) {
	r := newReader(data)
	e := book.OrderCanceled{
		Pair:         r.pair(),
		OrderID:      r.str(),
		Side:         book.Side(r.u8()),
		RemainingFee: r.u64(),
		Unmatchable:  r.bool(),
		Timestamp:    r.u64(),
	}
	return e, r.err
}

/* ---------------- primitive writer/reader ---------------- */

type writer struct{ buf []byte }

func newWriter() *writer { return &writer{buf: make([]byte, 0, 64)} }

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) bytesField(b []byte) {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(b)))
	w.buf = append(w.buf, l[:]...)
	w.buf = append(w.buf, b...)
}

func (w *writer) str(s string) { w.bytesField([]byte(s)) }

func (w *writer) pair(p book.Pair) {
	w.str(string(p.AmountAsset))
	w.str(string(p.PriceAsset))
}

func (w *writer) order(o *book.Order) {
	w.str(o.ID)
	w.bytesField(o.SenderKey)
	w.pair(o.Pair)
	w.u8(uint8(o.Side))
	w.u8(uint8(o.Type))
	w.u64(o.Amount)
	w.u64(o.Price)
	w.u64(o.Timestamp)
	w.u64(o.Expiration)
	w.u64(o.MatcherFee)
	w.u8(o.Version)
	w.bytesField(o.Signature)
}

type reader struct {
	buf []byte
	pos int
	err error
}

func newReader(data []byte) *reader { return &reader{buf: data} }

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("journal: short record")
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *reader) bool() bool { return r.u8() != 0 }

func (r *reader) bytesField() []byte {
	if !r.need(2) {
		return nil
	}
	l := int(binary.BigEndian.Uint16(r.buf[r.pos : r.pos+2]))
	r.pos += 2
	if !r.need(l) {
		return nil
	}
	b := make([]byte, l)
	copy(b, r.buf[r.pos:r.pos+l])
	r.pos += l
	return b
}

func (r *reader) str() string { return string(r.bytesField()) }

func (r *reader) pair() book.Pair {
	return book.Pair{AmountAsset: book.AssetID(r.str()), PriceAsset: book.AssetID(r.str())}
}

func (r *reader) order() (*book.Order, error) {
	o := &book.Order{}
	o.ID = r.str()
	o.SenderKey = r.bytesField()
	o.Pair = r.pair()
	o.Side = book.Side(r.u8())
	o.Type = book.Type(r.u8())
	o.Amount = r.u64()
	o.Price = r.u64()
	o.Timestamp = r.u64()
	o.Expiration = r.u64()
	o.MatcherFee = r.u64()
	o.Version = r.u8()
	o.Signature = r.bytesField()
	return o, r.err
}
