package journal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
	"github.com/dexmatcher/matcher-core/internal/sequence"
)

// Config mirrors the teacher's entry.Config: a directory plus a
// rotation threshold. Segments rotate by size only; there is no
// age-based rotation.
type Config struct {
	Dir         string
	SegmentSize int64
}

// Journal is the append-only, sequence-numbered, CRC-checked event
// log for one pair's BookCore.
type Journal struct {
	dir      string
	segSize  int64
	current  *segment
	segIndex int
	seq      *sequence.Sequencer
}

// Open creates or reopens a journal directory. It does not replay;
// call Replay separately during recovery, before accepting commands.
func Open(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	idx, err := latestSegmentIndex(cfg.Dir)
	if err != nil {
		return nil, err
	}
	seg, err := openSegment(cfg.Dir, idx)
	if err != nil {
		return nil, err
	}
	return &Journal{dir: cfg.Dir, segSize: cfg.SegmentSize, current: seg, segIndex: idx, seq: sequence.New(0)}, nil
}

// ResumeAfter rebases the journal's sequence generator to resume
// issuing numbers after the given last-replayed sequence. Call once,
// immediately after Replay, before the journal accepts any Append.
func (j *Journal) ResumeAfter(lastSeq uint64) {
	j.seq.Reset(lastSeq)
}

func latestSegmentIndex(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return 0, err
	}
	max := 0
	for _, p := range files {
		var idx int
		if _, err := fmt.Sscanf(filepath.Base(p), "segment-%06d.wal", &idx); err == nil && idx > max {
			max = idx
		}
	}
	return max, nil
}

// Dir returns the journal's segment directory, for callers (recovery)
// that need to re-run Replay against it directly.
func (j *Journal) Dir() string { return j.dir }

// NextSeq returns the sequence number the next Append will use,
// without consuming it; NextSeq()-1 is the current journal tail, which
// BookCore uses when handling SaveSnapshot and DeleteBook.
func (j *Journal) NextSeq() uint64 { return j.seq.Current() + 1 }

// Append encodes ev, frames it, assigns it the next sequence number,
// and writes it to the current segment, rotating afterward if the
// segment has grown past its size threshold.
func (j *Journal) Append(ev book.Event) (uint64, error) {
	t, payload, err := encodeEvent(ev)
	if err != nil {
		return 0, err
	}
	seq := j.seq.Next()
	rec := newRecord(t, seq, payload)

	buf := frame(rec)
	if err := j.current.append(buf); err != nil {
		return 0, err
	}

	if j.current.offset >= j.segSize {
		if err := j.rotate(); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

func (j *Journal) rotate() error {
	_ = j.current.close()
	j.segIndex++
	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		return err
	}
	j.current = seg
	return nil
}

// Close flushes the active segment's file handle.
func (j *Journal) Close() error { return j.current.close() }

// TruncateBefore deletes every segment whose maximum sequence number
// is at or below seq. It is called after a successful snapshot write
// at that sequence.
func (j *Journal) TruncateBefore(seq uint64) error {
	files, err := filepath.Glob(filepath.Join(j.dir, "segment-*.wal"))
	if err != nil {
		return err
	}
	for _, path := range files {
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq != 0 && maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

func frame(r *Record) []byte {
	payloadLen := uint32(len(r.Data))
	buf := make([]byte, 1+8+8+4+payloadLen+4)
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[21:], r.Data)
	crc := crc32Of(buf[:21+payloadLen])
	binary.BigEndian.PutUint32(buf[21+payloadLen:], crc)
	return buf
}

func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	for {
		header := make([]byte, 21)
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return max, nil
			}
			return max, err
		}
		seq := binary.BigEndian.Uint64(header[1:9])
		if seq > max {
			max = seq
		}
		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if _, err := f.Seek(int64(payloadLen)+4, io.SeekCurrent); err != nil {
			return max, err
		}
	}
}

// ReplayFunc is invoked once per journaled event in sequence order
// during recovery.
type ReplayFunc func(seq uint64, ev book.Event) error

// Replay scans every segment under dir in order and invokes fn for
// each decoded event with seq > after, returning the last sequence
// number seen (after itself if no record follows it, so 0 for an empty
// journal replayed from 0). A non-monotonic sequence
// or a CRC mismatch is a RecoveryError per the journal's write-ahead
// contract: the caller should treat it as fatal for this pair.
func Replay(dir string, after uint64, fn ReplayFunc) (lastSeq uint64, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return 0, err
	}
	lastSeq = after
	var prev uint64

	for _, path := range files {
		f, ferr := os.Open(path)
		if ferr != nil {
			return lastSeq, ferr
		}

		for {
			rec, rerr := readRecord(f)
			if rerr != nil {
				if rerr == io.EOF {
					break
				}
				f.Close()
				return lastSeq, rerr
			}
			if rec.Seq <= prev {
				f.Close()
				return lastSeq, fmt.Errorf("journal: non-monotonic seq %d after %d", rec.Seq, prev)
			}
			prev = rec.Seq

			if rec.Seq <= after {
				continue
			}
			lastSeq = rec.Seq
			ev, derr := decodeEvent(rec.Type, rec.Data)
			if derr != nil {
				f.Close()
				return lastSeq, derr
			}
			if err := fn(rec.Seq, ev); err != nil {
				f.Close()
				return lastSeq, err
			}
		}
		f.Close()
	}

	return lastSeq, nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, 21)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])

	data := make([]byte, l+4)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])

	if !crc32Valid(append(header, payload...), crc) {
		return nil, fmt.Errorf("journal: crc mismatch at seq %d", seq)
	}

	return &Record{Type: t, Seq: seq, Time: int64(ts), Data: payload}, nil
}
