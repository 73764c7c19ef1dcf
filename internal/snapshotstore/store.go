// Package snapshotstore persists and retrieves whole-book snapshots,
// gob-encoded, one file per sequence number. Grounded on the
// teacher's snapshot package (Writer.Write/Load), generalized from a
// single fixed "snapshot.bin" to sequence-named files — an idea
// carried over from the teacher's other draft (root main.go's
// Snapshotter, which names files "snapshot_<seq>.json") — so multiple
// snapshots can coexist while older ones are GC'd after a newer one
// lands, per spec §4.3's "delete snapshots with sequence < seq".
package snapshotstore

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dexmatcher/matcher-core/internal/domain/book"
)

// Entry is the gob-serializable form of one resting order. Snapshot
// never round-trips through book.Book's internal tree/list directly;
// it only needs the flat order set Book.Orders()/Apply(OrderAdded)
// already knows how to produce and consume.
type Entry struct {
	Order           book.Order
	RemainingAmount uint64
	PaidFee         uint64
}

// Snapshot is the on-disk payload: a full book at a given journal
// sequence number.
type Snapshot struct {
	Seq     uint64
	Pair    book.Pair
	Orders  []Entry
}

// Store manages the snapshot files for one pair's directory.
type Store struct {
	dir string
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(seq uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("snapshot-%020d.gob", seq))
}

// Save gob-encodes b at seq into its own file.
func (s *Store) Save(seq uint64, b *book.Book) error {
	f, err := os.Create(s.path(seq))
	if err != nil {
		return err
	}
	defer f.Close()

	snap := Snapshot{Seq: seq, Pair: b.Pair}
	for _, lo := range b.Orders() {
		snap.Orders = append(snap.Orders, Entry{
			Order:           *lo.Order,
			RemainingAmount: lo.RemainingAmount,
			PaidFee:         lo.PaidFee,
		})
	}

	return gob.NewEncoder(f).Encode(&snap)
}

// LoadLatest finds the highest-sequence snapshot file and decodes it.
// A missing snapshot directory is not an error — snapshots are always
// optional; recovery falls back to pure journal replay from zero.
func (s *Store) LoadLatest() (Snapshot, bool, error) {
	seq, path, ok, err := s.latest()
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	_ = seq

	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// DeleteBelow removes every snapshot file with sequence strictly less
// than cutoff, called after a newer snapshot write succeeds.
func (s *Store) DeleteBelow(cutoff uint64) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		seq, ok := parseSeq(e.Name())
		if !ok || seq >= cutoff {
			continue
		}
		_ = os.Remove(filepath.Join(s.dir, e.Name()))
	}
	return nil
}

func (s *Store) latest() (seq uint64, path string, ok bool, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}

	var seqs []uint64
	names := map[uint64]string{}
	for _, e := range entries {
		sq, good := parseSeq(e.Name())
		if !good {
			continue
		}
		seqs = append(seqs, sq)
		names[sq] = e.Name()
	}
	if len(seqs) == 0 {
		return 0, "", false, nil
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] > seqs[j] })
	best := seqs[0]
	return best, filepath.Join(s.dir, names[best]), true, nil
}

func parseSeq(name string) (uint64, bool) {
	if !strings.HasPrefix(name, "snapshot-") || !strings.HasSuffix(name, ".gob") {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, "snapshot-"), ".gob")
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
