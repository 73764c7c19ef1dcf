package book

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRBTreeGetOrCreateIsIdempotent(t *testing.T) {
	tr := newRBTree()
	a := tr.GetOrCreate(100)
	b := tr.GetOrCreate(100)
	assert.Same(t, a, b)
	assert.Equal(t, 1, tr.Size())
}

func TestRBTreeMinMax(t *testing.T) {
	tr := newRBTree()
	for _, p := range []uint64{50, 10, 90, 30, 70} {
		tr.GetOrCreate(p)
	}
	require.NotNil(t, tr.Min())
	require.NotNil(t, tr.Max())
	assert.Equal(t, uint64(10), tr.Min().Price)
	assert.Equal(t, uint64(90), tr.Max().Price)
}

func TestRBTreeAscendingDescendingOrder(t *testing.T) {
	tr := newRBTree()
	prices := []uint64{50, 10, 90, 30, 70, 20, 60}
	for _, p := range prices {
		tr.GetOrCreate(p)
	}

	var asc []uint64
	tr.Ascending(func(l *Level) bool { asc = append(asc, l.Price); return true })
	for i := 1; i < len(asc); i++ {
		assert.Less(t, asc[i-1], asc[i])
	}

	var desc []uint64
	tr.Descending(func(l *Level) bool { desc = append(desc, l.Price); return true })
	for i := 1; i < len(desc); i++ {
		assert.Greater(t, desc[i-1], desc[i])
	}
}

func TestRBTreeDelete(t *testing.T) {
	tr := newRBTree()
	tr.GetOrCreate(10)
	tr.GetOrCreate(20)

	assert.True(t, tr.Delete(10))
	assert.False(t, tr.Delete(10))
	assert.Equal(t, 1, tr.Size())
	assert.Nil(t, tr.Find(10))
	assert.NotNil(t, tr.Find(20))
}

// TestRBTreeSurvivesRandomInsertDelete guards the rotation/fixup logic
// against producing an inconsistent tree under an arbitrary interleaving
// of inserts and deletes — the invariant checked is just that every key
// inserted and not yet deleted remains findable.
func TestRBTreeSurvivesRandomInsertDelete(t *testing.T) {
	tr := newRBTree()
	live := map[uint64]bool{}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		price := uint64(rng.Intn(200))
		if rng.Intn(2) == 0 {
			tr.GetOrCreate(price)
			live[price] = true
		} else if live[price] {
			tr.Delete(price)
			live[price] = false
		}
	}

	wantSize := 0
	for price, alive := range live {
		if !alive {
			continue
		}
		wantSize++
		require.NotNil(t, tr.Find(price), "price %d should still be findable", price)
	}
	assert.Equal(t, wantSize, tr.Size())
}
