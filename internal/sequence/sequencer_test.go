package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerStartsAfterStart(t *testing.T) {
	s := New(10)
	assert.Equal(t, uint64(10), s.Current())
	assert.Equal(t, uint64(11), s.Next())
	assert.Equal(t, uint64(11), s.Current())
}

func TestSequencerReset(t *testing.T) {
	s := New(0)
	s.Next()
	s.Next()
	s.Reset(100)
	assert.Equal(t, uint64(100), s.Current())
	assert.Equal(t, uint64(101), s.Next())
}

func TestSequencerConcurrentNextNeverRepeats(t *testing.T) {
	s := New(0)
	const n = 1000
	seen := make(chan uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- s.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[uint64]bool{}
	for v := range seen {
		assert.False(t, unique[v], "sequence %d issued twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, n)
}
