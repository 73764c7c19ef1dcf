package txoutbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestPutIfNewInsertsOnce(t *testing.T) {
	o := openTestOutbox(t)

	inserted, err := o.PutIfNew("tx1", []byte("payload"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = o.PutIfNew("tx1", []byte("different payload"))
	require.NoError(t, err)
	assert.False(t, inserted, "PutIfNew must be idempotent by id")

	rec, err := o.Get("tx1")
	require.NoError(t, err)
	assert.Equal(t, StateNew, rec.State)
	assert.Equal(t, []byte("payload"), rec.Payload, "the first write wins")
}

func TestUpdateStateAdvancesStateMachine(t *testing.T) {
	o := openTestOutbox(t)
	_, err := o.PutIfNew("tx1", []byte("p"))
	require.NoError(t, err)

	require.NoError(t, o.UpdateState("tx1", StateSent, 1))
	rec, err := o.Get("tx1")
	require.NoError(t, err)
	assert.Equal(t, StateSent, rec.State)
	assert.Equal(t, uint32(1), rec.Retries)

	require.NoError(t, o.UpdateState("tx1", StateAcked, 1))
	rec, err = o.Get("tx1")
	require.NoError(t, err)
	assert.Equal(t, StateAcked, rec.State)
}

func TestScanByStateOnlyVisitsMatchingRecords(t *testing.T) {
	o := openTestOutbox(t)
	_, _ = o.PutIfNew("new1", []byte("a"))
	_, _ = o.PutIfNew("new2", []byte("b"))
	_, _ = o.PutIfNew("sent1", []byte("c"))
	require.NoError(t, o.UpdateState("sent1", StateSent, 1))

	var seen []string
	require.NoError(t, o.ScanByState(StateNew, func(txID string, rec Record) error {
		seen = append(seen, txID)
		return nil
	}))

	assert.ElementsMatch(t, []string{"new1", "new2"}, seen)
}

func TestDeleteRemovesRecord(t *testing.T) {
	o := openTestOutbox(t)
	_, _ = o.PutIfNew("tx1", []byte("a"))
	require.NoError(t, o.Delete("tx1"))

	_, err := o.Get("tx1")
	assert.Error(t, err)
}
