// Package adbtest holds a conformance suite shared by the adb backends.
package adbtest

import (
	"errors"
	"testing"

	"github.com/cfit-project/cfit-ledger/adb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAbort = errors.New("abort")

// Run checks that db commits, rolls back and iterates as the ledger expects.
func Run(t *testing.T, db adb.DB) {
	idx := db.Index("test")
	other := db.Index("other")

	err := db.Update(func(txn adb.Txn) error {
		for _, k := range []string{"b", "a", "c"} {
			if err := txn.Put(idx, []byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		return txn.Put(other, []byte("a"), []byte("other"))
	})
	require.NoError(t, err)

	// a failed update leaves no trace
	err = db.Update(func(txn adb.Txn) error {
		require.NoError(t, txn.Put(idx, []byte("a"), []byte("changed")))
		require.NoError(t, txn.Put(idx, []byte("d"), []byte("vd")))
		require.NoError(t, txn.Del(idx, []byte("b")))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	err = db.View(func(txn adb.Txn) error {
		assert.Equal(t, []byte("va"), txn.Get(idx, []byte("a")))
		assert.Equal(t, []byte("vb"), txn.Get(idx, []byte("b")))
		assert.Nil(t, txn.Get(idx, []byte("d")))
		assert.Equal(t, []byte("other"), txn.Get(other, []byte("a")))

		n, err := txn.Entries(idx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)

		var keys []string
		err = txn.ForEach(idx, func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, keys)

		keys = keys[:0]
		err = txn.ForEachInterrupt(idx, func(k, v []byte) (bool, error) {
			keys = append(keys, string(k))
			return string(k) == "b", nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)

		return nil
	})
	require.NoError(t, err)

	// values outlive the transaction
	var v []byte
	require.NoError(t, db.View(func(txn adb.Txn) error {
		v = txn.Get(idx, []byte("c"))
		return nil
	}))
	assert.Equal(t, []byte("vc"), v)

	require.NoError(t, db.Update(func(txn adb.Txn) error {
		return txn.Del(idx, []byte("c"))
	}))
	require.NoError(t, db.View(func(txn adb.Txn) error {
		assert.Nil(t, txn.Get(idx, []byte("c")))
		return nil
	}))
}
