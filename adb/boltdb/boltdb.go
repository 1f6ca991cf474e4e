package boltdb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cfit-project/cfit-ledger/adb"

	bolt "go.etcd.io/bbolt"
)

var _ adb.DB = &DB{}

// how long Open waits for the file lock held by another process
const openTimeout = 5 * time.Second

type DB struct {
	db *bolt.DB
}

func New(dbpath string, filemode os.FileMode) (*DB, error) {
	var err error

	d := &DB{}

	dbpath, err = filepath.Abs(dbpath)
	if err != nil {
		return nil, err
	}

	d.db, err = bolt.Open(dbpath, filemode, &bolt.Options{
		Timeout:        openTimeout,
		NoFreelistSync: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", dbpath, err)
	}

	return d, nil
}

func (d *DB) Index(name string) adb.Index {
	err := d.db.Update(func(txn *bolt.Tx) error {
		var err error
		_, err = txn.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		panic(err)
	}

	return []byte(name)
}

func (d *DB) View(f func(txn adb.Txn) error) error {
	return d.db.View(func(t *bolt.Tx) error {
		return f(&Txn{txn: t})
	})
}

func (d *DB) Update(f func(txn adb.Txn) error) error {
	return d.db.Update(func(t *bolt.Tx) error {
		return f(&Txn{txn: t})
	})
}

func (d *DB) Close() error {
	return d.db.Close()
}

type Txn struct {
	txn *bolt.Tx
}

func (t *Txn) bucket(d adb.Index) (*bolt.Bucket, error) {
	b := t.txn.Bucket(d.([]byte))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", d.([]byte))
	}
	return b, nil
}

func (t *Txn) Get(d adb.Index, key []byte) []byte {
	b, err := t.bucket(d)
	if err != nil {
		return nil
	}
	// bolt values are only valid for the lifetime of the transaction
	return bytes.Clone(b.Get(key))
}

func (t *Txn) Put(d adb.Index, key []byte, value []byte) error {
	b, err := t.bucket(d)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

func (t *Txn) Del(d adb.Index, key []byte) error {
	b, err := t.bucket(d)
	if err != nil {
		return err
	}
	return b.Delete(key)
}

func (t *Txn) ForEach(d adb.Index, f func(k, v []byte) error) error {
	b, err := t.bucket(d)
	if err != nil {
		return err
	}
	return b.ForEach(f)
}

func (t *Txn) ForEachInterrupt(d adb.Index, f func(k, v []byte) (bool, error)) error {
	b, err := t.bucket(d)
	if err != nil {
		return err
	}

	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		interrupt, err := f(k, v)
		if err != nil {
			return err
		}
		if interrupt {
			break
		}
	}

	return nil
}

func (t *Txn) Entries(d adb.Index) (uint64, error) {
	b, err := t.bucket(d)
	if err != nil {
		return 0, err
	}

	return uint64(b.Stats().KeyN), nil
}
