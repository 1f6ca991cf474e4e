package lmdb

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cfit-project/cfit-ledger/adb"
	"github.com/cfit-project/cfit-ledger/logger"

	lmdb "github.com/PowerDNS/lmdb-go/lmdb"
)

var _ adb.DB = &DB{}

type DB struct {
	env *lmdb.Env

	log *logger.Log

	resizeLock sync.Mutex
}

func New(dbpath string, filemode os.FileMode, log *logger.Log) (*DB, error) {
	var err error

	d := &DB{
		log: log,
	}

	d.env, err = lmdb.NewEnv()
	if err != nil {
		return nil, err
	}

	if err = d.env.SetMaxDBs(16); err != nil {
		d.env.Close()
		return nil, err
	}
	if err = d.env.SetMapSize(16 * 1024 * 1024); err != nil {
		d.env.Close()
		return nil, err
	}

	dbpath, err = filepath.Abs(dbpath)
	if err != nil {
		d.env.Close()
		return nil, err
	}

	err = os.Mkdir(dbpath, filemode)
	if err != nil && !errors.Is(err, os.ErrExist) {
		d.env.Close()
		return nil, err
	}

	err = verifyDirPermissions(dbpath)
	if err != nil {
		d.env.Close()
		return nil, err
	}

	// no MDB_NOSYNC: every commit is durable
	err = d.env.Open(dbpath, 0, filemode)
	if err != nil {
		d.env.Close()
		return nil, err
	}

	return d, nil
}

func verifyDirPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory access error: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	testFile := filepath.Join(path, "permission_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("write permission denied: %w", err)
	}
	os.Remove(testFile)

	return nil
}

func (d *DB) Index(name string) (dbi adb.Index) {
	err := d.env.Update(func(txn *lmdb.Txn) error {
		var err error
		dbi, err = txn.CreateDBI(name)
		return err
	})
	if err != nil {
		panic(err)
	}

	return
}

func (d *DB) View(f func(txn adb.Txn) error) error {
	return d.env.View(func(t *lmdb.Txn) error {
		return f(&Txn{txn: t})
	})
}

const GB = 1024 * 1024 * 1024

func (d *DB) growIfNeeded() error {
	info, err := d.env.Info()
	if err != nil {
		return err
	}

	stat, err := d.env.Stat()
	if err != nil {
		return err
	}

	sizeUsed := int64(stat.PSize) * info.LastPNO

	free := 1 - float64(sizeUsed)/float64(info.MapSize)
	if free >= 0.1 {
		return nil
	}

	d.resizeLock.Lock()
	defer d.resizeLock.Unlock()

	newSize := info.MapSize * 2
	// increment at most by 1 GiB
	if info.MapSize > 1*GB {
		newSize = info.MapSize + GB
	}

	d.log.Infof("LMDB mapsize increase needed: %vMiB -> %vMiB", float64(info.MapSize)/1024/1024, float64(newSize)/1024/1024)

	return d.env.SetMapSize(newSize)
}

func (d *DB) Update(f func(txn adb.Txn) error) error {
	if err := d.growIfNeeded(); err != nil {
		return err
	}

	return d.env.Update(func(t *lmdb.Txn) error {
		return f(&Txn{txn: t})
	})
}

func (d *DB) Close() error {
	return d.env.Close()
}

type Txn struct {
	txn *lmdb.Txn
}

func (t *Txn) Get(d adb.Index, key []byte) []byte {
	dbi := d.(lmdb.DBI)
	r, err := t.txn.Get(dbi, key)
	if err != nil {
		return nil
	}
	return bytes.Clone(r)
}

func (t *Txn) Put(d adb.Index, key []byte, value []byte) error {
	dbi := d.(lmdb.DBI)
	return t.txn.Put(dbi, key, value, 0)
}

func (t *Txn) Del(d adb.Index, key []byte) error {
	dbi := d.(lmdb.DBI)
	err := t.txn.Del(dbi, key, nil)
	if lmdb.IsNotFound(err) {
		return nil
	}
	return err
}

func (t *Txn) ForEach(d adb.Index, f func(k, v []byte) error) error {
	return t.ForEachInterrupt(d, func(k, v []byte) (bool, error) {
		return false, f(k, v)
	})
}

func (t *Txn) ForEachInterrupt(d adb.Index, f func(k, v []byte) (bool, error)) error {
	dbi := d.(lmdb.DBI)
	cursor, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return err
	}

	defer cursor.Close()

	for {
		key, value, err := cursor.Get(nil, nil, lmdb.Next)
		if lmdb.IsNotFound(err) {
			break
		}
		if err != nil {
			return fmt.Errorf("cursor get: %w", err)
		}

		interrupt, err := f(key, value)
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
	stat, err := t.txn.Stat(d.(lmdb.DBI))
	if err != nil {
		return 0, err
	}
	return stat.Entries, nil
}
