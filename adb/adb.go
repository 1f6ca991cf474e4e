// Package adb abstracts the embedded key/value store holding the ledger state.
//
// All writes of a ledger operation happen inside a single Update call: when the
// callback returns an error, the backend rolls back every Put and Del it made.
package adb

type DB interface {
	Index(string) Index

	View(func(txn Txn) error) error
	Update(func(txn Txn) error) error
	Close() error
}

type Index any

type Txn interface {
	// Get returns nil when the key does not exist. The returned slice is owned by the caller.
	Get(Index, []byte) []byte
	Put(Index, []byte, []byte) error
	Del(Index, []byte) error
	ForEach(Index, func(k, v []byte) error) error
	ForEachInterrupt(Index, func(k, v []byte) (bool, error)) error
	Entries(Index) (uint64, error)
}
