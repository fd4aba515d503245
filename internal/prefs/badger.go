package prefs

import (
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerKV is a KV backed by an embedded Badger database.
type BadgerKV struct {
	db *badger.DB
}

// NewBadgerKV opens a Badger database in dir with synchronous writes.
func NewBadgerKV(dir string) (*BadgerKV, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("prefs: create badger dir: %w", err)
	}
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("prefs: open badger: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Get implements KV.
func (kv *BadgerKV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := kv.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("prefs: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements KV.
func (kv *BadgerKV) Set(key string, value []byte) error {
	err := kv.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("prefs: set %q: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (kv *BadgerKV) Delete(key string) error {
	err := kv.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("prefs: delete %q: %w", key, err)
	}
	return nil
}

// Close implements KV.
func (kv *BadgerKV) Close() error {
	return kv.db.Close()
}
