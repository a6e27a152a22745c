package store

import (
	"encoding/binary"
	"time"

	"github.com/dgraph-io/badger/v3"
)

func tsToBytes(ts time.Time) []byte {
	buf := make([]byte, 8)
	d := ts.UnixNano()
	binary.BigEndian.PutUint64(buf, uint64(d))
	return buf
}

// listIndex walks the timed index keys under prefix, each key ending with an
// 8 byte timestamp and the payload id, and hands every id to fn in order.
func listIndex(txn *badger.Txn, prefix string, limit int, fn func(id string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var count int
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := string(key[len(opts.Prefix)+8:])
		err := fn(id)
		if err != nil {
			return err
		}
		count++
		if count == limit {
			break
		}
	}
	return nil
}

func readPayload(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
