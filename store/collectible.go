package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/nfo-solana/nft"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixCollectionPayload = "COLLECTIBLES:COLLECTION:PAYLOAD:"
	prefixCollectionQueue   = "COLLECTIBLES:COLLECTION:QUEUE:"
	prefixTokenPayload      = "COLLECTIBLES:TOKEN:PAYLOAD:"
	prefixTokenCollection   = "COLLECTIBLES:TOKEN:COLLECTION:"
	prefixTokenQueue        = "COLLECTIBLES:TOKEN:QUEUE:"
)

// WriteCollection creates or refreshes a collection record, the circulation
// and creation time of an existing record are kept.
func (bs *BadgerStore) WriteCollection(c *nft.Collection) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readCollection(txn, c.Mint)
		if err != nil {
			return err
		}
		if old != nil {
			c.CreatedAt = old.CreatedAt
			c.Circulation = old.Circulation
		}
		err = bs.writeCollection(txn, c)
		if err != nil || old != nil {
			return err
		}
		key := append([]byte(prefixCollectionQueue), tsToBytes(c.CreatedAt)...)
		key = append(key, c.Mint...)
		return txn.Set(key, []byte{1})
	})
}

func (bs *BadgerStore) ReadCollection(mint string) (*nft.Collection, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readCollection(txn, mint)
}

func (bs *BadgerStore) ListCollections(limit int) ([]*nft.Collection, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var cs []*nft.Collection
	err := listIndex(txn, prefixCollectionQueue, limit, func(id string) error {
		c, err := bs.readCollection(txn, id)
		if err != nil {
			return err
		}
		cs = append(cs, c)
		return nil
	})
	return cs, err
}

// WriteToken only moves a token forward, minted to verified. The first
// verification of a token bumps the circulation of its known collection.
func (bs *BadgerStore) WriteToken(t *nft.Token) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readToken(txn, t.Mint)
		if err != nil {
			return err
		}
		if old != nil && old.State >= t.State {
			return nil
		}
		if old != nil {
			t.CreatedAt = old.CreatedAt
			t.Collection = old.Collection
		}

		key := []byte(prefixTokenPayload + t.Mint)
		err = txn.Set(key, common.MsgpackMarshalPanic(t))
		if err != nil {
			return err
		}

		if old == nil {
			key = buildTokenTimedKey(t)
			err = txn.Set(key, []byte{1})
			if err != nil {
				return err
			}
			key = append([]byte(prefixTokenQueue), tsToBytes(t.CreatedAt)...)
			err = txn.Set(append(key, t.Mint...), []byte{1})
			if err != nil {
				return err
			}
		}

		if t.State != nft.TokenStateVerified {
			return nil
		}
		c, err := bs.readCollection(txn, t.Collection)
		if err != nil || c == nil {
			return err
		}
		c.Circulation += 1
		return bs.writeCollection(txn, c)
	})
}

func (bs *BadgerStore) ReadToken(mint string) (*nft.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readToken(txn, mint)
}

func (bs *BadgerStore) ListTokens(collection string, limit int) ([]*nft.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var ts []*nft.Token
	prefix := prefixTokenCollection + collection + ":"
	err := listIndex(txn, prefix, limit, func(id string) error {
		t, err := bs.readToken(txn, id)
		if err != nil {
			return err
		}
		ts = append(ts, t)
		return nil
	})
	return ts, err
}

// ListAllTokens lists tokens of every collection by creation time, including
// those minted into collections this registry does not know.
func (bs *BadgerStore) ListAllTokens(limit int) ([]*nft.Token, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var ts []*nft.Token
	err := listIndex(txn, prefixTokenQueue, limit, func(id string) error {
		t, err := bs.readToken(txn, id)
		if err != nil {
			return err
		}
		ts = append(ts, t)
		return nil
	})
	return ts, err
}

func (bs *BadgerStore) writeCollection(txn *badger.Txn, c *nft.Collection) error {
	key := []byte(prefixCollectionPayload + c.Mint)
	return txn.Set(key, common.MsgpackMarshalPanic(c))
}

func (bs *BadgerStore) readCollection(txn *badger.Txn, mint string) (*nft.Collection, error) {
	val, err := readPayload(txn, []byte(prefixCollectionPayload+mint))
	if err != nil || val == nil {
		return nil, err
	}
	var c nft.Collection
	err = common.MsgpackUnmarshal(val, &c)
	return &c, err
}

func (bs *BadgerStore) readToken(txn *badger.Txn, mint string) (*nft.Token, error) {
	val, err := readPayload(txn, []byte(prefixTokenPayload+mint))
	if err != nil || val == nil {
		return nil, err
	}
	var t nft.Token
	err = common.MsgpackUnmarshal(val, &t)
	return &t, err
}

func buildTokenTimedKey(t *nft.Token) []byte {
	prefix := prefixTokenCollection + t.Collection + ":"
	key := append([]byte(prefix), tsToBytes(t.CreatedAt)...)
	return append(key, t.Mint...)
}
