package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixTransactionPayload = "TRANSACTION:PAYLOAD:"
	prefixTransactionState   = "TRANSACTION:STATE:"
)

func (bs *BadgerStore) WriteTransaction(traceId string, tx *chain.Transaction) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.resetOldTransaction(txn, tx)
		if err != nil || old != nil {
			return err
		}
		key := []byte(prefixTransactionPayload + traceId)
		val := common.MsgpackMarshalPanic(tx)
		err = txn.Set(key, val)
		if err != nil {
			return err
		}

		key = buildTransactionTimedKey(tx)
		return txn.Set(key, []byte{1})
	})
}

func (bs *BadgerStore) ReadTransaction(traceId string) (*chain.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readTransaction(txn, traceId)
}

func (bs *BadgerStore) ListTransactions(state int, limit int) ([]*chain.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var txs []*chain.Transaction
	err := listIndex(txn, transactionStatePrefix(state), limit, func(id string) error {
		tx, err := bs.readTransaction(txn, id)
		if err != nil {
			return err
		}
		txs = append(txs, tx)
		return nil
	})
	return txs, err
}

func (bs *BadgerStore) readTransaction(txn *badger.Txn, traceId string) (*chain.Transaction, error) {
	val, err := readPayload(txn, []byte(prefixTransactionPayload+traceId))
	if err != nil || val == nil {
		return nil, err
	}
	var tx chain.Transaction
	err = common.MsgpackUnmarshal(val, &tx)
	return &tx, err
}

// confirmed and failed are terminal, later writes for the trace are ignored
func (bs *BadgerStore) resetOldTransaction(txn *badger.Txn, tx *chain.Transaction) (*chain.Transaction, error) {
	old, err := bs.readTransaction(txn, tx.TraceId)
	if err != nil || old == nil {
		return nil, err
	}
	if old.State >= chain.TransactionStateConfirmed {
		return old, nil
	}

	key := buildTransactionTimedKey(old)
	return nil, txn.Delete(key)
}

func buildTransactionTimedKey(tx *chain.Transaction) []byte {
	prefix := transactionStatePrefix(tx.State)
	key := append([]byte(prefix), tsToBytes(tx.UpdatedAt)...)
	return append(key, []byte(tx.TraceId)...)
}

func transactionStatePrefix(state int) string {
	prefix := prefixTransactionState
	switch state {
	case chain.TransactionStateInitial:
		return prefix + "initiall"
	case chain.TransactionStateSent:
		return prefix + "senttttt"
	case chain.TransactionStateConfirmed:
		return prefix + "confirmd"
	case chain.TransactionStateFailed:
		return prefix + "faileddd"
	}
	panic(state)
}
