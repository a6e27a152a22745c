package store

import (
	"context"
	"testing"
	"time"

	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/nft"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *BadgerStore {
	bs, err := OpenBadger(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })
	return bs
}

func TestProperty(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)

	val, err := bs.ReadProperty([]byte("missing"))
	require.NoError(err)
	require.Nil(val)

	require.NoError(bs.WriteProperty([]byte("key"), []byte("value")))
	val, err = bs.ReadProperty([]byte("key"))
	require.NoError(err)
	require.Equal([]byte("value"), val)
}

func TestTransactionStates(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)

	now := time.Now()
	tx := &chain.Transaction{
		TraceId:   "2b3c8a9e-43a4-4b0e-9a4f-6a1f8ad0c1de",
		Kind:      "create-collection",
		State:     chain.TransactionStateInitial,
		UpdatedAt: now,
	}
	require.NoError(bs.WriteTransaction(tx.TraceId, tx))
	txs, err := bs.ListTransactions(chain.TransactionStateInitial, 0)
	require.NoError(err)
	require.Len(txs, 1)

	tx.State = chain.TransactionStateSent
	tx.Signature = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	tx.UpdatedAt = now.Add(time.Second)
	require.NoError(bs.WriteTransaction(tx.TraceId, tx))
	txs, err = bs.ListTransactions(chain.TransactionStateInitial, 0)
	require.NoError(err)
	require.Len(txs, 0)
	txs, err = bs.ListTransactions(chain.TransactionStateSent, 0)
	require.NoError(err)
	require.Len(txs, 1)
	require.Equal(tx.Signature, txs[0].Signature)

	tx.State = chain.TransactionStateConfirmed
	tx.UpdatedAt = now.Add(2 * time.Second)
	require.NoError(bs.WriteTransaction(tx.TraceId, tx))

	// terminal states stick
	tx.State = chain.TransactionStateFailed
	tx.Error = "late failure"
	tx.UpdatedAt = now.Add(3 * time.Second)
	require.NoError(bs.WriteTransaction(tx.TraceId, tx))

	old, err := bs.ReadTransaction(tx.TraceId)
	require.NoError(err)
	require.Equal(chain.TransactionStateConfirmed, old.State)
	require.Empty(old.Error)
	txs, err = bs.ListTransactions(chain.TransactionStateFailed, 0)
	require.NoError(err)
	require.Len(txs, 0)
	txs, err = bs.ListTransactions(chain.TransactionStateConfirmed, 0)
	require.NoError(err)
	require.Len(txs, 1)
}

func TestListTransactionsLimit(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)

	now := time.Now()
	for i, id := range []string{
		"a1c0f6f0-1f4e-4f6e-8d51-0a1c2e3f4a51",
		"b2c0f6f0-1f4e-4f6e-8d51-0a1c2e3f4a52",
		"c3c0f6f0-1f4e-4f6e-8d51-0a1c2e3f4a53",
	} {
		tx := &chain.Transaction{
			TraceId:   id,
			State:     chain.TransactionStateSent,
			UpdatedAt: now.Add(time.Duration(3-i) * time.Second),
		}
		require.NoError(bs.WriteTransaction(id, tx))
	}
	txs, err := bs.ListTransactions(chain.TransactionStateSent, 2)
	require.NoError(err)
	require.Len(txs, 2)
	require.Equal("c3c0f6f0-1f4e-4f6e-8d51-0a1c2e3f4a53", txs[0].TraceId)
}

func TestTokenLifecycle(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)

	collection := &nft.Collection{
		Mint:      "H9an4eoe4qvHN8prpptrxrUtVadWRJ2SfTCznXqWNwVi",
		Authority: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		Name:      "Tosh's Collection",
		Symbol:    "TC",
		CreatedAt: time.Now(),
	}
	require.NoError(bs.WriteCollection(collection))

	token := &nft.Token{
		Mint:       "EhVJLzqXnyypn95ZFL8QKVFSntRehk85JAQhcgAG9fwS",
		Collection: collection.Mint,
		Name:       "Tosh NFT 1",
		State:      nft.TokenStateMinted,
		CreatedAt:  time.Now(),
	}
	require.NoError(bs.WriteToken(token))

	ts, err := bs.ListTokens(collection.Mint, 0)
	require.NoError(err)
	require.Len(ts, 1)
	require.Equal(nft.TokenStateMinted, ts[0].State)

	verified := *token
	verified.State = nft.TokenStateVerified
	verified.UpdatedAt = time.Now()
	require.NoError(bs.WriteToken(&verified))
	// repeating the verification must not count twice
	require.NoError(bs.WriteToken(&verified))
	// and a stale minted write must not move it back
	require.NoError(bs.WriteToken(token))

	old, err := bs.ReadToken(token.Mint)
	require.NoError(err)
	require.Equal(nft.TokenStateVerified, old.State)

	c, err := bs.ReadCollection(collection.Mint)
	require.NoError(err)
	require.Equal(1, c.Circulation)

	ts, err = bs.ListTokens(collection.Mint, 0)
	require.NoError(err)
	require.Len(ts, 1)

	// refreshing the collection keeps its circulation
	collection.Name = "Renamed"
	require.NoError(bs.WriteCollection(collection))
	c, err = bs.ReadCollection(collection.Mint)
	require.NoError(err)
	require.Equal("Renamed", c.Name)
	require.Equal(1, c.Circulation)
	cs, err := bs.ListCollections(0)
	require.NoError(err)
	require.Len(cs, 1)
}

func TestTokenUnknownCollection(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)

	token := &nft.Token{
		Mint:       "EhVJLzqXnyypn95ZFL8QKVFSntRehk85JAQhcgAG9fwS",
		Collection: "H9an4eoe4qvHN8prpptrxrUtVadWRJ2SfTCznXqWNwVi",
		State:      nft.TokenStateVerified,
		CreatedAt:  time.Now(),
	}
	require.NoError(bs.WriteToken(token))

	c, err := bs.ReadCollection(token.Collection)
	require.NoError(err)
	require.Nil(c)

	ts, err := bs.ListTokens("H9an4eoe4qvHN8prpptrxrUtVadWRJ2SfTCznXqWNwV", 0)
	require.NoError(err)
	require.Len(ts, 0)

	ts, err = bs.ListAllTokens(0)
	require.NoError(err)
	require.Len(ts, 1)
	require.Equal(token.Mint, ts[0].Mint)
	require.Equal(token.Collection, ts[0].Collection)
}

func TestListAllTokens(t *testing.T) {
	require := require.New(t)
	bs := testStore(t)

	known := &nft.Collection{
		Mint:      "H9an4eoe4qvHN8prpptrxrUtVadWRJ2SfTCznXqWNwVi",
		Name:      "Tosh's Collection",
		CreatedAt: time.Now(),
	}
	require.NoError(bs.WriteCollection(known))

	now := time.Now()
	tokens := []*nft.Token{{
		Mint:       "EhVJLzqXnyypn95ZFL8QKVFSntRehk85JAQhcgAG9fwS",
		Collection: known.Mint,
		State:      nft.TokenStateMinted,
		CreatedAt:  now,
	}, {
		Mint:       "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Collection: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		State:      nft.TokenStateMinted,
		CreatedAt:  now.Add(time.Second),
	}}
	for _, token := range tokens {
		require.NoError(bs.WriteToken(token))
	}
	// verifying keeps a single index entry
	verified := *tokens[0]
	verified.State = nft.TokenStateVerified
	require.NoError(bs.WriteToken(&verified))

	ts, err := bs.ListAllTokens(0)
	require.NoError(err)
	require.Len(ts, 2)
	require.Equal(tokens[0].Mint, ts[0].Mint)
	require.Equal(nft.TokenStateVerified, ts[0].State)
	require.Equal(tokens[1].Mint, ts[1].Mint)

	ts, err = bs.ListAllTokens(1)
	require.NoError(err)
	require.Len(ts, 1)
}
