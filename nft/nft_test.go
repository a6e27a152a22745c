package nft_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/chain/chaintest"
	"github.com/MixinNetwork/nfo-solana/nft"
	"github.com/MixinNetwork/nfo-solana/store"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

var (
	collectionParams = nft.Params{
		Name:   "Tosh's Collection",
		Symbol: "TC",
		URI:    "https://purple-cheap-bobcat-47.mypinata.cloud/ipfs/bafkreihwjnzrooe3goh53roxwecbkn5yiq5kuzqc3ohvf6ny36aun4tt34",
	}
	tokenParams = nft.Params{
		Name:   "Tosh NFT 1",
		Symbol: "T-NFT-1",
		URI:    "https://purple-cheap-bobcat-47.mypinata.cloud/ipfs/bafkreignztfeqo77xzbh5vjssrm4nto3tit57l2uiu7vxg6sft5wffx3tm",
	}
)

type recordingNotifier struct {
	sync.Mutex
	texts []string
}

func (rn *recordingNotifier) Notify(ctx context.Context, traceId, text string) error {
	rn.Lock()
	defer rn.Unlock()
	rn.texts = append(rn.texts, text)
	return nil
}

type testEnv struct {
	ledger   *chaintest.Ledger
	store    *store.BadgerStore
	sess     *chain.Session
	minter   *nft.Minter
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, ledger *chaintest.Ledger) *testEnv {
	require := require.New(t)

	conf, err := chain.Setup(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(err)
	conf.Confirm.IntervalMs = 1

	bs, err := store.OpenBadger(context.Background(), "")
	require.NoError(err)
	t.Cleanup(func() { bs.Close() })

	identity, err := solana.NewRandomPrivateKey()
	require.NoError(err)
	sess, err := chain.NewSession(ledger, bs, identity, conf)
	require.NoError(err)
	_, airdropped, err := sess.EnsureFunded(context.Background())
	require.NoError(err)
	require.True(airdropped)

	notifier := &recordingNotifier{}
	return &testEnv{
		ledger:   ledger,
		store:    bs,
		sess:     sess,
		minter:   nft.NewMinter(sess, bs, notifier),
		notifier: notifier,
	}
}

func TestCreateCollection(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, chaintest.New())

	asset, err := env.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)
	require.True(asset.IsCollection())
	require.Equal(uint16(0), asset.Metadata.Data.SellerFeeBasisPoints)
	require.Equal(collectionParams.Name, asset.Metadata.Data.Name)
	require.Equal(collectionParams.URI, asset.Metadata.Data.Uri)
	require.Equal(env.sess.Identity(), asset.Metadata.UpdateAuthority)
	require.Nil(asset.CollectionKey())
	require.NotNil(asset.Edition)
	require.NotNil(asset.Edition.MaxSupply)
	require.Equal(uint64(0), *asset.Edition.MaxSupply)

	c, err := env.store.ReadCollection(asset.Mint.String())
	require.NoError(err)
	require.NotNil(c)
	require.Equal(env.sess.Identity().String(), c.Authority)
	require.Equal(0, c.Circulation)

	require.Len(env.notifier.texts, 1)
	require.Contains(env.notifier.texts[0], "Created Collection")
	require.Contains(env.notifier.texts[0], asset.Mint.String()+"?cluster=devnet")

	// every run mints a fresh collection
	again, err := env.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)
	require.NotEqual(asset.Mint, again.Mint)
	cs, err := env.store.ListCollections(0)
	require.NoError(err)
	require.Len(cs, 2)
}

func TestMintToken(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, chaintest.New())

	collection, err := env.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)

	asset, err := env.minter.MintToken(ctx, collection.Mint, tokenParams)
	require.NoError(err)
	require.False(asset.IsCollection())
	require.NotNil(asset.CollectionKey())
	require.Equal(collection.Mint, *asset.CollectionKey())
	require.False(asset.Verified())
	require.Equal(uint16(0), asset.Metadata.Data.SellerFeeBasisPoints)
	require.Equal(tokenParams.Symbol, asset.Metadata.Data.Symbol)

	token, err := env.store.ReadToken(asset.Mint.String())
	require.NoError(err)
	require.Equal(nft.TokenStateMinted, token.State)
	require.Equal(collection.Mint.String(), token.Collection)
	require.Equal(tokenParams.Name, token.Name)

	// minting into a collection created elsewhere is still recorded
	stray := solana.NewWallet().PublicKey()
	_, err = env.minter.MintToken(ctx, stray, tokenParams)
	require.NoError(err)
	ts, err := env.store.ListAllTokens(0)
	require.NoError(err)
	require.Len(ts, 2)
	require.Equal(stray.String(), ts[1].Collection)
	ts, err = env.store.ListTokens(stray.String(), 0)
	require.NoError(err)
	require.Len(ts, 1)
}

func TestMintTokenInvalidMetadata(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t, chaintest.New())

	p := tokenParams
	p.Name = strings.Repeat("x", 33)
	_, err := env.minter.MintToken(context.Background(), solana.NewWallet().PublicKey(), p)
	require.ErrorIs(err, nft.ErrInvalidMetadata)
	require.Equal(0, env.ledger.Sent())
}

func TestVerifyToken(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, chaintest.New())

	collection, err := env.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)
	asset, err := env.minter.MintToken(ctx, collection.Mint, tokenParams)
	require.NoError(err)

	env.ledger.ConfirmAfter = 2
	tx, err := env.minter.VerifyToken(ctx, collection.Mint, asset.Mint)
	require.NoError(err)
	require.Equal(chain.TransactionStateConfirmed, tx.State)

	asset, err = env.minter.FetchAsset(ctx, asset.Mint)
	require.NoError(err)
	require.True(asset.Verified())

	collection, err = env.minter.FetchAsset(ctx, collection.Mint)
	require.NoError(err)
	require.Equal(uint64(1), collection.Metadata.CollectionSize())

	token, err := env.store.ReadToken(asset.Mint.String())
	require.NoError(err)
	require.Equal(nft.TokenStateVerified, token.State)
	require.Equal(tokenParams.Name, token.Name)
	c, err := env.store.ReadCollection(collection.Mint.String())
	require.NoError(err)
	require.Equal(1, c.Circulation)

	last := env.notifier.texts[len(env.notifier.texts)-1]
	require.Contains(last, "verified as member of "+collection.Mint.String())

	_, err = env.minter.VerifyToken(ctx, collection.Mint, asset.Mint)
	require.ErrorIs(err, chaintest.ErrAlreadyVerified)
}

func TestVerifyTokenWrongAuthority(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	ledger := chaintest.New()
	owner := newTestEnv(t, ledger)
	intruder := newTestEnv(t, ledger)

	collection, err := owner.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)
	asset, err := owner.minter.MintToken(ctx, collection.Mint, tokenParams)
	require.NoError(err)

	_, err = intruder.minter.VerifyToken(ctx, collection.Mint, asset.Mint)
	require.ErrorIs(err, chaintest.ErrInvalidCollectionAuthority)

	asset, err = owner.minter.FetchAsset(ctx, asset.Mint)
	require.NoError(err)
	require.False(asset.Verified())

	txs, err := intruder.store.ListTransactions(chain.TransactionStateFailed, 0)
	require.NoError(err)
	require.Len(txs, 1)
	require.Equal(nft.KindVerifyCollection, txs[0].Kind)
	token, err := intruder.store.ReadToken(asset.Mint.String())
	require.NoError(err)
	require.Nil(token)
}

func TestVerifyTokenOtherCollection(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, chaintest.New())

	first, err := env.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)
	second, err := env.minter.CreateCollection(ctx, collectionParams)
	require.NoError(err)
	asset, err := env.minter.MintToken(ctx, first.Mint, tokenParams)
	require.NoError(err)

	_, err = env.minter.VerifyToken(ctx, second.Mint, asset.Mint)
	require.ErrorIs(err, chaintest.ErrCollectionMismatch)

	// a collection root references no collection
	require.Nil(second.CollectionKey())
	_, err = env.minter.VerifyToken(ctx, first.Mint, second.Mint)
	require.ErrorIs(err, chaintest.ErrCollectionMismatch)
}

func TestFetchAssetNotFound(t *testing.T) {
	env := newTestEnv(t, chaintest.New())
	_, err := env.minter.FetchAsset(context.Background(), solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, nft.ErrAssetNotFound)
}
