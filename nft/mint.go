package nft

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/metaplex"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

const (
	mintAccountSize = 82

	KindCreateCollection = "create-collection"
	KindCreateNFT        = "create-nft"
	KindVerifyCollection = "verify-collection"
)

// Params describes the metadata of an NFT to create. SellerFeeBasisPoints
// is the royalty, 100 basis points are 1%.
type Params struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
}

type Minter struct {
	sess     *chain.Session
	store    Store
	notifier Notifier

	// Propagation is waited after a mint is confirmed before fetching it back.
	Propagation time.Duration
}

func NewMinter(sess *chain.Session, store Store, notifier Notifier) *Minter {
	return &Minter{
		sess:     sess,
		store:    store,
		notifier: notifier,
	}
}

// CreateCollection mints a zero supply NFT marked as a collection root.
func (m *Minter) CreateCollection(ctx context.Context, p Params) (*Asset, error) {
	mint, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	details := &metaplex.CollectionDetails{V1: metaplex.CollectionDetailsV1{Size: 0}}
	tx, err := m.createNFT(ctx, KindCreateCollection, mint, p, nil, details)
	if err != nil {
		return nil, err
	}

	asset, err := m.FetchAsset(ctx, mint.PublicKey())
	if err != nil {
		return nil, err
	}
	err = m.store.WriteCollection(&Collection{
		Mint:      asset.Mint.String(),
		Authority: asset.Metadata.UpdateAuthority.String(),
		Name:      asset.Metadata.Data.Name,
		Symbol:    asset.Metadata.Data.Symbol,
		URI:       asset.Metadata.Data.Uri,
		CreatedAt: tx.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	m.notify(ctx, tx, fmt.Sprintf("Created Collection 📦! Address is %s", m.sess.ExplorerLink("address", asset.Mint.String())))
	return asset, nil
}

// MintToken mints an NFT that references collection without verifying it.
func (m *Minter) MintToken(ctx context.Context, collection solana.PublicKey, p Params) (*Asset, error) {
	mint, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	ref := &metaplex.Collection{Key: collection, Verified: false}
	tx, err := m.createNFT(ctx, KindCreateNFT, mint, p, ref, nil)
	if err != nil {
		return nil, err
	}

	if m.Propagation > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Propagation):
		}
	}
	asset, err := m.FetchAsset(ctx, mint.PublicKey())
	if err != nil {
		return nil, err
	}
	err = m.store.WriteToken(&Token{
		Mint:       asset.Mint.String(),
		Collection: collection.String(),
		Name:       asset.Metadata.Data.Name,
		Symbol:     asset.Metadata.Data.Symbol,
		URI:        asset.Metadata.Data.Uri,
		State:      TokenStateMinted,
		CreatedAt:  tx.UpdatedAt,
		UpdatedAt:  tx.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	m.notify(ctx, tx, fmt.Sprintf("Created NFT! Address is %s", m.sess.ExplorerLink("address", asset.Mint.String())))
	return asset, nil
}

func (m *Minter) createNFT(ctx context.Context, kind string, mint solana.PrivateKey, p Params, collection *metaplex.Collection, details *metaplex.CollectionDetails) (*chain.Transaction, error) {
	ixs, err := m.buildCreateInstructions(ctx, mint.PublicKey(), p, collection, details)
	if err != nil {
		return nil, err
	}
	logger.Printf("Minter.createNFT(%s, %s) => %s\n", kind, p.Name, mint.PublicKey())
	return m.sess.SendAndConfirm(ctx, kind, ixs, mint)
}

// buildCreateInstructions allocates the mint, mints exactly one token to the
// identity's associated token account, then attaches metadata and a master
// edition with zero max supply.
func (m *Minter) buildCreateInstructions(ctx context.Context, mint solana.PublicKey, p Params, collection *metaplex.Collection, details *metaplex.CollectionDetails) ([]solana.Instruction, error) {
	identity := m.sess.Identity()
	data := metaplex.DataV2{
		Name:                 p.Name,
		Symbol:               p.Symbol,
		Uri:                  p.URI,
		SellerFeeBasisPoints: p.SellerFeeBasisPoints,
		Creators:             &[]metaplex.Creator{{Address: identity, Verified: true, Share: 100}},
		Collection:           collection,
	}
	err := metaplex.ValidateData(&data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	rent, err := m.sess.RentExemption(ctx, mintAccountSize)
	if err != nil {
		return nil, err
	}
	ata, _, err := solana.FindAssociatedTokenAddress(identity, mint)
	if err != nil {
		return nil, err
	}
	metadata, err := metaplex.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	edition, err := metaplex.FindMasterEditionAddress(mint)
	if err != nil {
		return nil, err
	}

	createMetadata, err := metaplex.NewCreateMetadataAccountV3Instruction(metaplex.CreateMetadataAccounts{
		Metadata:        metadata,
		Mint:            mint,
		MintAuthority:   identity,
		Payer:           identity,
		UpdateAuthority: identity,
	}, data, details)
	if err != nil {
		return nil, err
	}
	var maxSupply uint64
	createEdition, err := metaplex.NewCreateMasterEditionV3Instruction(metaplex.CreateMasterEditionAccounts{
		Edition:         edition,
		Mint:            mint,
		UpdateAuthority: identity,
		MintAuthority:   identity,
		Payer:           identity,
		Metadata:        metadata,
	}, &maxSupply)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{
		system.NewCreateAccountInstruction(rent, mintAccountSize, solana.TokenProgramID, identity, mint).Build(),
		token.NewInitializeMintInstruction(0, identity, identity, mint, solana.SysVarRentPubkey).Build(),
		associatedtokenaccount.NewCreateInstruction(identity, identity, mint).Build(),
		token.NewMintToInstruction(1, mint, ata, identity, nil).Build(),
		createMetadata,
		createEdition,
	}, nil
}

func (m *Minter) notify(ctx context.Context, tx *chain.Transaction, text string) {
	if m.notifier == nil {
		return
	}
	err := m.notifier.Notify(ctx, tx.TraceId, text)
	if err != nil {
		logger.Printf("Minter.notify(%s) => %v\n", tx.TraceId, err)
	}
}
