package nft

import (
	"context"
	"errors"
	"fmt"

	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/metaplex"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// Asset is a mint together with its decoded metadata and, when present,
// its master edition.
type Asset struct {
	Mint     solana.PublicKey
	Metadata *metaplex.Metadata
	Edition  *metaplex.MasterEdition
}

func (a *Asset) IsCollection() bool {
	return a.Metadata.IsCollection()
}

// CollectionKey returns the referenced collection, nil when there is none.
func (a *Asset) CollectionKey() *solana.PublicKey {
	if a.Metadata.Collection == nil {
		return nil
	}
	return &a.Metadata.Collection.Key
}

func (a *Asset) Verified() bool {
	return a.Metadata.Collection != nil && a.Metadata.Collection.Verified
}

func (m *Minter) FetchAsset(ctx context.Context, mint solana.PublicKey) (*Asset, error) {
	addr, err := metaplex.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	data, err := m.sess.GetAccount(ctx, addr)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, mint)
	} else if err != nil {
		return nil, err
	}
	md, err := metaplex.DecodeMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if !md.Mint.Equals(mint) {
		return nil, fmt.Errorf("%w: mint mismatch %s %s", ErrInvalidMetadata, md.Mint, mint)
	}
	asset := &Asset{Mint: mint, Metadata: md}

	addr, err = metaplex.FindMasterEditionAddress(mint)
	if err != nil {
		return nil, err
	}
	data, err = m.sess.GetAccount(ctx, addr)
	if errors.Is(err, chain.ErrAccountNotFound) {
		return asset, nil
	} else if err != nil {
		return nil, err
	}
	asset.Edition, err = metaplex.DecodeMasterEdition(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return asset, nil
}
