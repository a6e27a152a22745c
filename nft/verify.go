package nft

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/metaplex"
	"github.com/gagliardetto/solana-go"
)

// VerifyToken marks token as a verified member of collection. The session
// identity signs as the collection authority; the ledger rejects the
// transaction when it is not. It only returns after confirmation.
func (m *Minter) VerifyToken(ctx context.Context, collection, token solana.PublicKey) (*chain.Transaction, error) {
	metadata, err := metaplex.FindMetadataAddress(token)
	if err != nil {
		return nil, err
	}
	collectionMetadata, err := metaplex.FindMetadataAddress(collection)
	if err != nil {
		return nil, err
	}
	collectionEdition, err := metaplex.FindMasterEditionAddress(collection)
	if err != nil {
		return nil, err
	}
	ix, err := metaplex.NewVerifyCollectionV1Instruction(metaplex.VerifyCollectionAccounts{
		Authority:               m.sess.Identity(),
		Metadata:                metadata,
		CollectionMint:          collection,
		CollectionMetadata:      collectionMetadata,
		CollectionMasterEdition: collectionEdition,
	})
	if err != nil {
		return nil, err
	}

	logger.Printf("Minter.VerifyToken(%s, %s)\n", collection, token)
	tx, err := m.sess.SendAndConfirm(ctx, KindVerifyCollection, []solana.Instruction{ix})
	if err != nil {
		return nil, err
	}

	old, err := m.store.ReadToken(token.String())
	if err != nil {
		return nil, err
	}
	t := &Token{
		Mint:       token.String(),
		Collection: collection.String(),
		State:      TokenStateVerified,
		CreatedAt:  tx.UpdatedAt,
		UpdatedAt:  tx.UpdatedAt,
	}
	if old != nil {
		t.Name, t.Symbol, t.URI = old.Name, old.Symbol, old.URI
	}
	err = m.store.WriteToken(t)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("NFT %s verified as member of %s! See more details @ %s", token, collection, m.sess.ExplorerLink("address", token.String()))
	m.notify(ctx, tx, text)
	return tx, nil
}
