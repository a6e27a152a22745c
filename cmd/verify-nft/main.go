package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/messenger"
	"github.com/MixinNetwork/nfo-solana/nft"
	"github.com/MixinNetwork/nfo-solana/store"
	"github.com/gagliardetto/solana-go"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.nfo/data", "database directory path")
	cp := flag.String("c", "~/.nfo/config.toml", "configuration file path")
	cm := flag.String("collection", "H9an4eoe4qvHN8prpptrxrUtVadWRJ2SfTCznXqWNwVi", "collection mint address")
	nm := flag.String("nft", "EhVJLzqXnyypn95ZFL8QKVFSntRehk85JAQhcgAG9fwS", "nft mint address")
	flag.Parse()

	collection, err := solana.PublicKeyFromBase58(*cm)
	if err != nil {
		panic(err)
	}
	token, err := solana.PublicKeyFromBase58(*nm)
	if err != nil {
		panic(err)
	}
	conf, err := chain.Setup(*cp)
	if err != nil {
		panic(err)
	}
	db, err := store.OpenBadger(ctx, chain.ExpandPath(*bp))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	sess, err := chain.BuildSession(ctx, db, conf)
	if err != nil {
		panic(err)
	}
	fmt.Println("Loaded user:", sess.Identity())
	balance, airdropped, err := sess.EnsureFunded(ctx)
	if err != nil {
		panic(err)
	}
	logger.Printf("Balance %s SOL, airdropped %v\n", chain.FormatSOL(balance), airdropped)

	var notifier nft.Notifier
	mn, err := messenger.NewNotifier(&conf.Messenger)
	if err != nil {
		panic(err)
	} else if mn != nil {
		notifier = mn
	}
	minter := nft.NewMinter(sess, db, notifier)

	tx, err := minter.VerifyToken(ctx, collection, token)
	if err != nil {
		panic(err)
	}
	logger.Verbosef("VerifyToken(%s, %s) => %s\n", collection, token, tx.Signature)
	fmt.Printf("NFT %s verified as member of %s! See more details @ %s\n", token, collection, sess.ExplorerLink("address", token.String()))
}
