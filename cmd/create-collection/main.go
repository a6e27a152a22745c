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
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.nfo/data", "database directory path")
	cp := flag.String("c", "~/.nfo/config.toml", "configuration file path")
	name := flag.String("name", "Tosh's Collection", "collection name")
	symbol := flag.String("symbol", "TC", "collection symbol")
	uri := flag.String("uri", "https://purple-cheap-bobcat-47.mypinata.cloud/ipfs/bafkreihwjnzrooe3goh53roxwecbkn5yiq5kuzqc3ohvf6ny36aun4tt34", "collection metadata uri")
	flag.Parse()

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

	asset, err := minter.CreateCollection(ctx, nft.Params{Name: *name, Symbol: *symbol, URI: *uri})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created Collection 📦! Address is %s\n", sess.ExplorerLink("address", asset.Mint.String()))
}
