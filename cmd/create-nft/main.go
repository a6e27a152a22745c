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
	name := flag.String("name", "Tosh NFT 1", "nft name")
	symbol := flag.String("symbol", "T-NFT-1", "nft symbol")
	uri := flag.String("uri", "https://purple-cheap-bobcat-47.mypinata.cloud/ipfs/bafkreignztfeqo77xzbh5vjssrm4nto3tit57l2uiu7vxg6sft5wffx3tm", "nft metadata uri")
	flag.Parse()

	collection, err := solana.PublicKeyFromBase58(*cm)
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
	minter.Propagation = conf.PropagationDelay()

	fmt.Println("Creating NFT...")
	asset, err := minter.MintToken(ctx, collection, nft.Params{Name: *name, Symbol: *symbol, URI: *uri})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created NFT! Address is %s\n", sess.ExplorerLink("address", asset.Mint.String()))
}
