package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/MixinNetwork/nfo-solana/nft"
	"github.com/MixinNetwork/nfo-solana/store"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.nfo/data", "database directory path")
	cp := flag.String("c", "~/.nfo/config.toml", "configuration file path")
	limit := flag.Int("limit", 100, "maximum sent transactions to reconcile")
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
	txs, err := sess.Reconcile(ctx, *limit)
	if err != nil {
		panic(err)
	}
	for _, tx := range txs {
		fmt.Printf("%s %s %s %s\n", tx.TraceId, tx.Kind, chain.TransactionStateName(tx.State), sess.ExplorerLink("transaction", tx.Signature))
	}

	cs, err := db.ListCollections(0)
	if err != nil {
		panic(err)
	}
	for _, c := range cs {
		fmt.Printf("Collection %s %s (%s) circulation %d\n", c.Mint, c.Name, c.Symbol, c.Circulation)
	}

	ts, err := db.ListAllTokens(0)
	if err != nil {
		panic(err)
	}
	for _, t := range ts {
		fmt.Printf("Token %s %s of %s %s\n", t.Mint, t.Name, t.Collection, nft.TokenStateName(t.State))
	}
}
