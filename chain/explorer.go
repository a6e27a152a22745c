package chain

import (
	"net/url"

	"github.com/gagliardetto/solana-go/rpc"
)

const explorerBase = "https://explorer.solana.com/"

// ExplorerLink formats a Solana Explorer URL for an address, tx or block.
func ExplorerLink(kind, id, cluster string) string {
	if kind == "transaction" {
		kind = "tx"
	}
	u := explorerBase + kind + "/" + id
	switch cluster {
	case rpc.MainNetBeta.Name, "":
		return u
	case rpc.LocalNet.Name, "localhost":
		return u + "?cluster=custom&customUrl=" + url.QueryEscape(rpc.LocalNet.RPC)
	}
	return u + "?cluster=" + url.QueryEscape(cluster)
}
