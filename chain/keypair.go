package chain

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// LoadKeypair reads a solana-keygen JSON array file, or a file holding the
// base58 encoded 64 byte secret key.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("[")) {
		return solana.PrivateKeyFromSolanaKeygenFile(path)
	}
	raw, err := base58.Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("keypair %s: %w", path, err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("keypair %s: invalid length %d", path, len(raw))
	}
	return solana.PrivateKey(raw), nil
}
