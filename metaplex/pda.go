package metaplex

import (
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// FindMetadataAddress derives the metadata PDA, seeds ["metadata", program, mint].
func FindMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte("metadata"),
		ProgramID.Bytes(),
		mint.Bytes(),
	}, ProgramID)
	return addr, err
}

func FindMasterEditionAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte("metadata"),
		ProgramID.Bytes(),
		mint.Bytes(),
		[]byte("edition"),
	}, ProgramID)
	return addr, err
}
