package metaplex

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	InstructionCreateMasterEditionV3   = 17
	InstructionCreateMetadataAccountV3 = 33
	InstructionVerify                  = 52
)

const (
	VerificationCreatorV1    = 0
	VerificationCollectionV1 = 1
)

const (
	MaxNameLength          = 32
	MaxSymbolLength        = 10
	MaxURILength           = 200
	MaxSellerFeeBasisPoint = 10000
)

type CreateMetadataAccountV3Args struct {
	Instruction       uint8
	Data              DataV2
	IsMutable         bool
	CollectionDetails *CollectionDetails `bin:"optional"`
}

type CreateMasterEditionV3Args struct {
	Instruction uint8
	MaxSupply   *uint64 `bin:"optional"`
}

type VerifyArgs struct {
	Instruction uint8
	Args        uint8
}

type CreateMetadataAccounts struct {
	Metadata        solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	UpdateAuthority solana.PublicKey
}

func ValidateData(data *DataV2) error {
	if len(data.Name) > MaxNameLength {
		return fmt.Errorf("name too long %d/%d", len(data.Name), MaxNameLength)
	}
	if len(data.Symbol) > MaxSymbolLength {
		return fmt.Errorf("symbol too long %d/%d", len(data.Symbol), MaxSymbolLength)
	}
	if len(data.Uri) > MaxURILength {
		return fmt.Errorf("uri too long %d/%d", len(data.Uri), MaxURILength)
	}
	if data.SellerFeeBasisPoints > MaxSellerFeeBasisPoint {
		return fmt.Errorf("invalid seller fee basis points %d", data.SellerFeeBasisPoints)
	}
	return nil
}

func NewCreateMetadataAccountV3Instruction(accounts CreateMetadataAccounts, data DataV2, collectionDetails *CollectionDetails) (solana.Instruction, error) {
	err := ValidateData(&data)
	if err != nil {
		return nil, err
	}
	buf, err := bin.MarshalBorsh(CreateMetadataAccountV3Args{
		Instruction:       InstructionCreateMetadataAccountV3,
		Data:              data,
		IsMutable:         true,
		CollectionDetails: collectionDetails,
	})
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Metadata, true, false),
		solana.NewAccountMeta(accounts.Mint, false, false),
		solana.NewAccountMeta(accounts.MintAuthority, false, true),
		solana.NewAccountMeta(accounts.Payer, true, true),
		solana.NewAccountMeta(accounts.UpdateAuthority, false, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, buf), nil
}

type CreateMasterEditionAccounts struct {
	Edition         solana.PublicKey
	Mint            solana.PublicKey
	UpdateAuthority solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	Metadata        solana.PublicKey
}

func NewCreateMasterEditionV3Instruction(accounts CreateMasterEditionAccounts, maxSupply *uint64) (solana.Instruction, error) {
	buf, err := bin.MarshalBorsh(CreateMasterEditionV3Args{
		Instruction: InstructionCreateMasterEditionV3,
		MaxSupply:   maxSupply,
	})
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Edition, true, false),
		solana.NewAccountMeta(accounts.Mint, true, false),
		solana.NewAccountMeta(accounts.UpdateAuthority, false, true),
		solana.NewAccountMeta(accounts.MintAuthority, false, true),
		solana.NewAccountMeta(accounts.Payer, true, true),
		solana.NewAccountMeta(accounts.Metadata, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, buf), nil
}

type VerifyCollectionAccounts struct {
	Authority               solana.PublicKey
	Metadata                solana.PublicKey
	CollectionMint          solana.PublicKey
	CollectionMetadata      solana.PublicKey
	CollectionMasterEdition solana.PublicKey
}

// NewVerifyCollectionV1Instruction builds Verify(CollectionV1). The delegate
// record is absent, which the program expects as its own id.
func NewVerifyCollectionV1Instruction(accounts VerifyCollectionAccounts) (solana.Instruction, error) {
	buf, err := bin.MarshalBorsh(VerifyArgs{
		Instruction: InstructionVerify,
		Args:        VerificationCollectionV1,
	})
	if err != nil {
		return nil, err
	}
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Authority, false, true),
		solana.NewAccountMeta(ProgramID, false, false),
		solana.NewAccountMeta(accounts.Metadata, true, false),
		solana.NewAccountMeta(accounts.CollectionMint, false, false),
		solana.NewAccountMeta(accounts.CollectionMetadata, true, false),
		solana.NewAccountMeta(accounts.CollectionMasterEdition, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarInstructionsPubkey, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, buf), nil
}

func DecodeCreateMetadataAccountV3Args(data []byte) (*CreateMetadataAccountV3Args, error) {
	var args CreateMetadataAccountV3Args
	err := bin.UnmarshalBorsh(&args, data)
	if err != nil || args.Instruction != InstructionCreateMetadataAccountV3 {
		return nil, fmt.Errorf("invalid create metadata args %v", err)
	}
	return &args, nil
}

func DecodeCreateMasterEditionV3Args(data []byte) (*CreateMasterEditionV3Args, error) {
	var args CreateMasterEditionV3Args
	err := bin.UnmarshalBorsh(&args, data)
	if err != nil || args.Instruction != InstructionCreateMasterEditionV3 {
		return nil, fmt.Errorf("invalid create master edition args %v", err)
	}
	return &args, nil
}

func DecodeVerifyArgs(data []byte) (*VerifyArgs, error) {
	var args VerifyArgs
	err := bin.UnmarshalBorsh(&args, data)
	if err != nil || args.Instruction != InstructionVerify {
		return nil, fmt.Errorf("invalid verify args %v", err)
	}
	return &args, nil
}
