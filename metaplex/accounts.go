package metaplex

import (
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	KeyUninitialized   = 0
	KeyEditionV1       = 1
	KeyMasterEditionV1 = 2
	KeyMetadataV1      = 4
	KeyMasterEditionV2 = 6
)

const TokenStandardNonFungible = 0

type Data struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator `bin:"optional"`
}

type DataV2 struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator  `bin:"optional"`
	Collection           *Collection `bin:"optional"`
	Uses                 *Uses       `bin:"optional"`
}

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

type Uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

// CollectionDetails marks a metadata account as a collection root.
type CollectionDetails struct {
	Enum bin.BorshEnum `borsh_enum:"true"`
	V1   CollectionDetailsV1
	V2   CollectionDetailsV2
}

type CollectionDetailsV1 struct {
	Size uint64
}

type CollectionDetailsV2 struct {
	Padding [8]uint8
}

type ProgrammableConfig struct {
	Enum bin.BorshEnum `borsh_enum:"true"`
	V1   ProgrammableConfigV1
}

type ProgrammableConfigV1 struct {
	RuleSet *solana.PublicKey `bin:"optional"`
}

type Metadata struct {
	Key                 uint8
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8              `bin:"optional"`
	TokenStandard       *uint8              `bin:"optional"`
	Collection          *Collection         `bin:"optional"`
	Uses                *Uses               `bin:"optional"`
	CollectionDetails   *CollectionDetails  `bin:"optional"`
	ProgrammableConfig  *ProgrammableConfig `bin:"optional"`
}

type MasterEdition struct {
	Key       uint8
	Supply    uint64
	MaxSupply *uint64 `bin:"optional"`
}

func DecodeMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	err := bin.UnmarshalBorsh(&md, data)
	if err != nil {
		return nil, fmt.Errorf("metadata decode: %w", err)
	}
	if md.Key != KeyMetadataV1 {
		return nil, fmt.Errorf("metadata decode: unexpected key %d", md.Key)
	}
	md.Data.Name = trimPadding(md.Data.Name)
	md.Data.Symbol = trimPadding(md.Data.Symbol)
	md.Data.Uri = trimPadding(md.Data.Uri)
	return &md, nil
}

func EncodeMetadata(md *Metadata) ([]byte, error) {
	return bin.MarshalBorsh(*md)
}

func DecodeMasterEdition(data []byte) (*MasterEdition, error) {
	var me MasterEdition
	err := bin.UnmarshalBorsh(&me, data)
	if err != nil {
		return nil, fmt.Errorf("master edition decode: %w", err)
	}
	if me.Key != KeyMasterEditionV1 && me.Key != KeyMasterEditionV2 {
		return nil, fmt.Errorf("master edition decode: unexpected key %d", me.Key)
	}
	return &me, nil
}

func EncodeMasterEdition(me *MasterEdition) ([]byte, error) {
	return bin.MarshalBorsh(*me)
}

// IsCollection reports whether the account carries the collection root marker.
func (md *Metadata) IsCollection() bool {
	return md.CollectionDetails != nil
}

func (md *Metadata) CollectionSize() uint64 {
	if md.CollectionDetails == nil || md.CollectionDetails.Enum != 0 {
		return 0
	}
	return md.CollectionDetails.V1.Size
}

// legacy accounts pad name, symbol and uri with NULs to their maximum length
func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}
