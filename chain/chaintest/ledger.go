// Package chaintest provides an in-memory ledger implementing chain.RPC. It
// interprets the System, SPL Token, Associated Token Account and Token
// Metadata instructions the tools submit, enough to exercise the workflows
// without a cluster.
package chaintest

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/MixinNetwork/nfo-solana/metaplex"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	DefaultFee = 5000
	mintSize   = 82
)

var (
	ErrInvalidCollectionAuthority = errors.New("custom program error: collection update authority is invalid")
	ErrCollectionMismatch         = errors.New("custom program error: collection not found on metadata")
	ErrAlreadyVerified            = errors.New("custom program error: collection already verified")
	ErrMissingSignature           = errors.New("missing required signature")
	ErrAccountInUse               = errors.New("account already in use")
	ErrInsufficientFunds          = errors.New("insufficient funds for fee")
)

type account struct {
	owner    solana.PublicKey
	lamports uint64
	data     []byte
}

type Ledger struct {
	sync.Mutex
	accounts  map[solana.PublicKey]*account
	supply    map[solana.PublicKey]uint64
	balances  map[solana.PublicKey]uint64
	statuses  map[solana.Signature]*rpc.SignatureStatusesResult
	polls     map[solana.Signature]int
	blockhash solana.Hash
	airdrops  int
	sent      int

	// ConfirmAfter is the number of status polls a signature reports
	// "processed" before it is finalized.
	ConfirmAfter int
	Fee          uint64
}

func New() *Ledger {
	l := &Ledger{
		accounts: make(map[solana.PublicKey]*account),
		supply:   make(map[solana.PublicKey]uint64),
		balances: make(map[solana.PublicKey]uint64),
		statuses: make(map[solana.Signature]*rpc.SignatureStatusesResult),
		polls:    make(map[solana.Signature]int),
		Fee:      DefaultFee,
	}
	_, _ = rand.Read(l.blockhash[:])
	return l
}

func (l *Ledger) SetBalance(pub solana.PublicKey, lamports uint64) {
	l.Lock()
	defer l.Unlock()
	l.balances[pub] = lamports
}

func (l *Ledger) Balance(pub solana.PublicKey) uint64 {
	l.Lock()
	defer l.Unlock()
	return l.balances[pub]
}

func (l *Ledger) Airdrops() int {
	l.Lock()
	defer l.Unlock()
	return l.airdrops
}

// Sent counts transactions accepted by SendTransactionWithOpts.
func (l *Ledger) Sent() int {
	l.Lock()
	defer l.Unlock()
	return l.sent
}

// SetStatus overrides the status reported for a signature.
func (l *Ledger) SetStatus(sig solana.Signature, status *rpc.SignatureStatusesResult) {
	l.Lock()
	defer l.Unlock()
	l.statuses[sig] = status
}

func (l *Ledger) GetBalance(ctx context.Context, pub solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	l.Lock()
	defer l.Unlock()
	return &rpc.GetBalanceResult{Value: l.balances[pub]}, nil
}

func (l *Ledger) RequestAirdrop(ctx context.Context, pub solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error) {
	l.Lock()
	defer l.Unlock()
	var sig solana.Signature
	_, _ = rand.Read(sig[:])
	l.balances[pub] += lamports
	l.airdrops++
	l.finalize(sig)
	return sig, nil
}

func (l *Ledger) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	l.Lock()
	defer l.Unlock()
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            l.blockhash,
			LastValidBlockHeight: 150,
		},
	}, nil
}

func (l *Ledger) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64, commitment rpc.CommitmentType) (uint64, error) {
	return (128 + size) * 6960, nil
}

func (l *Ledger) GetSignatureStatuses(ctx context.Context, history bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	l.Lock()
	defer l.Unlock()
	out := &rpc.GetSignatureStatusesResult{}
	for _, sig := range sigs {
		status, found := l.statuses[sig]
		if !found {
			out.Value = append(out.Value, nil)
			continue
		}
		l.polls[sig]++
		if l.polls[sig] <= l.ConfirmAfter && status.Err == nil {
			out.Value = append(out.Value, &rpc.SignatureStatusesResult{
				ConfirmationStatus: rpc.ConfirmationStatusProcessed,
			})
			continue
		}
		out.Value = append(out.Value, status)
	}
	return out, nil
}

func (l *Ledger) GetAccountInfo(ctx context.Context, pub solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	l.Lock()
	defer l.Unlock()
	acc := l.accounts[pub]
	if acc == nil {
		return nil, rpc.ErrNotFound
	}
	data := append([]byte{}, acc.data...)
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Lamports: acc.lamports,
			Owner:    acc.owner,
			Data:     rpc.DataBytesOrJSONFromBytes(data),
		},
	}, nil
}

// SendTransactionWithOpts applies the transaction atomically, like a
// preflight simulation followed by execution. Failures leave no state behind.
func (l *Ledger) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	l.Lock()
	defer l.Unlock()

	if len(tx.Signatures) == 0 || len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return solana.Signature{}, ErrMissingSignature
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrMissingSignature, err)
	}
	if !tx.Message.RecentBlockhash.Equals(l.blockhash) {
		return solana.Signature{}, errors.New("blockhash not found")
	}
	payer := tx.Message.AccountKeys[0]
	if l.balances[payer] < l.Fee {
		return solana.Signature{}, ErrInsufficientFunds
	}

	st := l.snapshot()
	for i, ci := range tx.Message.Instructions {
		program := tx.Message.AccountKeys[ci.ProgramIDIndex]
		accs := make([]solana.PublicKey, len(ci.Accounts))
		for j, idx := range ci.Accounts {
			accs[j] = tx.Message.AccountKeys[idx]
		}
		err := l.execute(tx, program, accs, []byte(ci.Data))
		if err != nil {
			l.restore(st)
			return solana.Signature{}, fmt.Errorf("transaction simulation failed: error processing instruction %d: %w", i, err)
		}
	}
	l.balances[payer] -= l.Fee
	l.sent++

	sig := tx.Signatures[0]
	l.finalize(sig)
	return sig, nil
}

// Metadata decodes the metadata account of a mint, for assertions.
func (l *Ledger) Metadata(mint solana.PublicKey) (*metaplex.Metadata, error) {
	l.Lock()
	defer l.Unlock()
	return l.readMetadata(mint)
}

func (l *Ledger) finalize(sig solana.Signature) {
	l.statuses[sig] = &rpc.SignatureStatusesResult{
		Slot:               uint64(len(l.statuses) + 1),
		ConfirmationStatus: rpc.ConfirmationStatusFinalized,
	}
}

type snapshot struct {
	accounts map[solana.PublicKey]*account
	supply   map[solana.PublicKey]uint64
	balances map[solana.PublicKey]uint64
}

func (l *Ledger) snapshot() *snapshot {
	st := &snapshot{
		accounts: make(map[solana.PublicKey]*account, len(l.accounts)),
		supply:   make(map[solana.PublicKey]uint64, len(l.supply)),
		balances: make(map[solana.PublicKey]uint64, len(l.balances)),
	}
	for k, v := range l.accounts {
		c := *v
		c.data = append([]byte{}, v.data...)
		st.accounts[k] = &c
	}
	for k, v := range l.supply {
		st.supply[k] = v
	}
	for k, v := range l.balances {
		st.balances[k] = v
	}
	return st
}

func (l *Ledger) restore(st *snapshot) {
	l.accounts = st.accounts
	l.supply = st.supply
	l.balances = st.balances
}

func (l *Ledger) execute(tx *solana.Transaction, program solana.PublicKey, accs []solana.PublicKey, data []byte) error {
	switch {
	case program.Equals(solana.SystemProgramID):
		return l.executeSystem(tx, accs, data)
	case program.Equals(solana.TokenProgramID):
		return l.executeToken(tx, accs, data)
	case program.Equals(solana.SPLAssociatedTokenAccountProgramID):
		return l.executeAssociatedToken(accs)
	case program.Equals(metaplex.ProgramID):
		return l.executeMetadata(tx, accs, data)
	}
	return fmt.Errorf("unsupported program %s", program)
}

func (l *Ledger) executeSystem(tx *solana.Transaction, accs []solana.PublicKey, data []byte) error {
	if len(data) < 52 || binary.LittleEndian.Uint32(data) != 0 || len(accs) < 2 {
		return errors.New("unsupported system instruction")
	}
	lamports := binary.LittleEndian.Uint64(data[4:])
	space := binary.LittleEndian.Uint64(data[12:])
	owner := solana.PublicKeyFromBytes(data[20:52])
	funder, created := accs[0], accs[1]
	if !tx.Message.IsSigner(funder) || !tx.Message.IsSigner(created) {
		return ErrMissingSignature
	}
	if l.accounts[created] != nil {
		return fmt.Errorf("%w: %s", ErrAccountInUse, created)
	}
	if l.balances[funder] < lamports {
		return ErrInsufficientFunds
	}
	l.balances[funder] -= lamports
	l.accounts[created] = &account{owner: owner, lamports: lamports, data: make([]byte, space)}
	return nil
}

func (l *Ledger) executeToken(tx *solana.Transaction, accs []solana.PublicKey, data []byte) error {
	if len(data) == 0 || len(accs) == 0 {
		return errors.New("empty token instruction")
	}
	mint := accs[0]
	acc := l.accounts[mint]
	if acc == nil || !acc.owner.Equals(solana.TokenProgramID) || len(acc.data) != mintSize {
		return fmt.Errorf("invalid mint %s", mint)
	}
	switch data[0] {
	case 0: // InitializeMint
		if acc.data[45] != 0 {
			return fmt.Errorf("%w: %s", ErrAccountInUse, mint)
		}
		acc.data[44] = data[1]
		acc.data[45] = 1
		return nil
	case 7: // MintTo
		if len(data) < 9 || len(accs) < 3 {
			return errors.New("invalid mint to")
		}
		if acc.data[45] != 1 {
			return fmt.Errorf("uninitialized mint %s", mint)
		}
		if l.accounts[accs[1]] == nil {
			return fmt.Errorf("invalid token account %s", accs[1])
		}
		if !tx.Message.IsSigner(accs[2]) {
			return ErrMissingSignature
		}
		l.supply[mint] += binary.LittleEndian.Uint64(data[1:])
		return nil
	}
	return fmt.Errorf("unsupported token instruction %d", data[0])
}

func (l *Ledger) executeAssociatedToken(accs []solana.PublicKey) error {
	if len(accs) < 4 {
		return errors.New("invalid associated token instruction")
	}
	ata, wallet, mint := accs[1], accs[2], accs[3]
	expected, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return err
	}
	if !expected.Equals(ata) {
		return fmt.Errorf("invalid associated token address %s", ata)
	}
	if l.accounts[ata] != nil {
		return fmt.Errorf("%w: %s", ErrAccountInUse, ata)
	}
	l.accounts[ata] = &account{owner: solana.TokenProgramID, data: make([]byte, 165)}
	return nil
}

func (l *Ledger) executeMetadata(tx *solana.Transaction, accs []solana.PublicKey, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty metadata instruction")
	}
	switch data[0] {
	case metaplex.InstructionCreateMetadataAccountV3:
		return l.createMetadata(tx, accs, data)
	case metaplex.InstructionCreateMasterEditionV3:
		return l.createMasterEdition(tx, accs, data)
	case metaplex.InstructionVerify:
		return l.verify(tx, accs, data)
	}
	return fmt.Errorf("unsupported metadata instruction %d", data[0])
}

func (l *Ledger) createMetadata(tx *solana.Transaction, accs []solana.PublicKey, data []byte) error {
	args, err := metaplex.DecodeCreateMetadataAccountV3Args(data)
	if err != nil {
		return err
	}
	if len(accs) < 5 {
		return errors.New("invalid create metadata accounts")
	}
	mdKey, mint, authority := accs[0], accs[1], accs[4]
	expected, err := metaplex.FindMetadataAddress(mint)
	if err != nil || !expected.Equals(mdKey) {
		return fmt.Errorf("invalid metadata address %s", mdKey)
	}
	if l.accounts[mdKey] != nil {
		return fmt.Errorf("%w: %s", ErrAccountInUse, mdKey)
	}
	if !tx.Message.IsSigner(accs[2]) {
		return ErrMissingSignature
	}
	if args.Data.Collection != nil && args.Data.Collection.Verified {
		return errors.New("custom program error: collection cannot be verified in this instruction")
	}
	if args.Data.Creators != nil {
		for _, c := range *args.Data.Creators {
			if c.Verified && !tx.Message.IsSigner(c.Address) {
				return fmt.Errorf("custom program error: creator %s must sign", c.Address)
			}
		}
	}
	md := &metaplex.Metadata{
		Key:             metaplex.KeyMetadataV1,
		UpdateAuthority: authority,
		Mint:            mint,
		Data: metaplex.Data{
			Name:                 args.Data.Name,
			Symbol:               args.Data.Symbol,
			Uri:                  args.Data.Uri,
			SellerFeeBasisPoints: args.Data.SellerFeeBasisPoints,
			Creators:             args.Data.Creators,
		},
		IsMutable:         args.IsMutable,
		Collection:        args.Data.Collection,
		Uses:              args.Data.Uses,
		CollectionDetails: args.CollectionDetails,
	}
	return l.writeMetadata(mdKey, md)
}

func (l *Ledger) createMasterEdition(tx *solana.Transaction, accs []solana.PublicKey, data []byte) error {
	args, err := metaplex.DecodeCreateMasterEditionV3Args(data)
	if err != nil {
		return err
	}
	if len(accs) < 6 {
		return errors.New("invalid create master edition accounts")
	}
	edition, mint, authority := accs[0], accs[1], accs[2]
	expected, err := metaplex.FindMasterEditionAddress(mint)
	if err != nil || !expected.Equals(edition) {
		return fmt.Errorf("invalid edition address %s", edition)
	}
	if l.accounts[edition] != nil {
		return fmt.Errorf("%w: %s", ErrAccountInUse, edition)
	}
	md, err := l.readMetadata(mint)
	if err != nil {
		return err
	}
	if !md.UpdateAuthority.Equals(authority) || !tx.Message.IsSigner(authority) {
		return errors.New("custom program error: update authority is incorrect")
	}
	if l.supply[mint] != 1 {
		return fmt.Errorf("custom program error: edition requires supply of 1, got %d", l.supply[mint])
	}
	buf, err := metaplex.EncodeMasterEdition(&metaplex.MasterEdition{
		Key:       metaplex.KeyMasterEditionV2,
		MaxSupply: args.MaxSupply,
	})
	if err != nil {
		return err
	}
	l.accounts[edition] = &account{owner: metaplex.ProgramID, data: buf}

	standard := uint8(metaplex.TokenStandardNonFungible)
	md.TokenStandard = &standard
	mdKey, _ := metaplex.FindMetadataAddress(mint)
	return l.writeMetadata(mdKey, md)
}

func (l *Ledger) verify(tx *solana.Transaction, accs []solana.PublicKey, data []byte) error {
	args, err := metaplex.DecodeVerifyArgs(data)
	if err != nil {
		return err
	}
	if args.Args != metaplex.VerificationCollectionV1 {
		return fmt.Errorf("unsupported verification %d", args.Args)
	}
	if len(accs) < 6 {
		return errors.New("invalid verify accounts")
	}
	authority, mdKey, collectionMint, collectionKey := accs[0], accs[2], accs[3], accs[4]
	if !tx.Message.IsSigner(authority) {
		return ErrMissingSignature
	}
	acc := l.accounts[mdKey]
	if acc == nil {
		return fmt.Errorf("metadata not found %s", mdKey)
	}
	md, err := metaplex.DecodeMetadata(acc.data)
	if err != nil {
		return err
	}
	if md.Collection == nil || !md.Collection.Key.Equals(collectionMint) {
		return ErrCollectionMismatch
	}
	if md.Collection.Verified {
		return ErrAlreadyVerified
	}
	expected, _ := metaplex.FindMetadataAddress(collectionMint)
	if !expected.Equals(collectionKey) {
		return fmt.Errorf("invalid collection metadata %s", collectionKey)
	}
	cmd, err := l.readMetadata(collectionMint)
	if err != nil {
		return err
	}
	if !cmd.UpdateAuthority.Equals(authority) {
		return ErrInvalidCollectionAuthority
	}
	md.Collection.Verified = true
	err = l.writeMetadata(mdKey, md)
	if err != nil {
		return err
	}
	if cmd.CollectionDetails != nil && cmd.CollectionDetails.Enum == 0 {
		cmd.CollectionDetails.V1.Size++
		return l.writeMetadata(collectionKey, cmd)
	}
	return nil
}

func (l *Ledger) readMetadata(mint solana.PublicKey) (*metaplex.Metadata, error) {
	key, err := metaplex.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	acc := l.accounts[key]
	if acc == nil {
		return nil, fmt.Errorf("metadata not found for %s", mint)
	}
	return metaplex.DecodeMetadata(acc.data)
}

// metadata accounts are allocated at a fixed size, the tail stays zeroed
func (l *Ledger) writeMetadata(key solana.PublicKey, md *metaplex.Metadata) error {
	buf, err := metaplex.EncodeMetadata(md)
	if err != nil {
		return err
	}
	if len(buf) < 679 {
		buf = append(buf, make([]byte, 679-len(buf))...)
	}
	l.accounts[key] = &account{owner: metaplex.ProgramID, data: buf}
	return nil
}
