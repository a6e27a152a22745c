package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrAccountNotFound = errors.New("account not found")

type Session struct {
	rpc      RPC
	store    Store
	clock    *Clock
	identity solana.PrivateKey

	cluster    string
	commitment rpc.CommitmentType
	interval   time.Duration
	timeout    time.Duration
	airdrop    uint64
	minimum    uint64
	noAirdrop  bool
}

// BuildSession loads the configured keypair and binds it to the cluster RPC.
func BuildSession(ctx context.Context, store Store, conf *Configuration) (*Session, error) {
	identity, err := LoadKeypair(conf.Identity.Keypair)
	if err != nil {
		return nil, err
	}
	endpoint, err := conf.Endpoint()
	if err != nil {
		return nil, err
	}
	logger.Verbosef("BuildSession(%s) => %s\n", conf.Cluster.Name, endpoint)
	return NewSession(rpc.New(endpoint), store, identity, conf)
}

func NewSession(client RPC, store Store, identity solana.PrivateKey, conf *Configuration) (*Session, error) {
	if len(identity) != 64 {
		return nil, fmt.Errorf("invalid identity key length %d", len(identity))
	}
	airdrop, err := conf.AirdropLamports()
	if err != nil {
		return nil, err
	}
	minimum, err := conf.MinimumLamports()
	if err != nil {
		return nil, err
	}
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	return &Session{
		rpc:        client,
		store:      store,
		clock:      clock,
		identity:   identity,
		cluster:    conf.Cluster.Name,
		commitment: rpc.CommitmentType(conf.Cluster.Commitment),
		interval:   time.Duration(conf.Confirm.IntervalMs) * time.Millisecond,
		timeout:    time.Duration(conf.Confirm.TimeoutS) * time.Second,
		airdrop:    airdrop,
		minimum:    minimum,
		noAirdrop:  conf.Airdrop.Disabled || conf.Cluster.Name == rpc.MainNetBeta.Name,
	}, nil
}

func (s *Session) Identity() solana.PublicKey {
	return s.identity.PublicKey()
}

func (s *Session) Cluster() string {
	return s.cluster
}

func (s *Session) ExplorerLink(kind, id string) string {
	return ExplorerLink(kind, id, s.cluster)
}

// GetAccount returns the raw account data, ErrAccountNotFound if it does not exist.
func (s *Session) GetAccount(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	out, err := s.rpc.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	} else if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return out.Value.Data.GetBinary(), nil
}

func (s *Session) RentExemption(ctx context.Context, size uint64) (uint64, error) {
	return s.rpc.GetMinimumBalanceForRentExemption(ctx, size, s.commitment)
}
