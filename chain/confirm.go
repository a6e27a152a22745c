package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var commitmentRanks = map[string]int{
	string(rpc.CommitmentProcessed): 1,
	string(rpc.CommitmentConfirmed): 2,
	string(rpc.CommitmentFinalized): 3,
}

func (s *Session) waitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for {
		done, err := s.checkSignature(ctx, sig)
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation %s: %w", sig, ctx.Err())
		case <-time.After(s.interval):
		}
	}
}

func (s *Session) checkSignature(ctx context.Context, sig solana.Signature) (bool, error) {
	out, err := s.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, err
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}
	status := out.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("%w: %s %v", ErrTransactionFailed, sig, status.Err)
	}
	rank := commitmentRanks[string(status.ConfirmationStatus)]
	return rank >= commitmentRanks[string(s.commitment)], nil
}
