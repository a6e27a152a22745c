package chain

import (
	"context"

	"github.com/MixinNetwork/mixin/logger"
)

// EnsureFunded requests an airdrop when the identity balance is below the
// configured minimum and returns the balance afterwards.
func (s *Session) EnsureFunded(ctx context.Context) (uint64, bool, error) {
	out, err := s.rpc.GetBalance(ctx, s.Identity(), s.commitment)
	if err != nil {
		return 0, false, err
	}
	balance := out.Value
	if balance >= s.minimum || s.noAirdrop {
		logger.Verbosef("Session.EnsureFunded(%s) => %s SOL\n", s.Identity(), FormatSOL(balance))
		return balance, false, nil
	}

	sig, err := s.rpc.RequestAirdrop(ctx, s.Identity(), s.airdrop, s.commitment)
	if err != nil {
		return balance, false, err
	}
	err = s.waitConfirmation(ctx, sig)
	if err != nil {
		return balance, false, err
	}
	logger.Printf("Airdropped %s SOL to %s\n", FormatSOL(s.airdrop), s.Identity())

	out, err = s.rpc.GetBalance(ctx, s.Identity(), s.commitment)
	if err != nil {
		return balance, true, err
	}
	return out.Value, true, nil
}
