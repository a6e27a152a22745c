package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gofrs/uuid"
)

const (
	TransactionStateInitial   = 10
	TransactionStateSent      = 11
	TransactionStateConfirmed = 12
	TransactionStateFailed    = 13
)

var ErrTransactionFailed = errors.New("transaction failed")

type Transaction struct {
	TraceId   string
	Kind      string
	State     int
	Signature string
	Error     string
	UpdatedAt time.Time
}

func TransactionStateName(state int) string {
	switch state {
	case TransactionStateInitial:
		return "initial"
	case TransactionStateSent:
		return "sent"
	case TransactionStateConfirmed:
		return "confirmed"
	case TransactionStateFailed:
		return "failed"
	}
	panic(state)
}

// SendAndConfirm signs the instructions with the session identity as fee payer
// plus the extra signers, submits them and blocks until the configured
// commitment is reached. Every step is journaled under a fresh trace id. A
// transaction still unconfirmed at the deadline stays sent.
func (s *Session) SendAndConfirm(ctx context.Context, kind string, instructions []solana.Instruction, signers ...solana.PrivateKey) (*Transaction, error) {
	tx := &Transaction{
		TraceId: uuid.Must(uuid.NewV4()).String(),
		Kind:    kind,
		State:   TransactionStateInitial,
	}
	err := s.writeTransaction(tx)
	if err != nil {
		return nil, err
	}

	stx, err := s.buildTransaction(ctx, instructions, signers)
	if err != nil {
		return tx, s.failTransaction(tx, err)
	}
	sig, err := s.rpc.SendTransactionWithOpts(ctx, stx, rpc.TransactionOpts{
		PreflightCommitment: s.commitment,
	})
	if err != nil {
		return tx, s.failTransaction(tx, err)
	}
	tx.Signature = sig.String()
	tx.State = TransactionStateSent
	err = s.writeTransaction(tx)
	if err != nil {
		return tx, err
	}
	logger.Verbosef("Session.SendAndConfirm(%s) => %s sent %s\n", kind, tx.TraceId, tx.Signature)

	err = s.waitConfirmation(ctx, sig)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// the transaction may still land, Reconcile settles it later
		logger.Printf("Session.SendAndConfirm(%s) => %s unconfirmed %v\n", kind, tx.TraceId, err)
		return tx, fmt.Errorf("%s %s: %w", tx.Kind, tx.TraceId, err)
	} else if err != nil {
		return tx, s.failTransaction(tx, err)
	}
	tx.State = TransactionStateConfirmed
	return tx, s.writeTransaction(tx)
}

func (s *Session) buildTransaction(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (*solana.Transaction, error) {
	recent, err := s.rpc.GetLatestBlockhash(ctx, s.commitment)
	if err != nil {
		return nil, err
	}
	stx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(s.Identity()))
	if err != nil {
		return nil, err
	}
	keys := append([]solana.PrivateKey{s.identity}, signers...)
	_, err = stx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	})
	return stx, err
}

func (s *Session) failTransaction(tx *Transaction, cause error) error {
	tx.State = TransactionStateFailed
	tx.Error = cause.Error()
	err := s.writeTransaction(tx)
	if err != nil {
		logger.Printf("Session.failTransaction(%s) => %v\n", tx.TraceId, err)
	}
	return fmt.Errorf("%s %s: %w", tx.Kind, tx.TraceId, cause)
}

func (s *Session) writeTransaction(tx *Transaction) error {
	ts, err := s.clock.Now()
	if err != nil {
		return err
	}
	tx.UpdatedAt = ts
	return s.store.WriteTransaction(tx.TraceId, tx)
}

// Reconcile re-checks the on-chain status of journaled transactions stuck in
// the sent state and moves them to confirmed or failed.
func (s *Session) Reconcile(ctx context.Context, limit int) ([]*Transaction, error) {
	txs, err := s.store.ListTransactions(TransactionStateSent, limit)
	if err != nil || len(txs) == 0 {
		return nil, err
	}
	var updated []*Transaction
	for _, tx := range txs {
		sig, err := solana.SignatureFromBase58(tx.Signature)
		if err != nil {
			return updated, err
		}
		done, err := s.checkSignature(ctx, sig)
		if errors.Is(err, ErrTransactionFailed) {
			tx.State = TransactionStateFailed
			tx.Error = err.Error()
		} else if err != nil {
			return updated, err
		} else if done {
			tx.State = TransactionStateConfirmed
		} else {
			continue
		}
		err = s.writeTransaction(tx)
		if err != nil {
			return updated, err
		}
		updated = append(updated, tx)
	}
	return updated, nil
}
