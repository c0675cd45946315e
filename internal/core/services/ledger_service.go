package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// ledgerServiceImpl implements the LedgerSvcFacade interface. It owns the
// mapping from client id to account; accounts are created lazily on first
// touch. The ledger is not safe for concurrent use on its own — callers
// serialize access (the stream processor within one lane).
type ledgerServiceImpl struct {
	BaseService
	accounts map[uint16]*domain.Account
}

// NewLedgerService creates an empty account ledger.
func NewLedgerService() portssvc.LedgerSvcFacade {
	return &ledgerServiceImpl{
		accounts: make(map[uint16]*domain.Account),
	}
}

// Ensure ledgerServiceImpl implements the LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerServiceImpl)(nil)

// account returns the client's account, creating it zeroed on first touch.
func (s *ledgerServiceImpl) account(clientID uint16) *domain.Account {
	acc, ok := s.accounts[clientID]
	if !ok {
		acc = domain.NewAccount(clientID)
		s.accounts[clientID] = acc
	}
	return acc
}

func (s *ledgerServiceImpl) ApplyDeposit(ctx context.Context, clientID uint16, amount decimal.Decimal) error {
	acc := s.account(clientID)
	if acc.Locked {
		s.LogWarn(ctx, "Deposit rejected, account is locked",
			slog.Uint64("client_id", uint64(clientID)),
			slog.String("amount", amount.String()))
		return apperrors.ErrAccountLocked
	}
	acc.Available = acc.Available.Add(amount)
	s.LogDebug(ctx, "Deposit applied",
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", amount.String()),
		slog.String("available", acc.Available.String()))
	return nil
}

func (s *ledgerServiceImpl) ApplyWithdrawal(ctx context.Context, clientID uint16, amount decimal.Decimal) error {
	acc := s.account(clientID)
	if acc.Locked {
		s.LogWarn(ctx, "Withdrawal rejected, account is locked",
			slog.Uint64("client_id", uint64(clientID)),
			slog.String("amount", amount.String()))
		return apperrors.ErrAccountLocked
	}
	if acc.Available.LessThan(amount) {
		s.LogWarn(ctx, "Withdrawal rejected, insufficient funds",
			slog.Uint64("client_id", uint64(clientID)),
			slog.String("amount", amount.String()),
			slog.String("available", acc.Available.String()))
		return apperrors.ErrInsufficientFunds
	}
	acc.Available = acc.Available.Sub(amount)
	s.LogDebug(ctx, "Withdrawal applied",
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", amount.String()),
		slog.String("available", acc.Available.String()))
	return nil
}

// MoveToHeld freezes funds when a dispute opens. Available may go negative
// when the deposited funds were already withdrawn; that mirrors real-world
// post-dispute debt and is not an error.
func (s *ledgerServiceImpl) MoveToHeld(ctx context.Context, clientID uint16, amount decimal.Decimal) error {
	acc := s.account(clientID)
	acc.Available = acc.Available.Sub(amount)
	acc.Held = acc.Held.Add(amount)
	s.LogDebug(ctx, "Funds moved to held",
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", amount.String()))
	return nil
}

func (s *ledgerServiceImpl) ReleaseFromHeld(ctx context.Context, clientID uint16, amount decimal.Decimal) error {
	acc := s.account(clientID)
	acc.Held = acc.Held.Sub(amount)
	acc.Available = acc.Available.Add(amount)
	s.LogDebug(ctx, "Held funds released",
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", amount.String()))
	return nil
}

// RemoveHeld destroys held funds on a chargeback and locks the account
// against further client-initiated operations.
func (s *ledgerServiceImpl) RemoveHeld(ctx context.Context, clientID uint16, amount decimal.Decimal) error {
	acc := s.account(clientID)
	acc.Held = acc.Held.Sub(amount)
	acc.Locked = true
	s.LogInfo(ctx, "Held funds removed, account locked",
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", amount.String()))
	return nil
}

func (s *ledgerServiceImpl) Snapshot(clientID uint16) (domain.AccountSnapshot, error) {
	acc, ok := s.accounts[clientID]
	if !ok {
		return domain.AccountSnapshot{}, apperrors.ErrNotFound
	}
	return acc.Snapshot(), nil
}

func (s *ledgerServiceImpl) Snapshots() []domain.AccountSnapshot {
	snapshots := make([]domain.AccountSnapshot, 0, len(s.accounts))
	for _, acc := range s.accounts {
		snapshots = append(snapshots, acc.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ClientID < snapshots[j].ClientID
	})
	return snapshots
}

func (s *ledgerServiceImpl) IsLocked(clientID uint16) bool {
	acc, ok := s.accounts[clientID]
	return ok && acc.Locked
}
