package services

import (
	"context"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReaderSvc defines read operations over per-client account state.
type LedgerReaderSvc interface {
	// Snapshot returns the state of one account, or apperrors.ErrNotFound
	// for a client the stream never touched.
	Snapshot(clientID uint16) (domain.AccountSnapshot, error)

	// Snapshots returns every touched account, sorted by client id.
	Snapshots() []domain.AccountSnapshot

	// IsLocked reports whether the client's account has been locked by a
	// chargeback. Unknown clients are not locked.
	IsLocked(clientID uint16) bool
}

// LedgerWriterSvc defines the balance mutations of the account ledger.
// Accounts are created lazily on first touch.
type LedgerWriterSvc interface {
	// ApplyDeposit credits available funds. Fails with ErrAccountLocked on
	// a locked account.
	ApplyDeposit(ctx context.Context, clientID uint16, amount decimal.Decimal) error

	// ApplyWithdrawal debits available funds. Fails with ErrAccountLocked
	// or ErrInsufficientFunds, leaving the account unchanged.
	ApplyWithdrawal(ctx context.Context, clientID uint16, amount decimal.Decimal) error

	// MoveToHeld shifts funds from available to held when a dispute opens.
	// Available may go negative; that is intentional.
	MoveToHeld(ctx context.Context, clientID uint16, amount decimal.Decimal) error

	// ReleaseFromHeld shifts funds from held back to available on resolve.
	ReleaseFromHeld(ctx context.Context, clientID uint16, amount decimal.Decimal) error

	// RemoveHeld destroys held funds on chargeback and locks the account.
	RemoveHeld(ctx context.Context, clientID uint16, amount decimal.Decimal) error
}

// LedgerSvcFacade combines all ledger interfaces for clients that need
// access to every operation.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
