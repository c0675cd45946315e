package services

import (
	"context"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
)

// DisputeTrackerSvc owns the history of disputable transactions and resolves
// reconciliation events against it. All ledger mutations caused by disputes
// go through the tracker; nothing else touches held funds.
type DisputeTrackerSvc interface {
	// Record registers a successfully applied deposit as disputable.
	// Reusing a transaction id fails with ErrDuplicateTransaction.
	Record(ctx context.Context, entry domain.DisputableEntry) error

	// Seen reports whether txID already has a history entry.
	Seen(txID uint32) bool

	// Entry returns a copy of the entry for txID, or ErrNotFound.
	Entry(txID uint32) (domain.DisputableEntry, error)

	// OpenDispute moves the referenced deposit's funds from available to
	// held. A missing entry, a client mismatch or an entry that is not in
	// the normal state fails with ErrUnknownReference and changes nothing.
	OpenDispute(ctx context.Context, clientID uint16, txID uint32) error

	// ResolveDispute releases the held funds of a disputed entry back to
	// available and returns the entry to the normal state.
	ResolveDispute(ctx context.Context, clientID uint16, txID uint32) error

	// ChargebackDispute destroys the held funds of a disputed entry, locks
	// the account and moves the entry to its terminal state.
	ChargebackDispute(ctx context.Context, clientID uint16, txID uint32) error
}
