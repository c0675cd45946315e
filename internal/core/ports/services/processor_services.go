package services

import (
	"context"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
)

// RecordSource supplies an ordered, finite sequence of transaction records.
// Next returns io.EOF once the stream is exhausted. A non-EOF error describes
// a single malformed record; the source remains usable for the next call.
type RecordSource interface {
	Next(ctx context.Context) (domain.TransactionRecord, error)
}

// TxProcessorSvc drives the ledger and the dispute tracker, applying each
// incoming record in arrival order and collecting rejections without ever
// halting the stream.
type TxProcessorSvc interface {
	// Process applies one record. The returned error, if any, is the
	// rejection that left state untouched; it is never fatal to the run.
	Process(ctx context.Context, record domain.TransactionRecord) error

	// ProcessAll drains the source. Only a failure of the source itself
	// (not a rejected record) is returned.
	ProcessAll(ctx context.Context, source RecordSource) error

	// Snapshots returns the final state of every touched account, sorted
	// by client id.
	Snapshots() []domain.AccountSnapshot

	// Snapshot returns one client's account state, or ErrNotFound.
	Snapshot(clientID uint16) (domain.AccountSnapshot, error)

	// Stats returns the per-outcome record counters.
	Stats() domain.RejectionStats

	// AuditTrail returns the outcome of every processed record, in the
	// order records were applied within each client.
	AuditTrail() []domain.AuditEntry
}
