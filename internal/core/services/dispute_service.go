package services

import (
	"context"
	"log/slog"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
)

// disputeTrackerImpl implements the DisputeTrackerSvc interface. It is the
// single owner of disputable transaction history; the ledger's held funds
// are only ever mutated through the tracker's transitions.
//
// Invalid lifecycle events (unknown id, wrong client, wrong state) are
// rejected as no-ops rather than hard errors: reconciliation streams favor
// continuity over strictness, and a bad event must not corrupt balances.
type disputeTrackerImpl struct {
	BaseService
	ledger  portssvc.LedgerWriterSvc
	entries map[uint32]*domain.DisputableEntry
}

// NewDisputeTracker creates a tracker mutating the given ledger.
func NewDisputeTracker(ledger portssvc.LedgerWriterSvc) portssvc.DisputeTrackerSvc {
	return &disputeTrackerImpl{
		ledger:  ledger,
		entries: make(map[uint32]*domain.DisputableEntry),
	}
}

// Ensure disputeTrackerImpl implements the DisputeTrackerSvc interface
var _ portssvc.DisputeTrackerSvc = (*disputeTrackerImpl)(nil)

func (s *disputeTrackerImpl) Record(ctx context.Context, entry domain.DisputableEntry) error {
	if _, exists := s.entries[entry.TxID]; exists {
		return apperrors.ErrDuplicateTransaction
	}
	stored := entry
	stored.State = domain.DisputeNormal
	s.entries[entry.TxID] = &stored
	return nil
}

func (s *disputeTrackerImpl) Seen(txID uint32) bool {
	_, exists := s.entries[txID]
	return exists
}

func (s *disputeTrackerImpl) Entry(txID uint32) (domain.DisputableEntry, error) {
	entry, exists := s.entries[txID]
	if !exists {
		return domain.DisputableEntry{}, apperrors.ErrNotFound
	}
	return *entry, nil
}

// lookup fetches the entry for a reconciliation event and verifies the
// event's client against the entry's recorded client. A dispute claiming
// the wrong client is malformed input and must not move funds.
func (s *disputeTrackerImpl) lookup(ctx context.Context, clientID uint16, txID uint32, want domain.DisputeState) (*domain.DisputableEntry, error) {
	entry, exists := s.entries[txID]
	if !exists {
		s.LogDebug(ctx, "Reconciliation event references unknown transaction",
			slog.Uint64("tx_id", uint64(txID)))
		return nil, apperrors.ErrUnknownReference
	}
	if entry.ClientID != clientID {
		s.LogWarn(ctx, "Reconciliation event client mismatch",
			slog.Uint64("tx_id", uint64(txID)),
			slog.Uint64("entry_client_id", uint64(entry.ClientID)),
			slog.Uint64("event_client_id", uint64(clientID)))
		return nil, apperrors.ErrUnknownReference
	}
	if entry.State != want {
		s.LogDebug(ctx, "Reconciliation event inapplicable in current state",
			slog.Uint64("tx_id", uint64(txID)),
			slog.String("state", string(entry.State)))
		return nil, apperrors.ErrUnknownReference
	}
	return entry, nil
}

func (s *disputeTrackerImpl) OpenDispute(ctx context.Context, clientID uint16, txID uint32) error {
	entry, err := s.lookup(ctx, clientID, txID, domain.DisputeNormal)
	if err != nil {
		return err
	}
	if err := s.ledger.MoveToHeld(ctx, entry.ClientID, entry.Amount); err != nil {
		return err
	}
	entry.State = domain.DisputeOpen
	s.LogInfo(ctx, "Dispute opened",
		slog.Uint64("tx_id", uint64(txID)),
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", entry.Amount.String()))
	return nil
}

func (s *disputeTrackerImpl) ResolveDispute(ctx context.Context, clientID uint16, txID uint32) error {
	entry, err := s.lookup(ctx, clientID, txID, domain.DisputeOpen)
	if err != nil {
		return err
	}
	if err := s.ledger.ReleaseFromHeld(ctx, entry.ClientID, entry.Amount); err != nil {
		return err
	}
	entry.State = domain.DisputeNormal
	s.LogInfo(ctx, "Dispute resolved",
		slog.Uint64("tx_id", uint64(txID)),
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", entry.Amount.String()))
	return nil
}

// ChargebackDispute destroys the held funds and locks the account. The entry
// becomes terminal: no later dispute, resolve or chargeback can touch it.
func (s *disputeTrackerImpl) ChargebackDispute(ctx context.Context, clientID uint16, txID uint32) error {
	entry, err := s.lookup(ctx, clientID, txID, domain.DisputeOpen)
	if err != nil {
		return err
	}
	if err := s.ledger.RemoveHeld(ctx, entry.ClientID, entry.Amount); err != nil {
		return err
	}
	entry.State = domain.DisputeChargedBack
	s.LogInfo(ctx, "Chargeback applied, account locked",
		slog.Uint64("tx_id", uint64(txID)),
		slog.Uint64("client_id", uint64(clientID)),
		slog.String("amount", entry.Amount.String()))
	return nil
}
