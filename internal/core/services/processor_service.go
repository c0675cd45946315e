package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
)

// streamProcessorImpl implements the TxProcessorSvc interface for a single
// ordered stream. A mutex serializes Process so the same instance can back
// the HTTP ingest surface, where records arrive on concurrent requests.
type streamProcessorImpl struct {
	BaseService
	mu      sync.Mutex
	ledger  portssvc.LedgerSvcFacade
	tracker portssvc.DisputeTrackerSvc
	// seenTx holds every transaction id consumed by a deposit or a
	// withdrawal; ids are globally unique across both kinds.
	seenTx map[uint32]struct{}
	stats  domain.RejectionStats
	audit  []domain.AuditEntry
}

// NewStreamProcessor creates a processor driving the given ledger and tracker.
func NewStreamProcessor(ledger portssvc.LedgerSvcFacade, tracker portssvc.DisputeTrackerSvc) portssvc.TxProcessorSvc {
	return &streamProcessorImpl{
		ledger:  ledger,
		tracker: tracker,
		seenTx:  make(map[uint32]struct{}),
	}
}

// Ensure streamProcessorImpl implements the TxProcessorSvc interface
var _ portssvc.TxProcessorSvc = (*streamProcessorImpl)(nil)

// Process applies one record in arrival order. The returned error is the
// rejection category for records that left state untouched; processing of
// subsequent records always continues.
func (s *streamProcessorImpl) Process(ctx context.Context, record domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(ctx, record)
	s.count(err)
	s.audit = append(s.audit, domain.AuditEntry{
		TxID:       record.TxID,
		ClientID:   record.ClientID,
		Type:       record.Type,
		Amount:     record.Amount,
		Outcome:    outcomeForError(err),
		RecordedAt: time.Now().UTC(),
	})
	return err
}

func (s *streamProcessorImpl) apply(ctx context.Context, record domain.TransactionRecord) error {
	if !record.Type.IsValid() {
		return apperrors.ErrMalformedRecord
	}
	if record.Type.CarriesAmount() && !domain.ValidAmount(record.Amount) {
		s.LogWarn(ctx, "Record rejected, bad amount",
			slog.Uint64("tx_id", uint64(record.TxID)),
			slog.String("amount", record.Amount.String()))
		return apperrors.ErrMalformedRecord
	}

	switch record.Type {
	case domain.Deposit:
		if _, dup := s.seenTx[record.TxID]; dup {
			s.LogWarn(ctx, "Deposit rejected, duplicate transaction id",
				slog.Uint64("tx_id", uint64(record.TxID)))
			return apperrors.ErrDuplicateTransaction
		}
		s.seenTx[record.TxID] = struct{}{}
		if err := s.ledger.ApplyDeposit(ctx, record.ClientID, record.Amount); err != nil {
			return err
		}
		// Only applied deposits become disputable history.
		return s.tracker.Record(ctx, domain.DisputableEntry{
			TxID:     record.TxID,
			ClientID: record.ClientID,
			Amount:   record.Amount,
		})

	case domain.Withdrawal:
		if _, dup := s.seenTx[record.TxID]; dup {
			s.LogWarn(ctx, "Withdrawal rejected, duplicate transaction id",
				slog.Uint64("tx_id", uint64(record.TxID)))
			return apperrors.ErrDuplicateTransaction
		}
		s.seenTx[record.TxID] = struct{}{}
		return s.ledger.ApplyWithdrawal(ctx, record.ClientID, record.Amount)

	case domain.Dispute:
		return s.tracker.OpenDispute(ctx, record.ClientID, record.TxID)
	case domain.Resolve:
		return s.tracker.ResolveDispute(ctx, record.ClientID, record.TxID)
	case domain.Chargeback:
		return s.tracker.ChargebackDispute(ctx, record.ClientID, record.TxID)
	}
	return apperrors.ErrMalformedRecord
}

// ProcessAll drains the source sequentially. A record-level error from the
// source counts as a malformed record and the stream continues; only context
// cancellation or stream exhaustion ends the loop.
func (s *streamProcessorImpl) ProcessAll(ctx context.Context, source portssvc.RecordSource) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.LogWarn(ctx, "Skipping unreadable record", slog.String("error", err.Error()))
			s.mu.Lock()
			s.stats.Malformed++
			s.mu.Unlock()
			continue
		}
		// Rejections are already counted and logged; the stream goes on.
		_ = s.Process(ctx, record)
	}
}

func (s *streamProcessorImpl) Snapshots() []domain.AccountSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshots()
}

func (s *streamProcessorImpl) Snapshot(clientID uint16) (domain.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot(clientID)
}

func (s *streamProcessorImpl) Stats() domain.RejectionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *streamProcessorImpl) AuditTrail() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	trail := make([]domain.AuditEntry, len(s.audit))
	copy(trail, s.audit)
	return trail
}

// count must be called with the mutex held.
func (s *streamProcessorImpl) count(err error) {
	switch {
	case err == nil:
		s.stats.Applied++
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		s.stats.InsufficientFunds++
	case errors.Is(err, apperrors.ErrAccountLocked):
		s.stats.LockedAccount++
	case errors.Is(err, apperrors.ErrUnknownReference):
		s.stats.UnknownReference++
	case errors.Is(err, apperrors.ErrDuplicateTransaction):
		s.stats.DuplicateTransaction++
	default:
		s.stats.Malformed++
	}
}

func outcomeForError(err error) string {
	switch {
	case err == nil:
		return domain.OutcomeApplied
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return domain.OutcomeInsufficientFunds
	case errors.Is(err, apperrors.ErrAccountLocked):
		return domain.OutcomeAccountLocked
	case errors.Is(err, apperrors.ErrUnknownReference):
		return domain.OutcomeUnknownReference
	case errors.Is(err, apperrors.ErrDuplicateTransaction):
		return domain.OutcomeDuplicateTx
	default:
		return domain.OutcomeMalformed
	}
}
