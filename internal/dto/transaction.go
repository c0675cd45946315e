package dto

import (
	"fmt"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SubmitTransactionRequest defines one transaction record submitted over the
// ingest API. Amount is a decimal string and is required only for deposits
// and withdrawals; reconciliation kinds must omit it.
type SubmitTransactionRequest struct {
	Type     string `json:"type" binding:"required,oneof=deposit withdrawal dispute resolve chargeback"`
	ClientID uint16 `json:"clientID"`
	TxID     uint32 `json:"txID"`
	Amount   string `json:"amount" binding:"required_if=Type deposit,required_if=Type withdrawal"`
}

// ToDomain validates the request shape and converts it to a domain record.
func (r SubmitTransactionRequest) ToDomain() (domain.TransactionRecord, error) {
	record := domain.TransactionRecord{
		Type:     domain.TransactionType(r.Type),
		ClientID: r.ClientID,
		TxID:     r.TxID,
		Amount:   decimal.Zero,
	}

	if record.Type.CarriesAmount() {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("invalid amount %q: %w", r.Amount, apperrors.ErrMalformedRecord)
		}
		if !domain.ValidAmount(amount) {
			return domain.TransactionRecord{}, fmt.Errorf("amount must be positive with at most %d decimal places: %w", domain.AmountPrecision, apperrors.ErrMalformedRecord)
		}
		record.Amount = amount
	} else if r.Amount != "" {
		return domain.TransactionRecord{}, fmt.Errorf("%s records carry no amount: %w", r.Type, apperrors.ErrMalformedRecord)
	}

	return record, nil
}

// TransactionAcceptedResponse is returned when a record mutated state.
type TransactionAcceptedResponse struct {
	Status   string `json:"status"`
	TxID     uint32 `json:"txID"`
	ClientID uint16 `json:"clientID"`
}

// TransactionRejectedResponse names the rejection category for a record that
// left all state untouched.
type TransactionRejectedResponse struct {
	Status   string `json:"status"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// StatsResponse exposes the processor's per-outcome counters.
type StatsResponse struct {
	Applied              int64 `json:"applied"`
	InsufficientFunds    int64 `json:"insufficientFunds"`
	LockedAccount        int64 `json:"lockedAccount"`
	UnknownReference     int64 `json:"unknownReference"`
	DuplicateTransaction int64 `json:"duplicateTransaction"`
	Malformed            int64 `json:"malformed"`
	TotalRejected        int64 `json:"totalRejected"`
}

// ToStatsResponse converts domain.RejectionStats to its API shape.
func ToStatsResponse(s domain.RejectionStats) StatsResponse {
	return StatsResponse{
		Applied:              s.Applied,
		InsufficientFunds:    s.InsufficientFunds,
		LockedAccount:        s.LockedAccount,
		UnknownReference:     s.UnknownReference,
		DuplicateTransaction: s.DuplicateTransaction,
		Malformed:            s.Malformed,
		TotalRejected:        s.TotalRejected(),
	}
}
