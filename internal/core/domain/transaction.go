package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags the five record kinds accepted by the engine.
type TransactionType string

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
	Dispute    TransactionType = "dispute"
	Resolve    TransactionType = "resolve"
	Chargeback TransactionType = "chargeback"
)

// IsValid reports whether t is one of the five known kinds.
func (t TransactionType) IsValid() bool {
	switch t {
	case Deposit, Withdrawal, Dispute, Resolve, Chargeback:
		return true
	}
	return false
}

// CarriesAmount reports whether records of this kind carry a monetary amount.
// Dispute, resolve and chargeback reference a prior transaction instead.
func (t TransactionType) CarriesAmount() bool {
	return t == Deposit || t == Withdrawal
}

// IsClientInitiated reports whether records of this kind originate from the
// client rather than from a back-office reconciliation process. Only
// client-initiated records are blocked by a locked account.
func (t TransactionType) IsClientInitiated() bool {
	return t == Deposit || t == Withdrawal
}

// TransactionRecord is one input record of the stream. Amount is meaningful
// only when Type.CarriesAmount(); reconciliation kinds reuse the TxID of a
// prior deposit.
type TransactionRecord struct {
	Type     TransactionType `json:"type"`
	ClientID uint16          `json:"clientID"`
	TxID     uint32          `json:"txID"`
	Amount   decimal.Decimal `json:"amount"`
}

// AmountPrecision is the number of fractional digits amounts are carried at.
const AmountPrecision = 4

// ValidAmount reports whether d is a positive amount representable at four
// fractional digits. The check compares values, not renderings: "1.50000"
// parses with a larger exponent than "1.5" but is the same amount.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(AmountPrecision))
}

// DisputeState is the lifecycle position of a disputable transaction entry.
type DisputeState string

const (
	// DisputeNormal is the initial state of an applied deposit. A resolve
	// returns a disputed entry here, leaving it open to a later re-dispute.
	DisputeNormal DisputeState = "NORMAL"
	// DisputeOpen means the deposit's funds are currently held.
	DisputeOpen DisputeState = "DISPUTED"
	// DisputeChargedBack is terminal; no further transition is accepted.
	DisputeChargedBack DisputeState = "CHARGED_BACK"
)

// DisputableEntry records a successfully applied deposit and tracks whether
// its funds are under dispute. Entries are created once, never re-created or
// deleted, and are retained for the lifetime of the run for auditability.
type DisputableEntry struct {
	TxID     uint32          `json:"txID"`
	ClientID uint16          `json:"clientID"`
	Amount   decimal.Decimal `json:"amount"`
	State    DisputeState    `json:"state"`
}

// AuditEntry records the outcome of one processed stream record.
type AuditEntry struct {
	TxID       uint32          `json:"txID"`
	ClientID   uint16          `json:"clientID"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Outcome    string          `json:"outcome"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// Audit outcome labels. OutcomeApplied marks a record that mutated state;
// the rest mirror the rejection taxonomy.
const (
	OutcomeApplied           = "APPLIED"
	OutcomeInsufficientFunds = "INSUFFICIENT_FUNDS"
	OutcomeAccountLocked     = "ACCOUNT_LOCKED"
	OutcomeUnknownReference  = "UNKNOWN_REFERENCE"
	OutcomeDuplicateTx       = "DUPLICATE_TX"
	OutcomeMalformed         = "MALFORMED"
)

// RejectionStats counts processed records per outcome. Rejections are
// observable here without ever being fatal to the stream.
type RejectionStats struct {
	Applied              int64 `json:"applied"`
	InsufficientFunds    int64 `json:"insufficientFunds"`
	LockedAccount        int64 `json:"lockedAccount"`
	UnknownReference     int64 `json:"unknownReference"`
	DuplicateTransaction int64 `json:"duplicateTransaction"`
	Malformed            int64 `json:"malformed"`
}

// Merge returns the element-wise sum of s and other.
func (s RejectionStats) Merge(other RejectionStats) RejectionStats {
	return RejectionStats{
		Applied:              s.Applied + other.Applied,
		InsufficientFunds:    s.InsufficientFunds + other.InsufficientFunds,
		LockedAccount:        s.LockedAccount + other.LockedAccount,
		UnknownReference:     s.UnknownReference + other.UnknownReference,
		DuplicateTransaction: s.DuplicateTransaction + other.DuplicateTransaction,
		Malformed:            s.Malformed + other.Malformed,
	}
}

// TotalRejected is the count of records that did not mutate any state.
func (s RejectionStats) TotalRejected() int64 {
	return s.InsufficientFunds + s.LockedAccount + s.UnknownReference + s.DuplicateTransaction + s.Malformed
}
