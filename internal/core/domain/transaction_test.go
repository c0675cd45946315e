package domain_test

import (
	"testing"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionTypeClassification(t *testing.T) {
	tests := []struct {
		txType          domain.TransactionType
		valid           bool
		carriesAmount   bool
		clientInitiated bool
	}{
		{domain.Deposit, true, true, true},
		{domain.Withdrawal, true, true, true},
		{domain.Dispute, true, false, false},
		{domain.Resolve, true, false, false},
		{domain.Chargeback, true, false, false},
		{domain.TransactionType("transfer"), false, false, false},
		{domain.TransactionType(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.txType.IsValid())
			assert.Equal(t, tt.carriesAmount, tt.txType.CarriesAmount())
			assert.Equal(t, tt.clientInitiated, tt.txType.IsClientInitiated())
		})
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   bool
	}{
		{"whole number", "10", true},
		{"four decimal places", "0.0001", true},
		{"five decimal places", "0.00001", false},
		{"trailing zero past four places", "0.00010", true},
		{"padded to five places", "1.50000", true},
		{"padded but five significant places", "1.50001", false},
		{"zero", "0", false},
		{"padded zero", "0.00000", false},
		{"negative", "-1.5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ValidAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestRejectionStatsMerge(t *testing.T) {
	a := domain.RejectionStats{Applied: 3, InsufficientFunds: 1, Malformed: 2}
	b := domain.RejectionStats{Applied: 2, LockedAccount: 4, UnknownReference: 1, DuplicateTransaction: 1}

	merged := a.Merge(b)

	assert.Equal(t, int64(5), merged.Applied)
	assert.Equal(t, int64(1), merged.InsufficientFunds)
	assert.Equal(t, int64(4), merged.LockedAccount)
	assert.Equal(t, int64(1), merged.UnknownReference)
	assert.Equal(t, int64(1), merged.DuplicateTransaction)
	assert.Equal(t, int64(2), merged.Malformed)
	assert.Equal(t, int64(9), merged.TotalRejected())
}
