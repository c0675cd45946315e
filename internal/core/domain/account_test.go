package domain_test

import (
	"testing"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountIsZeroed(t *testing.T) {
	acc := domain.NewAccount(7)

	assert.Equal(t, uint16(7), acc.ClientID)
	assert.True(t, acc.Available.IsZero())
	assert.True(t, acc.Held.IsZero())
	assert.False(t, acc.Locked)
	assert.True(t, acc.Total().IsZero())
}

func TestTotalIsDerived(t *testing.T) {
	tests := []struct {
		name      string
		available string
		held      string
		want      string
	}{
		{"both positive", "10.5", "2.25", "12.75"},
		{"negative available", "-3.0001", "5", "1.9999"},
		{"negative held", "4", "-1.5", "2.5"},
		{"both zero", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := domain.NewAccount(1)
			acc.Available = decimal.RequireFromString(tt.available)
			acc.Held = decimal.RequireFromString(tt.held)

			assert.True(t, decimal.RequireFromString(tt.want).Equal(acc.Total()))
		})
	}
}

func TestSnapshotMirrorsAccount(t *testing.T) {
	acc := domain.NewAccount(42)
	acc.Available = decimal.RequireFromString("1.5")
	acc.Held = decimal.RequireFromString("0.5")
	acc.Locked = true

	snap := acc.Snapshot()

	require.Equal(t, uint16(42), snap.ClientID)
	assert.True(t, snap.Available.Equal(acc.Available))
	assert.True(t, snap.Held.Equal(acc.Held))
	assert.True(t, snap.Total.Equal(decimal.RequireFromString("2")))
	assert.True(t, snap.Locked)
}
