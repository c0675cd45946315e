package domain

import (
	"github.com/shopspring/decimal"
)

// Account holds one client's funds within the core domain.
// This is the primary representation used by services.
type Account struct {
	ClientID  uint16          `json:"clientID"`  // Natural-number client identifier, created on first touch
	Available decimal.Decimal `json:"available"` // Funds the client may withdraw or that can be placed on hold
	Held      decimal.Decimal `json:"held"`      // Funds frozen by an active dispute
	Locked    bool            `json:"locked"`    // Set by a chargeback; blocks further client-initiated operations
}

// NewAccount creates a zeroed account for the given client.
func NewAccount(clientID uint16) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total is derived from available and held, never stored.
// Both components may independently be negative after disputes.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Snapshot captures the account's externally visible state.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ClientID:  a.ClientID,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// AccountSnapshot is the read model handed to output adapters once a
// stream has been processed (or on demand over the query API).
type AccountSnapshot struct {
	ClientID  uint16          `json:"clientID"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}
