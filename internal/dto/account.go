package dto

import (
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountResponse defines the data returned for an account snapshot.
// Mirrors domain.AccountSnapshot.
type AccountResponse struct {
	ClientID  uint16          `json:"clientID"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}

// ToAccountResponse converts a domain.AccountSnapshot to AccountResponse DTO
func ToAccountResponse(snap domain.AccountSnapshot) AccountResponse {
	return AccountResponse{
		ClientID:  snap.ClientID,
		Available: snap.Available,
		Held:      snap.Held,
		Total:     snap.Total,
		Locked:    snap.Locked,
	}
}

// ListAccountsResponse wraps the list of account snapshots.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ToListAccountsResponse converts a slice of snapshots to the list DTO.
func ToListAccountsResponse(snaps []domain.AccountSnapshot) ListAccountsResponse {
	res := ListAccountsResponse{Accounts: make([]AccountResponse, len(snaps))}
	for i, snap := range snaps {
		res.Accounts[i] = ToAccountResponse(snap)
	}
	return res
}
