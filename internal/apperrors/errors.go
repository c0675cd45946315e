package apperrors

import "errors"

// ErrInsufficientFunds indicates a withdrawal larger than the available balance.
// The withdrawal is rejected and the account is left untouched.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrAccountLocked indicates a client-initiated operation against a locked account.
var ErrAccountLocked = errors.New("account is locked")

// ErrUnknownReference indicates a dispute, resolve or chargeback that references
// a missing entry, an entry recorded for a different client, or an entry in a
// state that cannot accept the transition. Dropped without touching balances.
var ErrUnknownReference = errors.New("unknown or inapplicable transaction reference")

// ErrDuplicateTransaction indicates a deposit reusing an already-seen transaction id.
var ErrDuplicateTransaction = errors.New("duplicate transaction id")

// ErrMalformedRecord indicates a record whose shape or amount failed validation.
var ErrMalformedRecord = errors.New("malformed transaction record")

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")
