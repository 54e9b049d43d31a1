package ledger

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the role the operation requires.
	ErrUnauthorized = errors.New("ledger: unauthorized")

	// ErrNotFound indicates a referenced authenticator, credential, token, or
	// offer does not exist. Withdrawing an inactive offer also reports it.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrAlreadyActive indicates the authenticator is already enlisted.
	ErrAlreadyActive = errors.New("ledger: authenticator already active")

	// ErrDuplicateIdentifier indicates an issued identifier is already in use.
	ErrDuplicateIdentifier = errors.New("ledger: duplicate identifier")

	// ErrInsufficientBalance indicates a movement exceeds the available balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrAlreadyConsumed indicates the token is fully retired.
	ErrAlreadyConsumed = errors.New("ledger: token already consumed")

	// ErrInvalidRate indicates a zero unit rate.
	ErrInvalidRate = errors.New("ledger: invalid rate")

	// ErrNotSeller indicates the caller does not own the offer.
	ErrNotSeller = errors.New("ledger: caller is not the seller")

	// ErrSettlementBlocked indicates an offer cannot be settled.
	ErrSettlementBlocked = errors.New("ledger: settlement blocked")

	// ErrInvalidParam indicates a malformed argument (zero amount, zero
	// principal, oversized text).
	ErrInvalidParam = errors.New("ledger: invalid parameter")

	// ErrNoAdministrator indicates a fresh store was opened without an administrator.
	ErrNoAdministrator = errors.New("ledger: no administrator configured")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("ledger: required parameter is nil")
)

// Aliases for the names hosts know these kinds by.
var (
	ErrInvalidAuthenticator = ErrNotFound
	ErrOfferMissing         = ErrNotFound
	ErrUnusableToken        = ErrAlreadyConsumed
)

// ErrReadOnly indicates a write was attempted inside a View transaction.
var ErrReadOnly = errors.New("ledger: write in read-only transaction")
