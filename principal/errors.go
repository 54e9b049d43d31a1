package principal

import "errors"

var (
	// ErrInvalidAddress indicates a string is not a valid P2PKH address.
	ErrInvalidAddress = errors.New("principal: invalid address")

	// ErrInvalidHash indicates a public key hash is not 20 bytes.
	ErrInvalidHash = errors.New("principal: public key hash must be 20 bytes")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("principal: required parameter is nil")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("principal: invalid network")
)
