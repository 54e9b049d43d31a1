// Package principal identifies the actors of the offset ledger.
//
// A Principal is the HASH160 of a compressed secp256k1 public key, the same
// 20 bytes carried by a P2PKH address. The ledger only compares principals
// against stored authorization state; proving control of the key is the
// host's job.
package principal

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
)

// Size is the byte length of a Principal.
const Size = 20

// Principal is a caller identity.
type Principal [Size]byte

// Zero is the unset principal. It is never a well-formed identity.
var Zero Principal

// FromPubKey derives the principal of a public key.
func FromPubKey(pub *ec.PublicKey) (Principal, error) {
	if pub == nil {
		return Zero, fmt.Errorf("%w: public key", ErrNilParam)
	}
	return FromHash(bsvhash.Hash160(pub.Compressed()))
}

// FromHash wraps a 20-byte public key hash.
func FromHash(h []byte) (Principal, error) {
	var p Principal
	if len(h) != Size {
		return Zero, fmt.Errorf("%w: got %d bytes", ErrInvalidHash, len(h))
	}
	copy(p[:], h)
	return p, nil
}

// ParseAddress parses a base58 P2PKH address of either network.
func ParseAddress(addr string) (Principal, error) {
	a, err := script.NewAddressFromString(addr)
	if err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	p, err := FromHash([]byte(a.PublicKeyHash))
	if err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return p, nil
}

// Address renders p as a P2PKH address for net.
func (p Principal) Address(net *Network) (string, error) {
	mainnet := net == nil || net.Mainnet
	a, err := script.NewAddressFromPublicKeyHash(p[:], mainnet)
	if err != nil {
		return "", fmt.Errorf("principal: encode address: %w", err)
	}
	return a.AddressString, nil
}

// IsZero reports whether p is unset.
func (p Principal) IsZero() bool {
	return p == Zero
}

// String returns the hex encoding of p.
func (p Principal) String() string {
	return hex.EncodeToString(p[:])
}

// ParseHex parses the output of String.
func ParseHex(s string) (Principal, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return FromHash(b)
}
