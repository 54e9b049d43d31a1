package ledger

import (
	"fmt"

	"github.com/bitfsorg/liboffset-go/principal"
)

// Capability is a role a caller must hold for a write.
type Capability int

const (
	// CapAdministrator is held by the single administrator.
	CapAdministrator Capability = iota + 1
	// CapAuthenticator is held by every enlisted authenticator.
	CapAuthenticator
	// CapDeveloper is held by a principal with at least one valid credential
	// from a currently enlisted authenticator.
	CapDeveloper
)

func (c Capability) String() string {
	switch c {
	case CapAdministrator:
		return "administrator"
	case CapAuthenticator:
		return "authenticator"
	case CapDeveloper:
		return "developer"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// HasCapability reports whether p holds c in the state visible to tx.
func HasCapability(tx Tx, p principal.Principal, c Capability) (bool, error) {
	switch c {
	case CapAdministrator:
		admin, ok, err := tx.Administrator()
		if err != nil {
			return false, err
		}
		return ok && admin == p, nil

	case CapAuthenticator:
		return tx.IsAuthenticator(p)

	case CapDeveloper:
		creds, err := tx.CredentialsOf(p)
		if err != nil {
			return false, err
		}
		for _, cred := range creds {
			if !cred.Valid {
				continue
			}
			enlisted, err := tx.IsAuthenticator(cred.Authenticator)
			if err != nil {
				return false, err
			}
			if enlisted {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: unknown capability %d", ErrInvalidParam, int(c))
}

// authorize fails with ErrUnauthorized unless p holds c.
func authorize(tx Tx, p principal.Principal, c Capability) error {
	ok, err := HasCapability(tx, p, c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s required", ErrUnauthorized, c)
	}
	return nil
}
