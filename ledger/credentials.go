package ledger

import (
	"context"
	"fmt"

	"github.com/bitfsorg/liboffset-go/principal"
)

// ApproveDeveloper records a valid credential for (developer, caller).
// Approving again overwrites the height and label.
func (l *Ledger) ApproveDeveloper(ctx context.Context, inv Invocation, developer principal.Principal, label string) error {
	return l.mutate(ctx, "approve-developer", inv, func(tx Tx) error {
		if err := authorize(tx, inv.Caller, CapAuthenticator); err != nil {
			return err
		}
		if developer.IsZero() {
			return fmt.Errorf("%w: developer must not be zero", ErrInvalidParam)
		}
		if len(label) > MaxLabelLength {
			return fmt.Errorf("%w: label exceeds %d bytes", ErrInvalidParam, MaxLabelLength)
		}
		cred := Credential{
			Developer:     developer,
			Authenticator: inv.Caller,
			Valid:         true,
			RegisteredAt:  inv.Height,
			Label:         label,
		}
		if err := tx.PutCredential(cred); err != nil {
			return err
		}
		return l.emit(tx, inv, Event{Kind: EventDeveloperApproved, Subject: developer})
	})
}

// RevokeDeveloper invalidates the caller's credential for developer,
// keeping its registration height and label. Credentials from other
// authenticators are unaffected.
func (l *Ledger) RevokeDeveloper(ctx context.Context, inv Invocation, developer principal.Principal) error {
	return l.mutate(ctx, "revoke-developer", inv, func(tx Tx) error {
		if err := authorize(tx, inv.Caller, CapAuthenticator); err != nil {
			return err
		}
		key := CredentialKey{Developer: developer, Authenticator: inv.Caller}
		cred, ok, err := tx.Credential(key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: credential", ErrNotFound)
		}
		cred.Valid = false
		if err := tx.PutCredential(cred); err != nil {
			return err
		}
		return l.emit(tx, inv, Event{Kind: EventDeveloperRevoked, Subject: developer})
	})
}
