package ledger

import (
	"context"
	"fmt"

	"github.com/bitfsorg/liboffset-go/principal"
)

// ReassignAdministrator hands every administrator power to newAdmin.
// Only the current administrator may call it.
func (l *Ledger) ReassignAdministrator(ctx context.Context, inv Invocation, newAdmin principal.Principal) error {
	return l.mutate(ctx, "reassign-administrator", inv, func(tx Tx) error {
		if err := authorize(tx, inv.Caller, CapAdministrator); err != nil {
			return err
		}
		if newAdmin.IsZero() {
			return fmt.Errorf("%w: administrator must not be zero", ErrInvalidParam)
		}
		if err := tx.SetAdministrator(newAdmin); err != nil {
			return err
		}
		return l.emit(tx, inv, Event{Kind: EventAdministratorReassigned, Subject: newAdmin})
	})
}

// EnlistAuthenticator lets id credential developers.
func (l *Ledger) EnlistAuthenticator(ctx context.Context, inv Invocation, id principal.Principal) error {
	return l.mutate(ctx, "enlist-authenticator", inv, func(tx Tx) error {
		if err := authorize(tx, inv.Caller, CapAdministrator); err != nil {
			return err
		}
		if id.IsZero() {
			return fmt.Errorf("%w: authenticator must not be zero", ErrInvalidParam)
		}
		present, err := tx.IsAuthenticator(id)
		if err != nil {
			return err
		}
		if present {
			return ErrAlreadyActive
		}
		if err := tx.SetAuthenticator(id, true); err != nil {
			return err
		}
		return l.emit(tx, inv, Event{Kind: EventAuthenticatorEnlisted, Subject: id})
	})
}

// DelistAuthenticator removes id. Credentials id already wrote are kept,
// though they stop conferring CapDeveloper while id is absent.
func (l *Ledger) DelistAuthenticator(ctx context.Context, inv Invocation, id principal.Principal) error {
	return l.mutate(ctx, "delist-authenticator", inv, func(tx Tx) error {
		if err := authorize(tx, inv.Caller, CapAdministrator); err != nil {
			return err
		}
		present, err := tx.IsAuthenticator(id)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("%w: authenticator", ErrNotFound)
		}
		if err := tx.SetAuthenticator(id, false); err != nil {
			return err
		}
		return l.emit(tx, inv, Event{Kind: EventAuthenticatorDelisted, Subject: id})
	})
}
