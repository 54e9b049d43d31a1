package ledger

import (
	"context"

	"github.com/bitfsorg/liboffset-go/principal"
)

// Administrator returns the current administrator.
func (l *Ledger) Administrator(ctx context.Context) (principal.Principal, error) {
	var admin principal.Principal
	err := l.store.View(ctx, func(tx Tx) error {
		p, ok, err := tx.Administrator()
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoAdministrator
		}
		admin = p
		return nil
	})
	return admin, err
}

// IsAuthenticator reports whether p is enlisted.
func (l *Ledger) IsAuthenticator(ctx context.Context, p principal.Principal) (bool, error) {
	var present bool
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		present, err = tx.IsAuthenticator(p)
		return err
	})
	return present, err
}

// HasCapability reports whether p currently holds c.
func (l *Ledger) HasCapability(ctx context.Context, p principal.Principal, c Capability) (bool, error) {
	var ok bool
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		ok, err = HasCapability(tx, p, c)
		return err
	})
	return ok, err
}

// Credential returns the (developer, authenticator) credential.
func (l *Ledger) Credential(ctx context.Context, developer, authenticator principal.Principal) (Credential, bool, error) {
	var (
		cred  Credential
		found bool
	)
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		cred, found, err = tx.Credential(CredentialKey{Developer: developer, Authenticator: authenticator})
		return err
	})
	return cred, found, err
}

// Token returns a token by identifier.
func (l *Ledger) Token(ctx context.Context, id uint64) (Token, bool, error) {
	var (
		tok   Token
		found bool
	)
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		tok, found, err = tx.Token(id)
		return err
	})
	return tok, found, err
}

// Portfolio returns holder's balances for one token.
func (l *Ledger) Portfolio(ctx context.Context, holder principal.Principal, tokenID uint64) (PortfolioEntry, bool, error) {
	var (
		entry PortfolioEntry
		found bool
	)
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		entry, found, err = tx.Entry(PortfolioKey{Holder: holder, TokenID: tokenID})
		return err
	})
	return entry, found, err
}

// Holdings returns every balance row of holder, ordered by token.
func (l *Ledger) Holdings(ctx context.Context, holder principal.Principal) ([]PortfolioEntry, error) {
	var entries []PortfolioEntry
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		entries, err = tx.EntriesOf(holder)
		return err
	})
	return entries, err
}

// Offer returns an offer by identifier, active or not.
func (l *Ledger) Offer(ctx context.Context, id uint64) (Offer, bool, error) {
	var (
		offer Offer
		found bool
	)
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		offer, found, err = tx.Offer(id)
		return err
	})
	return offer, found, err
}

// Metrics returns the aggregate counters.
func (l *Ledger) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	err := l.store.View(ctx, func(tx Tx) error {
		c, err := tx.Counters()
		if err != nil {
			return err
		}
		m = c.Metrics
		return nil
	})
	return m, err
}

// Events returns up to limit journal entries with Seq > afterSeq, oldest
// first. A limit of zero or less returns all of them.
func (l *Ledger) Events(ctx context.Context, afterSeq uint64, limit int) ([]Event, error) {
	var events []Event
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		events, err = tx.Events(afterSeq, limit)
		return err
	})
	return events, err
}
