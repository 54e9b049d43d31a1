package ledger

import (
	"context"
	"fmt"

	"github.com/bitfsorg/liboffset-go/principal"
)

func validateSpec(spec TokenSpec) error {
	if spec.Quantity == 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidParam)
	}
	fields := []struct{ name, value string }{
		{"scheme", spec.Scheme},
		{"location", spec.Location},
		{"framework", spec.Framework},
		{"credential ref", spec.CredentialRef},
	}
	for _, f := range fields {
		if len(f.value) > MaxTextLength {
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidParam, f.name, MaxTextLength)
		}
	}
	return nil
}

// IssueToken creates a credit batch held by the caller, who must hold a
// valid credential from an enlisted authenticator. It returns the new
// token's identifier.
func (l *Ledger) IssueToken(ctx context.Context, inv Invocation, spec TokenSpec) (uint64, error) {
	var id uint64
	err := l.mutate(ctx, "issue-token", inv, func(tx Tx) error {
		if err := authorize(tx, inv.Caller, CapDeveloper); err != nil {
			return err
		}
		if err := validateSpec(spec); err != nil {
			return err
		}
		counters, err := tx.Counters()
		if err != nil {
			return err
		}
		next, err := nextFree(counters.TokenSeq, func(id uint64) (bool, error) {
			_, exists, err := tx.Token(id)
			return exists, err
		})
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		if counters.Metrics.Generated+spec.Quantity < counters.Metrics.Generated {
			return fmt.Errorf("%w: generated supply overflows", ErrInvalidParam)
		}

		tok := Token{
			ID:            next,
			Custodian:     inv.Caller,
			Originator:    inv.Caller,
			Quantity:      spec.Quantity,
			Scheme:        spec.Scheme,
			Location:      spec.Location,
			Framework:     spec.Framework,
			Vintage:       spec.Vintage,
			CredentialRef: spec.CredentialRef,
			IssuedAt:      inv.Height,
		}
		if err := tx.PutToken(tok); err != nil {
			return err
		}
		if err := NewBook(tx).CreditAvailable(inv.Caller, next, spec.Quantity); err != nil {
			return err
		}

		counters.TokenSeq = next
		counters.Metrics.Generated += spec.Quantity
		if err := tx.PutCounters(counters); err != nil {
			return err
		}
		id = next
		return l.emit(tx, inv, Event{Kind: EventTokenIssued, TokenID: next, Quantity: spec.Quantity})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RetireCredits permanently moves amount of the caller's available balance
// to consumed, claiming the impact for beneficiary (the caller if zero).
// When the last outstanding unit is retired the token becomes consumed.
func (l *Ledger) RetireCredits(ctx context.Context, inv Invocation, tokenID, amount uint64, beneficiary principal.Principal) (Token, error) {
	var out Token
	err := l.mutate(ctx, "retire-credits", inv, func(tx Tx) error {
		tok, ok, err := tx.Token(tokenID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: token %d", ErrNotFound, tokenID)
		}
		if tok.Consumed {
			return fmt.Errorf("%w: token %d", ErrAlreadyConsumed, tokenID)
		}
		if amount == 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidParam)
		}
		book := NewBook(tx)
		has, err := book.HasAvailable(inv.Caller, tokenID, amount)
		if err != nil {
			return err
		}
		if !has || amount > tok.Outstanding() {
			return fmt.Errorf("%w: cannot retire %d units of token %d", ErrInsufficientBalance, amount, tokenID)
		}
		if err := book.MoveAvailableToConsumed(inv.Caller, tokenID, amount); err != nil {
			return err
		}

		if beneficiary.IsZero() {
			beneficiary = inv.Caller
		}
		tok.Retired += amount
		if tok.Retired == tok.Quantity {
			tok.Consumed = true
			tok.ConsumedBy = beneficiary
			tok.ConsumedAt = inv.Height
		}
		if err := tx.PutToken(tok); err != nil {
			return err
		}

		counters, err := tx.Counters()
		if err != nil {
			return err
		}
		counters.Metrics.Retired += amount
		if err := tx.PutCounters(counters); err != nil {
			return err
		}
		out = tok
		return l.emit(tx, inv, Event{
			Kind:     EventCreditsRetired,
			Subject:  beneficiary,
			TokenID:  tokenID,
			Quantity: amount,
		})
	})
	if err != nil {
		return Token{}, err
	}
	return out, nil
}
