package ledger

import (
	"context"
	"fmt"
)

// PublishOffer lists quantity units of tokenID at rate per unit and returns
// the new offer identifier. The caller's balance is checked, not reserved:
// overlapping offers may together exceed it.
func (l *Ledger) PublishOffer(ctx context.Context, inv Invocation, tokenID, quantity, rate uint64) (uint64, error) {
	var id uint64
	err := l.mutate(ctx, "publish-offer", inv, func(tx Tx) error {
		tok, ok, err := tx.Token(tokenID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: token %d", ErrNotFound, tokenID)
		}
		if tok.Consumed {
			return fmt.Errorf("%w: token %d", ErrUnusableToken, tokenID)
		}
		has, err := NewBook(tx).HasAvailable(inv.Caller, tokenID, quantity)
		if err != nil {
			return err
		}
		if !has {
			return fmt.Errorf("%w: offer of %d units", ErrInsufficientBalance, quantity)
		}
		if rate == 0 {
			return ErrInvalidRate
		}
		if quantity == 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInvalidParam)
		}

		counters, err := tx.Counters()
		if err != nil {
			return err
		}
		next, err := nextFree(counters.OfferSeq, func(id uint64) (bool, error) {
			_, exists, err := tx.Offer(id)
			return exists, err
		})
		if err != nil {
			return fmt.Errorf("offer: %w", err)
		}
		offer := Offer{
			ID:       next,
			Merchant: inv.Caller,
			TokenID:  tokenID,
			Quantity: quantity,
			Rate:     rate,
			Active:   true,
		}
		if err := tx.PutOffer(offer); err != nil {
			return err
		}
		counters.OfferSeq = next
		if err := tx.PutCounters(counters); err != nil {
			return err
		}
		id = next
		return l.emit(tx, inv, Event{Kind: EventOfferPublished, TokenID: tokenID, OfferID: next, Quantity: quantity})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// WithdrawOffer deactivates the caller's offer. An inactive offer counts
// as missing; there is no way to reactivate one.
func (l *Ledger) WithdrawOffer(ctx context.Context, inv Invocation, offerID uint64) error {
	return l.mutate(ctx, "withdraw-offer", inv, func(tx Tx) error {
		offer, err := activeOffer(tx, offerID)
		if err != nil {
			return err
		}
		if offer.Merchant != inv.Caller {
			return ErrNotSeller
		}
		offer.Active = false
		if err := tx.PutOffer(offer); err != nil {
			return err
		}
		return l.emit(tx, inv, Event{Kind: EventOfferWithdrawn, TokenID: offer.TokenID, OfferID: offerID, Quantity: offer.Quantity})
	})
}

func activeOffer(tx Tx, offerID uint64) (Offer, error) {
	offer, ok, err := tx.Offer(offerID)
	if err != nil {
		return Offer{}, err
	}
	if !ok || !offer.Active {
		return Offer{}, fmt.Errorf("%w: offer %d", ErrOfferMissing, offerID)
	}
	return offer, nil
}
