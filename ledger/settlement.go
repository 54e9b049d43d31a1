package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/bitfsorg/liboffset-go/principal"
)

// Settlement describes an accepted offer whose consideration the host must
// move from Buyer to the offer's merchant.
type Settlement struct {
	Offer         Offer
	Buyer         principal.Principal
	Height        uint64
	Consideration uint64 // Offer.Quantity * Offer.Rate
}

// Settler moves consideration for an accepted offer. The ledger does not
// model payment; a host that can settle supplies one with WithSettler.
//
// Settle is called with no store transaction open, so it may query the
// Ledger. A non-nil error aborts the acceptance. Settle runs before the
// transfer is committed; if the commit then fails (the offer was withdrawn
// or the merchant's balance moved in the meantime) the ledger calls
// Compensate when the settler also implements Compensator. A settler that
// does not is responsible for returning consideration on its own.
type Settler interface {
	Settle(ctx context.Context, s Settlement) error
}

// Compensator is implemented by settlers that can undo a Settle whose
// transfer was not committed. cause is the commit error.
type Compensator interface {
	Compensate(ctx context.Context, s Settlement, cause error) error
}

// SettlerFunc adapts a function to Settler.
type SettlerFunc func(ctx context.Context, s Settlement) error

// Settle calls f.
func (f SettlerFunc) Settle(ctx context.Context, s Settlement) error {
	return f(ctx, s)
}

// AcceptOffer fills an active offer in full for the caller. The offer is
// checked against a read-only view, the settler is called with no lock
// held, and the transfer is committed in one write transaction that repeats
// every check. The merchant's balance is checked each time since publishing
// does not reserve it. On success the units move to the buyer, the offer is
// deactivated, and the traded volume grows by the offer quantity. Without a
// settler every call fails with ErrSettlementBlocked.
func (l *Ledger) AcceptOffer(ctx context.Context, inv Invocation, offerID uint64) error {
	const op = "accept-offer"
	if l.settler == nil {
		return l.report(ctx, op, inv, fmt.Errorf("%w: no settler configured", ErrSettlementBlocked))
	}

	var st Settlement
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		st, err = prepareSettlement(tx, inv, offerID)
		return err
	})
	if err != nil {
		return l.report(ctx, op, inv, err)
	}

	if err := l.settler.Settle(ctx, st); err != nil {
		return l.report(ctx, op, inv, fmt.Errorf("%w: %w", ErrSettlementBlocked, err))
	}

	err = l.store.Update(ctx, func(tx Tx) error {
		return l.commitSettlement(tx, inv, st)
	})
	if err != nil {
		if c, ok := l.settler.(Compensator); ok {
			if cerr := c.Compensate(ctx, st, err); cerr != nil {
				l.logger.WithContext(ctx).Error("settlement compensation failed",
					"offer", offerID,
					"buyer", l.render(st.Buyer),
					"error", cerr.Error())
				err = errors.Join(err, fmt.Errorf("ledger: compensate settlement: %w", cerr))
			}
		}
	}
	return l.report(ctx, op, inv, err)
}

// prepareSettlement validates an acceptance against tx and prices it.
func prepareSettlement(tx Tx, inv Invocation, offerID uint64) (Settlement, error) {
	offer, err := activeOffer(tx, offerID)
	if err != nil {
		return Settlement{}, err
	}
	if offer.Merchant == inv.Caller {
		return Settlement{}, fmt.Errorf("%w: merchant cannot accept own offer", ErrInvalidParam)
	}
	tok, ok, err := tx.Token(offer.TokenID)
	if err != nil {
		return Settlement{}, err
	}
	if !ok {
		return Settlement{}, fmt.Errorf("%w: token %d", ErrNotFound, offer.TokenID)
	}
	if tok.Consumed {
		return Settlement{}, fmt.Errorf("%w: token %d", ErrAlreadyConsumed, offer.TokenID)
	}
	has, err := NewBook(tx).HasAvailable(offer.Merchant, offer.TokenID, offer.Quantity)
	if err != nil {
		return Settlement{}, err
	}
	if !has {
		return Settlement{}, fmt.Errorf("%w: merchant no longer holds %d units", ErrInsufficientBalance, offer.Quantity)
	}
	hi, consideration := bits.Mul64(offer.Quantity, offer.Rate)
	if hi != 0 {
		return Settlement{}, fmt.Errorf("%w: consideration overflows", ErrSettlementBlocked)
	}
	counters, err := tx.Counters()
	if err != nil {
		return Settlement{}, err
	}
	if counters.Metrics.Traded+offer.Quantity < counters.Metrics.Traded {
		return Settlement{}, fmt.Errorf("%w: traded volume overflows", ErrSettlementBlocked)
	}
	return Settlement{
		Offer:         offer,
		Buyer:         inv.Caller,
		Height:        inv.Height,
		Consideration: consideration,
	}, nil
}

// commitSettlement repeats the acceptance checks and moves the units.
func (l *Ledger) commitSettlement(tx Tx, inv Invocation, settled Settlement) error {
	st, err := prepareSettlement(tx, inv, settled.Offer.ID)
	if err != nil {
		return err
	}
	if st != settled {
		return fmt.Errorf("%w: offer %d changed during settlement", ErrSettlementBlocked, settled.Offer.ID)
	}
	offer := st.Offer

	book := NewBook(tx)
	if err := book.DebitAvailable(offer.Merchant, offer.TokenID, offer.Quantity); err != nil {
		return err
	}
	if err := book.CreditAvailable(inv.Caller, offer.TokenID, offer.Quantity); err != nil {
		return err
	}

	// Custody follows the units once the custodian has sold all it holds.
	tok, _, err := tx.Token(offer.TokenID)
	if err != nil {
		return err
	}
	if tok.Custodian == offer.Merchant {
		left, err := book.Entry(offer.Merchant, offer.TokenID)
		if err != nil {
			return err
		}
		if left.Available == 0 {
			tok.Custodian = inv.Caller
			if err := tx.PutToken(tok); err != nil {
				return err
			}
		}
	}

	offer.Active = false
	if err := tx.PutOffer(offer); err != nil {
		return err
	}
	counters, err := tx.Counters()
	if err != nil {
		return err
	}
	counters.Metrics.Traded += offer.Quantity
	if err := tx.PutCounters(counters); err != nil {
		return err
	}
	return l.emit(tx, inv, Event{
		Kind:     EventOfferSettled,
		Subject:  offer.Merchant,
		TokenID:  offer.TokenID,
		OfferID:  offer.ID,
		Quantity: offer.Quantity,
	})
}
