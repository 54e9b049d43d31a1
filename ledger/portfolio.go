package ledger

import (
	"fmt"

	"github.com/bitfsorg/liboffset-go/principal"
)

// Book is the balance primitive set scoped to one transaction. Each
// mutation checks its preconditions before writing, so a rejected call
// leaves the entry untouched.
type Book struct {
	tx Tx
}

// NewBook returns the balance primitives for tx.
func NewBook(tx Tx) Book {
	return Book{tx: tx}
}

// Entry returns the holder's row, or a zero row keyed to (holder, tokenID).
func (b Book) Entry(holder principal.Principal, tokenID uint64) (PortfolioEntry, error) {
	e, ok, err := b.tx.Entry(PortfolioKey{Holder: holder, TokenID: tokenID})
	if err != nil {
		return PortfolioEntry{}, err
	}
	if !ok {
		return PortfolioEntry{Holder: holder, TokenID: tokenID}, nil
	}
	return e, nil
}

// HasAvailable reports whether holder can move amount units of tokenID.
func (b Book) HasAvailable(holder principal.Principal, tokenID, amount uint64) (bool, error) {
	e, err := b.Entry(holder, tokenID)
	if err != nil {
		return false, err
	}
	return e.Available >= amount, nil
}

// DebitAvailable removes amount from holder's available balance.
func (b Book) DebitAvailable(holder principal.Principal, tokenID, amount uint64) error {
	e, err := b.Entry(holder, tokenID)
	if err != nil {
		return err
	}
	if e.Available < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, e.Available, amount)
	}
	e.Available -= amount
	return b.tx.PutEntry(e)
}

// CreditAvailable adds amount to holder's available balance. A consumed
// token can never be credited, and no single row may hold more than the
// token's quantity.
func (b Book) CreditAvailable(holder principal.Principal, tokenID, amount uint64) error {
	tok, ok, err := b.tx.Token(tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: token %d", ErrNotFound, tokenID)
	}
	if tok.Consumed {
		return fmt.Errorf("%w: token %d", ErrAlreadyConsumed, tokenID)
	}
	e, err := b.Entry(holder, tokenID)
	if err != nil {
		return err
	}
	held := e.Available + e.Consumed
	if held < e.Available || held+amount < held || held+amount > tok.Quantity {
		return fmt.Errorf("%w: credit of %d exceeds token %d quantity", ErrInvalidParam, amount, tokenID)
	}
	e.Available += amount
	return b.tx.PutEntry(e)
}

// MoveAvailableToConsumed retires amount of holder's available balance.
func (b Book) MoveAvailableToConsumed(holder principal.Principal, tokenID, amount uint64) error {
	e, err := b.Entry(holder, tokenID)
	if err != nil {
		return err
	}
	if e.Available < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, e.Available, amount)
	}
	e.Available -= amount
	e.Consumed += amount
	return b.tx.PutEntry(e)
}
