package ledger

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Stable text codes for hosts that expose the ledger.
const (
	TextUnauthorized        = "LEDGER_UNAUTHORIZED"
	TextNotFound            = "LEDGER_NOT_FOUND"
	TextAlreadyActive       = "LEDGER_ALREADY_ACTIVE"
	TextDuplicateIdentifier = "LEDGER_DUPLICATE_IDENTIFIER"
	TextInsufficientBalance = "LEDGER_INSUFFICIENT_BALANCE"
	TextAlreadyConsumed     = "LEDGER_ALREADY_CONSUMED"
	TextInvalidRate         = "LEDGER_INVALID_RATE"
	TextNotSeller           = "LEDGER_NOT_SELLER"
	TextSettlementBlocked   = "LEDGER_SETTLEMENT_BLOCKED"
	TextInvalidParam        = "LEDGER_INVALID_PARAM"
	TextInternal            = "LEDGER_INTERNAL_ERROR"
)

type errorKind struct {
	sentinel error
	category goerrors.Category
	code     int
	text     string
}

var errorKinds = []errorKind{
	{ErrUnauthorized, goerrors.CategoryAuthz, http.StatusForbidden, TextUnauthorized},
	{ErrNotFound, goerrors.CategoryNotFound, http.StatusNotFound, TextNotFound},
	{ErrAlreadyActive, goerrors.CategoryConflict, http.StatusConflict, TextAlreadyActive},
	{ErrDuplicateIdentifier, goerrors.CategoryConflict, http.StatusConflict, TextDuplicateIdentifier},
	{ErrInsufficientBalance, goerrors.CategoryOperation, http.StatusUnprocessableEntity, TextInsufficientBalance},
	{ErrAlreadyConsumed, goerrors.CategoryConflict, http.StatusConflict, TextAlreadyConsumed},
	{ErrInvalidRate, goerrors.CategoryBadInput, http.StatusBadRequest, TextInvalidRate},
	{ErrNotSeller, goerrors.CategoryAuthz, http.StatusForbidden, TextNotSeller},
	{ErrSettlementBlocked, goerrors.CategoryOperation, http.StatusUnprocessableEntity, TextSettlementBlocked},
	{ErrInvalidParam, goerrors.CategoryBadInput, http.StatusBadRequest, TextInvalidParam},
	{ErrNilParam, goerrors.CategoryBadInput, http.StatusBadRequest, TextInvalidParam},
}

// Describe wraps err in a go-errors envelope carrying the error kind's
// category, HTTP-style code, and text code. Errors outside the ledger's
// taxonomy are reported as internal. Describe(nil) is nil.
func Describe(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return goerrors.Wrap(err, k.category, err.Error()).
				WithCode(k.code).
				WithTextCode(k.text)
		}
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, err.Error()).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextInternal)
}
