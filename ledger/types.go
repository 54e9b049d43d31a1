package ledger

import (
	"github.com/google/uuid"

	"github.com/bitfsorg/liboffset-go/principal"
)

const (
	// MaxLabelLength bounds a credential's initiative label, in bytes.
	MaxLabelLength = 64

	// MaxTextLength bounds each descriptive text field of a token, in bytes.
	MaxTextLength = 128
)

// Invocation carries what the host supplies with every call.
type Invocation struct {
	Caller principal.Principal
	Height uint64 // current logical height, monotonically increasing
}

// CredentialKey identifies a credential.
type CredentialKey struct {
	Developer     principal.Principal
	Authenticator principal.Principal
}

// Credential records an authenticator's approval of a developer.
type Credential struct {
	Developer     principal.Principal
	Authenticator principal.Principal
	Valid         bool
	RegisteredAt  uint64
	Label         string
}

// Key returns the credential's composite key.
func (c Credential) Key() CredentialKey {
	return CredentialKey{Developer: c.Developer, Authenticator: c.Authenticator}
}

// TokenSpec describes a credit batch to issue.
type TokenSpec struct {
	Quantity      uint64
	Scheme        string
	Location      string
	Framework     string
	Vintage       uint16
	CredentialRef string
}

// Token is a unit-tracked credit record. Custodian starts as the issuer
// and passes to a buyer whose accepted offer leaves the custodian with no
// available units.
type Token struct {
	ID            uint64
	Custodian     principal.Principal
	Originator    principal.Principal
	Quantity      uint64
	Scheme        string
	Location      string
	Framework     string
	Vintage       uint16
	CredentialRef string
	IssuedAt      uint64

	Retired    uint64 // units moved to consumed across all holders
	Consumed   bool
	ConsumedBy principal.Principal // zero until Consumed
	ConsumedAt uint64
}

// Outstanding returns the units not yet retired.
func (t Token) Outstanding() uint64 {
	return t.Quantity - t.Retired
}

// PortfolioKey identifies a holder's balance row for one token.
type PortfolioKey struct {
	Holder  principal.Principal
	TokenID uint64
}

// PortfolioEntry holds a holder's balances for one token.
type PortfolioEntry struct {
	Holder    principal.Principal
	TokenID   uint64
	Available uint64
	Consumed  uint64
}

// Key returns the entry's composite key.
func (e PortfolioEntry) Key() PortfolioKey {
	return PortfolioKey{Holder: e.Holder, TokenID: e.TokenID}
}

// Offer is a merchant's standing intent to sell units of a token.
type Offer struct {
	ID       uint64
	Merchant principal.Principal
	TokenID  uint64
	Quantity uint64
	Rate     uint64 // per unit, strictly positive
	Active   bool
}

// Metrics holds the process-wide monotonic counters.
type Metrics struct {
	Generated uint64
	Retired   uint64
	Traded    uint64
}

// Counters is the singleton record holding sequences and metrics.
// Each sequence stores the last value handed out; zero means none yet.
type Counters struct {
	TokenSeq uint64
	OfferSeq uint64
	EventSeq uint64
	Metrics  Metrics
}

// EventKind names a journal entry.
type EventKind string

const (
	EventAdministratorReassigned EventKind = "administrator-reassigned"
	EventAuthenticatorEnlisted   EventKind = "authenticator-enlisted"
	EventAuthenticatorDelisted   EventKind = "authenticator-delisted"
	EventDeveloperApproved       EventKind = "developer-approved"
	EventDeveloperRevoked        EventKind = "developer-revoked"
	EventTokenIssued             EventKind = "token-issued"
	EventCreditsRetired          EventKind = "credits-retired"
	EventOfferPublished          EventKind = "offer-published"
	EventOfferWithdrawn          EventKind = "offer-withdrawn"
	EventOfferSettled            EventKind = "offer-settled"
)

// Event is an append-only journal entry written by every successful mutation.
type Event struct {
	Seq      uint64
	ID       uuid.UUID
	Kind     EventKind
	Height   uint64
	Caller   principal.Principal
	Subject  principal.Principal // the other party, if any
	TokenID  uint64
	OfferID  uint64
	Quantity uint64
}
