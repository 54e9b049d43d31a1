package sqlstore

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/bitfsorg/liboffset-go/ledger"
	"github.com/bitfsorg/liboffset-go/principal"
)

// The SQLite driver rejects uint64 arguments with the high bit set, so
// counters and identifiers are stored as int64. The conversion round-trips
// bit for bit. Event sequences are also compared in SQL, so they are
// stored with the top bit flipped (seqKey), which makes signed column order
// equal unsigned sequence order.

type metaRecord struct {
	bun.BaseModel `bun:"table:ledger_meta,alias:lm"`

	ID            int64  `bun:"id,pk"`
	Administrator string `bun:"administrator,notnull"`
	TokenSeq      int64  `bun:"token_seq,notnull"`
	OfferSeq      int64  `bun:"offer_seq,notnull"`
	EventSeq      int64  `bun:"event_seq,notnull"`
	Generated     int64  `bun:"generated,notnull"`
	Retired       int64  `bun:"retired,notnull"`
	Traded        int64  `bun:"traded,notnull"`
}

type authenticatorRecord struct {
	bun.BaseModel `bun:"table:ledger_authenticators,alias:la"`

	Principal string `bun:"principal,pk"`
}

type credentialRecord struct {
	bun.BaseModel `bun:"table:ledger_credentials,alias:lc"`

	Developer     string `bun:"developer,pk"`
	Authenticator string `bun:"authenticator,pk"`
	Valid         bool   `bun:"valid,notnull"`
	RegisteredAt  int64  `bun:"registered_at,notnull"`
	Label         string `bun:"label,notnull"`
}

type tokenRecord struct {
	bun.BaseModel `bun:"table:ledger_tokens,alias:lt"`

	ID            int64  `bun:"id,pk"`
	Custodian     string `bun:"custodian,notnull"`
	Originator    string `bun:"originator,notnull"`
	Quantity      int64  `bun:"quantity,notnull"`
	Scheme        string `bun:"scheme,notnull"`
	Location      string `bun:"location,notnull"`
	Framework     string `bun:"framework,notnull"`
	Vintage       int64  `bun:"vintage,notnull"`
	CredentialRef string `bun:"credential_ref,notnull"`
	IssuedAt      int64  `bun:"issued_at,notnull"`
	Retired       int64  `bun:"retired,notnull"`
	Consumed      bool   `bun:"consumed,notnull"`
	ConsumedBy    string `bun:"consumed_by,notnull"`
	ConsumedAt    int64  `bun:"consumed_at,notnull"`
}

type portfolioRecord struct {
	bun.BaseModel `bun:"table:ledger_portfolio,alias:lp"`

	Holder    string `bun:"holder,pk"`
	TokenID   int64  `bun:"token_id,pk"`
	Available int64  `bun:"available,notnull"`
	Consumed  int64  `bun:"consumed,notnull"`
}

type offerRecord struct {
	bun.BaseModel `bun:"table:ledger_offers,alias:lo"`

	ID       int64  `bun:"id,pk"`
	Merchant string `bun:"merchant,notnull"`
	TokenID  int64  `bun:"token_id,notnull"`
	Quantity int64  `bun:"quantity,notnull"`
	Rate     int64  `bun:"rate,notnull"`
	Active   bool   `bun:"active,notnull"`
}

type eventRecord struct {
	bun.BaseModel `bun:"table:ledger_events,alias:le"`

	Seq      int64  `bun:"seq,pk"`
	ID       string `bun:"event_id,notnull"`
	Kind     string `bun:"kind,notnull"`
	Height   int64  `bun:"height,notnull"`
	Caller   string `bun:"caller,notnull"`
	Subject  string `bun:"subject,notnull"`
	TokenID  int64  `bun:"token_id,notnull"`
	OfferID  int64  `bun:"offer_id,notnull"`
	Quantity int64  `bun:"quantity,notnull"`
}

func seqKey(seq uint64) int64 {
	return int64(seq ^ 1<<63)
}

func seqFromKey(k int64) uint64 {
	return uint64(k) ^ 1<<63
}

func encodePrincipal(p principal.Principal) string {
	if p.IsZero() {
		return ""
	}
	return p.String()
}

func decodePrincipal(s string) (principal.Principal, error) {
	if s == "" {
		return principal.Zero, nil
	}
	return principal.ParseHex(s)
}

func newCredentialRecord(c ledger.Credential) *credentialRecord {
	return &credentialRecord{
		Developer:     encodePrincipal(c.Developer),
		Authenticator: encodePrincipal(c.Authenticator),
		Valid:         c.Valid,
		RegisteredAt:  int64(c.RegisteredAt),
		Label:         c.Label,
	}
}

func (r *credentialRecord) toDomain() (ledger.Credential, error) {
	dev, err := decodePrincipal(r.Developer)
	if err != nil {
		return ledger.Credential{}, err
	}
	auth, err := decodePrincipal(r.Authenticator)
	if err != nil {
		return ledger.Credential{}, err
	}
	return ledger.Credential{
		Developer:     dev,
		Authenticator: auth,
		Valid:         r.Valid,
		RegisteredAt:  uint64(r.RegisteredAt),
		Label:         r.Label,
	}, nil
}

func newTokenRecord(t ledger.Token) *tokenRecord {
	return &tokenRecord{
		ID:            int64(t.ID),
		Custodian:     encodePrincipal(t.Custodian),
		Originator:    encodePrincipal(t.Originator),
		Quantity:      int64(t.Quantity),
		Scheme:        t.Scheme,
		Location:      t.Location,
		Framework:     t.Framework,
		Vintage:       int64(t.Vintage),
		CredentialRef: t.CredentialRef,
		IssuedAt:      int64(t.IssuedAt),
		Retired:       int64(t.Retired),
		Consumed:      t.Consumed,
		ConsumedBy:    encodePrincipal(t.ConsumedBy),
		ConsumedAt:    int64(t.ConsumedAt),
	}
}

func (r *tokenRecord) toDomain() (ledger.Token, error) {
	custodian, err := decodePrincipal(r.Custodian)
	if err != nil {
		return ledger.Token{}, err
	}
	originator, err := decodePrincipal(r.Originator)
	if err != nil {
		return ledger.Token{}, err
	}
	consumedBy, err := decodePrincipal(r.ConsumedBy)
	if err != nil {
		return ledger.Token{}, err
	}
	return ledger.Token{
		ID:            uint64(r.ID),
		Custodian:     custodian,
		Originator:    originator,
		Quantity:      uint64(r.Quantity),
		Scheme:        r.Scheme,
		Location:      r.Location,
		Framework:     r.Framework,
		Vintage:       uint16(r.Vintage),
		CredentialRef: r.CredentialRef,
		IssuedAt:      uint64(r.IssuedAt),
		Retired:       uint64(r.Retired),
		Consumed:      r.Consumed,
		ConsumedBy:    consumedBy,
		ConsumedAt:    uint64(r.ConsumedAt),
	}, nil
}

func newPortfolioRecord(e ledger.PortfolioEntry) *portfolioRecord {
	return &portfolioRecord{
		Holder:    encodePrincipal(e.Holder),
		TokenID:   int64(e.TokenID),
		Available: int64(e.Available),
		Consumed:  int64(e.Consumed),
	}
}

func (r *portfolioRecord) toDomain() (ledger.PortfolioEntry, error) {
	holder, err := decodePrincipal(r.Holder)
	if err != nil {
		return ledger.PortfolioEntry{}, err
	}
	return ledger.PortfolioEntry{
		Holder:    holder,
		TokenID:   uint64(r.TokenID),
		Available: uint64(r.Available),
		Consumed:  uint64(r.Consumed),
	}, nil
}

func newOfferRecord(o ledger.Offer) *offerRecord {
	return &offerRecord{
		ID:       int64(o.ID),
		Merchant: encodePrincipal(o.Merchant),
		TokenID:  int64(o.TokenID),
		Quantity: int64(o.Quantity),
		Rate:     int64(o.Rate),
		Active:   o.Active,
	}
}

func (r *offerRecord) toDomain() (ledger.Offer, error) {
	merchant, err := decodePrincipal(r.Merchant)
	if err != nil {
		return ledger.Offer{}, err
	}
	return ledger.Offer{
		ID:       uint64(r.ID),
		Merchant: merchant,
		TokenID:  uint64(r.TokenID),
		Quantity: uint64(r.Quantity),
		Rate:     uint64(r.Rate),
		Active:   r.Active,
	}, nil
}

func newEventRecord(e ledger.Event) *eventRecord {
	return &eventRecord{
		Seq:      seqKey(e.Seq),
		ID:       e.ID.String(),
		Kind:     string(e.Kind),
		Height:   int64(e.Height),
		Caller:   encodePrincipal(e.Caller),
		Subject:  encodePrincipal(e.Subject),
		TokenID:  int64(e.TokenID),
		OfferID:  int64(e.OfferID),
		Quantity: int64(e.Quantity),
	}
}

func (r *eventRecord) toDomain() (ledger.Event, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return ledger.Event{}, err
	}
	caller, err := decodePrincipal(r.Caller)
	if err != nil {
		return ledger.Event{}, err
	}
	subject, err := decodePrincipal(r.Subject)
	if err != nil {
		return ledger.Event{}, err
	}
	return ledger.Event{
		Seq:      seqFromKey(r.Seq),
		ID:       id,
		Kind:     ledger.EventKind(r.Kind),
		Height:   uint64(r.Height),
		Caller:   caller,
		Subject:  subject,
		TokenID:  uint64(r.TokenID),
		OfferID:  uint64(r.OfferID),
		Quantity: uint64(r.Quantity),
	}, nil
}
