package ledger

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/bitfsorg/liboffset-go/principal"
)

// Store persists ledger state. Every ledger operation runs inside exactly one
// Update, so a returned error must discard all of fn's writes.
type Store interface {
	// View runs fn against a consistent, committed snapshot.
	View(ctx context.Context, fn func(Tx) error) error

	// Update runs fn in an exclusive read-write transaction and commits
	// only if fn returns nil.
	Update(ctx context.Context, fn func(Tx) error) error

	// Close releases the store.
	Close() error
}

// Tx is the set of keyed registries visible inside a transaction.
// Lookups report absence with found=false, not an error.
type Tx interface {
	Administrator() (principal.Principal, bool, error)
	SetAdministrator(p principal.Principal) error

	IsAuthenticator(p principal.Principal) (bool, error)
	SetAuthenticator(p principal.Principal, present bool) error

	Credential(k CredentialKey) (Credential, bool, error)
	CredentialsOf(developer principal.Principal) ([]Credential, error)
	PutCredential(c Credential) error

	Token(id uint64) (Token, bool, error)
	PutToken(t Token) error

	Entry(k PortfolioKey) (PortfolioEntry, bool, error)
	EntriesOf(holder principal.Principal) ([]PortfolioEntry, error)
	PutEntry(e PortfolioEntry) error

	Offer(id uint64) (Offer, bool, error)
	PutOffer(o Offer) error

	Counters() (Counters, error)
	PutCounters(c Counters) error

	AppendEvent(e Event) error
	Events(afterSeq uint64, limit int) ([]Event, error)
}

// memState is the full ledger state held by MemStore.
type memState struct {
	admin          principal.Principal
	hasAdmin       bool
	authenticators map[principal.Principal]bool
	credentials    map[CredentialKey]Credential
	tokens         map[uint64]Token
	entries        map[PortfolioKey]PortfolioEntry
	offers         map[uint64]Offer
	counters       Counters
	events         []Event
}

func newMemState() *memState {
	return &memState{
		authenticators: make(map[principal.Principal]bool),
		credentials:    make(map[CredentialKey]Credential),
		tokens:         make(map[uint64]Token),
		entries:        make(map[PortfolioKey]PortfolioEntry),
		offers:         make(map[uint64]Offer),
	}
}

func (s *memState) clone() *memState {
	return &memState{
		admin:          s.admin,
		hasAdmin:       s.hasAdmin,
		authenticators: maps.Clone(s.authenticators),
		credentials:    maps.Clone(s.credentials),
		tokens:         maps.Clone(s.tokens),
		entries:        maps.Clone(s.entries),
		offers:         maps.Clone(s.offers),
		counters:       s.counters,
		events:         slices.Clone(s.events),
	}
}

// MemStore is an in-memory Store. Update works on a copy of the state and
// swaps it in on success.
type MemStore struct {
	mu    sync.RWMutex
	state *memState
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: newMemState()}
}

// View runs fn against the committed state.
func (s *MemStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{state: s.state, readOnly: true})
}

// Update runs fn against a working copy and commits it if fn succeeds.
func (s *MemStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }

type memTx struct {
	state    *memState
	readOnly bool
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) Administrator() (principal.Principal, bool, error) {
	return t.state.admin, t.state.hasAdmin, nil
}

func (t *memTx) SetAdministrator(p principal.Principal) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.admin = p
	t.state.hasAdmin = true
	return nil
}

func (t *memTx) IsAuthenticator(p principal.Principal) (bool, error) {
	return t.state.authenticators[p], nil
}

func (t *memTx) SetAuthenticator(p principal.Principal, present bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	if present {
		t.state.authenticators[p] = true
	} else {
		delete(t.state.authenticators, p)
	}
	return nil
}

func (t *memTx) Credential(k CredentialKey) (Credential, bool, error) {
	c, ok := t.state.credentials[k]
	return c, ok, nil
}

func (t *memTx) CredentialsOf(developer principal.Principal) ([]Credential, error) {
	var out []Credential
	for k, c := range t.state.credentials {
		if k.Developer == developer {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Authenticator[:]) < string(out[j].Authenticator[:])
	})
	return out, nil
}

func (t *memTx) PutCredential(c Credential) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.credentials[c.Key()] = c
	return nil
}

func (t *memTx) Token(id uint64) (Token, bool, error) {
	tok, ok := t.state.tokens[id]
	return tok, ok, nil
}

func (t *memTx) PutToken(tok Token) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.tokens[tok.ID] = tok
	return nil
}

func (t *memTx) Entry(k PortfolioKey) (PortfolioEntry, bool, error) {
	e, ok := t.state.entries[k]
	return e, ok, nil
}

func (t *memTx) EntriesOf(holder principal.Principal) ([]PortfolioEntry, error) {
	var out []PortfolioEntry
	for k, e := range t.state.entries {
		if k.Holder == holder {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out, nil
}

func (t *memTx) PutEntry(e PortfolioEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.entries[e.Key()] = e
	return nil
}

func (t *memTx) Offer(id uint64) (Offer, bool, error) {
	o, ok := t.state.offers[id]
	return o, ok, nil
}

func (t *memTx) PutOffer(o Offer) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.offers[o.ID] = o
	return nil
}

func (t *memTx) Counters() (Counters, error) {
	return t.state.counters, nil
}

func (t *memTx) PutCounters(c Counters) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.counters = c
	return nil
}

func (t *memTx) AppendEvent(e Event) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.events = append(t.state.events, e)
	return nil
}

func (t *memTx) Events(afterSeq uint64, limit int) ([]Event, error) {
	var out []Event
	for _, e := range t.state.events {
		if e.Seq <= afterSeq {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
