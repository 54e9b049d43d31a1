// Package ledger implements the offset credit registry: administrator and
// authenticator roles, developer credentials, credit issuance and
// retirement, per-holder balances, and a listing marketplace.
//
// Every mutating operation takes the caller and height explicitly through
// an Invocation and runs as one Store transaction. An operation that fails
// any precondition returns its error kind and leaves the store unchanged.
package ledger

import (
	"context"
	"fmt"
	"path/filepath"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/bitfsorg/liboffset-go/config"
	"github.com/bitfsorg/liboffset-go/principal"
)

// DBFileName is the bbolt file Open creates inside the data directory.
const DBFileName = "ledger.db"

// Ledger is the service handle owning the store and its singleton state.
type Ledger struct {
	store   Store
	logger  glog.Logger
	network *principal.Network
	settler Settler
	newID   func() (uuid.UUID, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger glog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithNetwork selects the address encoding used in log output.
func WithNetwork(net *principal.Network) Option {
	return func(l *Ledger) {
		if net != nil {
			l.network = net
		}
	}
}

// WithSettler enables AcceptOffer.
func WithSettler(s Settler) Option {
	return func(l *Ledger) { l.settler = s }
}

// withLogLevel wraps whatever logger is configured so far.
func withLogLevel(level string) Option {
	return func(l *Ledger) { l.logger = newLevelLogger(l.logger, level) }
}

// New creates a Ledger over store. If the store has no administrator yet,
// admin is seeded; otherwise the persisted administrator is kept.
func New(ctx context.Context, store Store, admin principal.Principal, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	l := &Ledger{
		store:   store,
		logger:  glog.Nop(),
		network: &principal.MainNet,
		newID:   uuid.NewRandom,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	err := store.Update(ctx, func(tx Tx) error {
		current, ok, err := tx.Administrator()
		if err != nil {
			return err
		}
		if ok {
			if !admin.IsZero() && admin != current {
				l.logger.Warn("configured administrator ignored; ledger already has one",
					"administrator", l.render(current))
			}
			return nil
		}
		if admin.IsZero() {
			return ErrNoAdministrator
		}
		return tx.SetAdministrator(admin)
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: seed administrator: %w", err)
	}
	return l, nil
}

// Open validates cfg, opens the bbolt store under cfg.DataDir and returns
// a Ledger over it.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Ledger, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	net, err := principal.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	var admin principal.Principal
	if cfg.Administrator != "" {
		if admin, err = principal.ParseAddress(cfg.Administrator); err != nil {
			return nil, err
		}
	}

	store, err := OpenBoltStore(filepath.Join(cfg.DataDir, DBFileName))
	if err != nil {
		return nil, err
	}

	all := append([]Option{WithNetwork(net)}, opts...)
	all = append(all, withLogLevel(cfg.LogLevel))
	l, err := New(ctx, store, admin, all...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() Store {
	return l.store
}

// render formats p as an address for logs, falling back to hex.
func (l *Ledger) render(p principal.Principal) string {
	if addr, err := p.Address(l.network); err == nil {
		return addr
	}
	return p.String()
}

// mutate runs fn in one Update and logs the outcome.
func (l *Ledger) mutate(ctx context.Context, op string, inv Invocation, fn func(Tx) error) error {
	return l.report(ctx, op, inv, l.store.Update(ctx, fn))
}

// report logs the outcome of op and returns err unchanged.
func (l *Ledger) report(ctx context.Context, op string, inv Invocation, err error) error {
	logger := l.logger.WithContext(ctx)
	if err != nil {
		desc := Describe(err)
		logger.Warn("ledger operation rejected",
			"op", op,
			"caller", l.render(inv.Caller),
			"height", inv.Height,
			"code", desc.TextCode,
			"error", err.Error())
		return err
	}
	logger.Info("ledger operation applied",
		"op", op,
		"caller", l.render(inv.Caller),
		"height", inv.Height)
	return nil
}

// emit appends a journal entry, allocating its sequence number.
func (l *Ledger) emit(tx Tx, inv Invocation, e Event) error {
	counters, err := tx.Counters()
	if err != nil {
		return err
	}
	id, err := l.newID()
	if err != nil {
		return fmt.Errorf("ledger: event id: %w", err)
	}
	counters.EventSeq++
	e.Seq = counters.EventSeq
	e.ID = id
	e.Height = inv.Height
	e.Caller = inv.Caller
	if err := tx.PutCounters(counters); err != nil {
		return err
	}
	return tx.AppendEvent(e)
}

// nextFree returns the first identifier after last that taken reports as
// unused. Identifiers written outside the sequence (seeded records) are
// skipped, so the sequence never stalls on them.
func nextFree(last uint64, taken func(uint64) (bool, error)) (uint64, error) {
	for id := last + 1; id != 0; id++ {
		used, err := taken(id)
		if err != nil {
			return 0, err
		}
		if !used {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: sequence exhausted", ErrDuplicateIdentifier)
}
