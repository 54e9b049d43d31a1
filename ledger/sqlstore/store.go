// Package sqlstore implements ledger.Store on SQLite through bun.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/bitfsorg/liboffset-go/ledger"
	"github.com/bitfsorg/liboffset-go/principal"
)

// metaID is the primary key of the single ledger_meta row.
const metaID = 1

// Store is a SQL-backed ledger.Store. Writers are serialized in process;
// each Update is one SQL transaction that rolls back when fn fails.
type Store struct {
	db *bun.DB
	mu sync.RWMutex
}

// Compile-time interface check.
var _ ledger.Store = (*Store)(nil)

// Open opens a SQLite database at dsn and prepares the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	s, err := New(ctx, bun.NewDB(sqlDB, sqlitedialect.New()))
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing bun database and prepares the schema.
func New(ctx context.Context, db *bun.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db", ledger.ErrNilParam)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("sqlstore: create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// View runs fn in a transaction that rejects writes.
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&sqlTx{ctx: ctx, tx: tx, readOnly: true})
	})
}

// Update runs fn in a transaction committed only if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&sqlTx{ctx: ctx, tx: tx})
	})
}

type sqlTx struct {
	ctx      context.Context
	tx       bun.Tx
	readOnly bool
}

func (t *sqlTx) writable() error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	return nil
}

// selectOne loads model by the given condition, reporting absence as false.
func (t *sqlTx) selectOne(model any, where string, args ...any) (bool, error) {
	err := t.tx.NewSelect().Model(model).Where(where, args...).Scan(t.ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// save updates model by primary key, inserting it when no row matched.
func (t *sqlTx) save(model any) error {
	if err := t.writable(); err != nil {
		return err
	}
	res, err := t.tx.NewUpdate().Model(model).WherePK().Exec(t.ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = t.tx.NewInsert().Model(model).Exec(t.ctx)
	return err
}

func (t *sqlTx) meta() (*metaRecord, error) {
	rec := &metaRecord{}
	ok, err := t.selectOne(rec, "id = ?", metaID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load meta: %w", err)
	}
	if !ok {
		rec = &metaRecord{ID: metaID}
	}
	return rec, nil
}

func (t *sqlTx) Administrator() (principal.Principal, bool, error) {
	rec, err := t.meta()
	if err != nil {
		return principal.Zero, false, err
	}
	if rec.Administrator == "" {
		return principal.Zero, false, nil
	}
	p, err := decodePrincipal(rec.Administrator)
	if err != nil {
		return principal.Zero, false, fmt.Errorf("sqlstore: decode administrator: %w", err)
	}
	return p, true, nil
}

func (t *sqlTx) SetAdministrator(p principal.Principal) error {
	rec, err := t.meta()
	if err != nil {
		return err
	}
	rec.Administrator = encodePrincipal(p)
	return t.save(rec)
}

func (t *sqlTx) IsAuthenticator(p principal.Principal) (bool, error) {
	return t.tx.NewSelect().
		Model((*authenticatorRecord)(nil)).
		Where("principal = ?", encodePrincipal(p)).
		Exists(t.ctx)
}

func (t *sqlTx) SetAuthenticator(p principal.Principal, present bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !present {
		_, err := t.tx.NewDelete().
			Model((*authenticatorRecord)(nil)).
			Where("principal = ?", encodePrincipal(p)).
			Exec(t.ctx)
		return err
	}
	exists, err := t.IsAuthenticator(p)
	if err != nil || exists {
		return err
	}
	_, err = t.tx.NewInsert().Model(&authenticatorRecord{Principal: encodePrincipal(p)}).Exec(t.ctx)
	return err
}

func (t *sqlTx) Credential(k ledger.CredentialKey) (ledger.Credential, bool, error) {
	rec := &credentialRecord{}
	ok, err := t.selectOne(rec, "developer = ? AND authenticator = ?",
		encodePrincipal(k.Developer), encodePrincipal(k.Authenticator))
	if err != nil || !ok {
		return ledger.Credential{}, false, err
	}
	c, err := rec.toDomain()
	return c, err == nil, err
}

func (t *sqlTx) CredentialsOf(developer principal.Principal) ([]ledger.Credential, error) {
	var recs []credentialRecord
	err := t.tx.NewSelect().
		Model(&recs).
		Where("developer = ?", encodePrincipal(developer)).
		Order("authenticator ASC").
		Scan(t.ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Credential, 0, len(recs))
	for i := range recs {
		c, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (t *sqlTx) PutCredential(c ledger.Credential) error {
	return t.save(newCredentialRecord(c))
}

func (t *sqlTx) Token(id uint64) (ledger.Token, bool, error) {
	rec := &tokenRecord{}
	ok, err := t.selectOne(rec, "id = ?", int64(id))
	if err != nil || !ok {
		return ledger.Token{}, false, err
	}
	tok, err := rec.toDomain()
	return tok, err == nil, err
}

func (t *sqlTx) PutToken(tok ledger.Token) error {
	return t.save(newTokenRecord(tok))
}

func (t *sqlTx) Entry(k ledger.PortfolioKey) (ledger.PortfolioEntry, bool, error) {
	rec := &portfolioRecord{}
	ok, err := t.selectOne(rec, "holder = ? AND token_id = ?", encodePrincipal(k.Holder), int64(k.TokenID))
	if err != nil || !ok {
		return ledger.PortfolioEntry{}, false, err
	}
	e, err := rec.toDomain()
	return e, err == nil, err
}

func (t *sqlTx) EntriesOf(holder principal.Principal) ([]ledger.PortfolioEntry, error) {
	var recs []portfolioRecord
	err := t.tx.NewSelect().
		Model(&recs).
		Where("holder = ?", encodePrincipal(holder)).
		Order("token_id ASC").
		Scan(t.ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.PortfolioEntry, 0, len(recs))
	for i := range recs {
		e, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *sqlTx) PutEntry(e ledger.PortfolioEntry) error {
	return t.save(newPortfolioRecord(e))
}

func (t *sqlTx) Offer(id uint64) (ledger.Offer, bool, error) {
	rec := &offerRecord{}
	ok, err := t.selectOne(rec, "id = ?", int64(id))
	if err != nil || !ok {
		return ledger.Offer{}, false, err
	}
	o, err := rec.toDomain()
	return o, err == nil, err
}

func (t *sqlTx) PutOffer(o ledger.Offer) error {
	return t.save(newOfferRecord(o))
}

func (t *sqlTx) Counters() (ledger.Counters, error) {
	rec, err := t.meta()
	if err != nil {
		return ledger.Counters{}, err
	}
	return ledger.Counters{
		TokenSeq: uint64(rec.TokenSeq),
		OfferSeq: uint64(rec.OfferSeq),
		EventSeq: uint64(rec.EventSeq),
		Metrics: ledger.Metrics{
			Generated: uint64(rec.Generated),
			Retired:   uint64(rec.Retired),
			Traded:    uint64(rec.Traded),
		},
	}, nil
}

func (t *sqlTx) PutCounters(c ledger.Counters) error {
	rec, err := t.meta()
	if err != nil {
		return err
	}
	rec.TokenSeq = int64(c.TokenSeq)
	rec.OfferSeq = int64(c.OfferSeq)
	rec.EventSeq = int64(c.EventSeq)
	rec.Generated = int64(c.Metrics.Generated)
	rec.Retired = int64(c.Metrics.Retired)
	rec.Traded = int64(c.Metrics.Traded)
	return t.save(rec)
}

func (t *sqlTx) AppendEvent(e ledger.Event) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.NewInsert().Model(newEventRecord(e)).Exec(t.ctx)
	return err
}

func (t *sqlTx) Events(afterSeq uint64, limit int) ([]ledger.Event, error) {
	var recs []eventRecord
	q := t.tx.NewSelect().
		Model(&recs).
		Where("seq > ?", seqKey(afterSeq)).
		Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(t.ctx); err != nil {
		return nil, err
	}
	out := make([]ledger.Event, 0, len(recs))
	for i := range recs {
		e, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
