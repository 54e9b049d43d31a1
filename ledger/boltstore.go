package ledger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/liboffset-go/principal"
)

var (
	bucketMeta           = []byte("meta")
	bucketAuthenticators = []byte("authenticators")
	bucketCredentials    = []byte("credentials")
	bucketTokens         = []byte("tokens")
	bucketPortfolio      = []byte("portfolio")
	bucketOffers         = []byte("offers")
	bucketEvents         = []byte("events")

	keyAdministrator = []byte("administrator")
	keyCounters      = []byte("counters")
)

// BoltStore persists the ledger in a bbolt database. bbolt allows a single
// writer at a time and discards a transaction whose function fails, which
// gives each ledger operation its all-or-nothing commit.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketMeta, bucketAuthenticators, bucketCredentials,
			bucketTokens, bucketPortfolio, bucketOffers, bucketEvents,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// View runs fn in a read-only bbolt transaction.
func (s *BoltStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// Update runs fn in a read-write bbolt transaction.
func (s *BoltStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// u64Key encodes an identifier as an 8-byte big-endian key for sorted storage.
func u64Key(v uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, v)
	return k
}

// pairKey concatenates a principal with a suffix for prefix scanning.
func pairKey(p principal.Principal, suffix []byte) []byte {
	k := make([]byte, 0, principal.Size+len(suffix))
	k = append(k, p[:]...)
	return append(k, suffix...)
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) put(bucket, key []byte, v interface{}) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	data, err := encodeGob(v)
	if err != nil {
		return fmt.Errorf("boltstore: encode %s: %w", bucket, err)
	}
	if err := t.tx.Bucket(bucket).Put(key, data); err != nil {
		return fmt.Errorf("boltstore: put %s: %w", bucket, err)
	}
	return nil
}

func (t *boltTx) get(bucket, key []byte, v interface{}) (bool, error) {
	data := t.tx.Bucket(bucket).Get(key)
	if data == nil {
		return false, nil
	}
	if err := decodeGob(data, v); err != nil {
		return false, fmt.Errorf("boltstore: decode %s: %w", bucket, err)
	}
	return true, nil
}

func (t *boltTx) Administrator() (principal.Principal, bool, error) {
	v := t.tx.Bucket(bucketMeta).Get(keyAdministrator)
	if v == nil {
		return principal.Zero, false, nil
	}
	p, err := principal.FromHash(v)
	if err != nil {
		return principal.Zero, false, fmt.Errorf("boltstore: decode administrator: %w", err)
	}
	return p, true, nil
}

func (t *boltTx) SetAdministrator(p principal.Principal) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	if err := t.tx.Bucket(bucketMeta).Put(keyAdministrator, bytes.Clone(p[:])); err != nil {
		return fmt.Errorf("boltstore: put administrator: %w", err)
	}
	return nil
}

func (t *boltTx) IsAuthenticator(p principal.Principal) (bool, error) {
	return t.tx.Bucket(bucketAuthenticators).Get(p[:]) != nil, nil
}

func (t *boltTx) SetAuthenticator(p principal.Principal, present bool) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	b := t.tx.Bucket(bucketAuthenticators)
	var err error
	if present {
		err = b.Put(bytes.Clone(p[:]), []byte{1})
	} else {
		err = b.Delete(p[:])
	}
	if err != nil {
		return fmt.Errorf("boltstore: set authenticator: %w", err)
	}
	return nil
}

func (t *boltTx) Credential(k CredentialKey) (Credential, bool, error) {
	var c Credential
	ok, err := t.get(bucketCredentials, pairKey(k.Developer, k.Authenticator[:]), &c)
	return c, ok, err
}

func (t *boltTx) CredentialsOf(developer principal.Principal) ([]Credential, error) {
	var out []Credential
	prefix := developer[:]
	c := t.tx.Bucket(bucketCredentials).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var cred Credential
		if err := decodeGob(v, &cred); err != nil {
			return nil, fmt.Errorf("boltstore: decode credential: %w", err)
		}
		out = append(out, cred)
	}
	return out, nil
}

func (t *boltTx) PutCredential(c Credential) error {
	return t.put(bucketCredentials, pairKey(c.Developer, c.Authenticator[:]), c)
}

func (t *boltTx) Token(id uint64) (Token, bool, error) {
	var tok Token
	ok, err := t.get(bucketTokens, u64Key(id), &tok)
	return tok, ok, err
}

func (t *boltTx) PutToken(tok Token) error {
	return t.put(bucketTokens, u64Key(tok.ID), tok)
}

func (t *boltTx) Entry(k PortfolioKey) (PortfolioEntry, bool, error) {
	var e PortfolioEntry
	ok, err := t.get(bucketPortfolio, pairKey(k.Holder, u64Key(k.TokenID)), &e)
	return e, ok, err
}

func (t *boltTx) EntriesOf(holder principal.Principal) ([]PortfolioEntry, error) {
	var out []PortfolioEntry
	prefix := holder[:]
	c := t.tx.Bucket(bucketPortfolio).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var e PortfolioEntry
		if err := decodeGob(v, &e); err != nil {
			return nil, fmt.Errorf("boltstore: decode portfolio entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *boltTx) PutEntry(e PortfolioEntry) error {
	return t.put(bucketPortfolio, pairKey(e.Holder, u64Key(e.TokenID)), e)
}

func (t *boltTx) Offer(id uint64) (Offer, bool, error) {
	var o Offer
	ok, err := t.get(bucketOffers, u64Key(id), &o)
	return o, ok, err
}

func (t *boltTx) PutOffer(o Offer) error {
	return t.put(bucketOffers, u64Key(o.ID), o)
}

func (t *boltTx) Counters() (Counters, error) {
	var c Counters
	_, err := t.get(bucketMeta, keyCounters, &c)
	return c, err
}

func (t *boltTx) PutCounters(c Counters) error {
	return t.put(bucketMeta, keyCounters, c)
}

func (t *boltTx) AppendEvent(e Event) error {
	b := t.tx.Bucket(bucketEvents)
	if b.Get(u64Key(e.Seq)) != nil {
		return fmt.Errorf("%w: event %d", ErrDuplicateIdentifier, e.Seq)
	}
	return t.put(bucketEvents, u64Key(e.Seq), e)
}

func (t *boltTx) Events(afterSeq uint64, limit int) ([]Event, error) {
	var out []Event
	if afterSeq == math.MaxUint64 {
		return nil, nil
	}
	c := t.tx.Bucket(bucketEvents).Cursor()
	for k, v := c.Seek(u64Key(afterSeq + 1)); k != nil; k, v = c.Next() {
		var e Event
		if err := decodeGob(v, &e); err != nil {
			return nil, fmt.Errorf("boltstore: decode event: %w", err)
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
