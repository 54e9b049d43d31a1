package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/liboffset-go/ledger"
	"github.com/bitfsorg/liboffset-go/ledger/storetest"
	"github.com/bitfsorg/liboffset-go/principal"
)

var dbSeq atomic.Int64

func tempMemoryStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger-test-%d?mode=memory&cache=shared", dbSeq.Add(1))
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	storetest.RunStoreConformance(t, func(t *testing.T) ledger.Store {
		return tempMemoryStore(t)
	})
}

func TestNew_NilDB(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ledger.ErrNilParam)
}

func TestStore_HighBitValuesRoundTrip(t *testing.T) {
	s := tempMemoryStore(t)
	ctx := context.Background()
	big := ^uint64(0) - 1

	require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
		if err := tx.PutToken(ledger.Token{ID: big, Quantity: big}); err != nil {
			return err
		}
		return tx.PutCounters(ledger.Counters{TokenSeq: big, Metrics: ledger.Metrics{Generated: big}})
	}))
	require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
		tok, ok, err := tx.Token(big)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, big, tok.Quantity)

		c, err := tx.Counters()
		require.NoError(t, err)
		assert.Equal(t, big, c.TokenSeq)
		assert.Equal(t, big, c.Metrics.Generated)
		return nil
	}))
}

func TestStore_LedgerPersistsInFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.sqlite")
	admin := storetest.Principal(0x01)
	auth := storetest.Principal(0x02)
	dev := storetest.Principal(0x03)

	s, err := Open(ctx, path)
	require.NoError(t, err)
	l, err := ledger.New(ctx, s, admin)
	require.NoError(t, err)
	require.NoError(t, l.EnlistAuthenticator(ctx, ledger.Invocation{Caller: admin, Height: 1}, auth))
	require.NoError(t, l.ApproveDeveloper(ctx, ledger.Invocation{Caller: auth, Height: 2}, dev, "Reforestation"))
	id, err := l.IssueToken(ctx, ledger.Invocation{Caller: dev, Height: 3}, ledger.TokenSpec{Quantity: 1000, Scheme: "ARR"})
	require.NoError(t, err)
	offerID, err := l.PublishOffer(ctx, ledger.Invocation{Caller: dev, Height: 4}, id, 400, 2500000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), offerID)
	require.NoError(t, l.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	l, err = ledger.New(ctx, s, principal.Zero)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.WithdrawOffer(ctx, ledger.Invocation{Caller: dev, Height: 5}, offerID))
	err = l.WithdrawOffer(ctx, ledger.Invocation{Caller: dev, Height: 6}, offerID)
	assert.ErrorIs(t, err, ledger.ErrOfferMissing)

	entry, ok, err := l.Portfolio(ctx, dev, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), entry.Available)

	m, err := l.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), m.Generated)

	events, err := l.Events(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}
