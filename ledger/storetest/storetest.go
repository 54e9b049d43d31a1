// Package storetest holds conformance checks every ledger.Store must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/liboffset-go/ledger"
	"github.com/bitfsorg/liboffset-go/principal"
)

// NewStore constructs a fresh, empty store for a test. The store must be
// isolated from other tests; the caller's cleanup closes it.
type NewStore func(t *testing.T) ledger.Store

// Principal returns a deterministic test principal.
func Principal(seed byte) principal.Principal {
	var p principal.Principal
	for i := range p {
		p[i] = seed
	}
	return p
}

var errAbort = errors.New("storetest: abort")

// RunStoreConformance exercises every Tx method and the commit/rollback
// contract of Update and View.
func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		s := newStore(t)
		err := s.View(ctx, func(tx ledger.Tx) error {
			_, ok, err := tx.Administrator()
			require.NoError(t, err)
			assert.False(t, ok)

			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Equal(t, ledger.Counters{}, c)

			_, ok, err = tx.Token(1)
			require.NoError(t, err)
			assert.False(t, ok)

			_, ok, err = tx.Offer(1)
			require.NoError(t, err)
			assert.False(t, ok)

			events, err := tx.Events(0, 0)
			require.NoError(t, err)
			assert.Empty(t, events)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("AdministratorRoundTrip", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			return tx.SetAdministrator(Principal(0x01))
		}))
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			return tx.PutCounters(ledger.Counters{TokenSeq: 3})
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			p, ok, err := tx.Administrator()
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, Principal(0x01), p)

			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), c.TokenSeq)
			return nil
		}))
	})

	t.Run("AuthenticatorPresence", func(t *testing.T) {
		s := newStore(t)
		a := Principal(0x0A)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.SetAuthenticator(a, true))
			return tx.SetAuthenticator(a, true)
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			ok, err := tx.IsAuthenticator(a)
			require.NoError(t, err)
			assert.True(t, ok)
			return nil
		}))
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			return tx.SetAuthenticator(a, false)
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			ok, err := tx.IsAuthenticator(a)
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		}))
	})

	t.Run("CredentialsByDeveloper", func(t *testing.T) {
		s := newStore(t)
		dev, other := Principal(0xD1), Principal(0xD2)
		a, b := Principal(0xA1), Principal(0xA2)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			for _, c := range []ledger.Credential{
				{Developer: dev, Authenticator: b, Valid: true, RegisteredAt: 5, Label: "Mangroves"},
				{Developer: dev, Authenticator: a, Valid: false, RegisteredAt: 3, Label: "Reforestation"},
				{Developer: other, Authenticator: a, Valid: true, RegisteredAt: 4},
			} {
				require.NoError(t, tx.PutCredential(c))
			}
			return nil
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			got, ok, err := tx.Credential(ledger.CredentialKey{Developer: dev, Authenticator: a})
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, got.Valid)
			assert.Equal(t, uint64(3), got.RegisteredAt)
			assert.Equal(t, "Reforestation", got.Label)

			creds, err := tx.CredentialsOf(dev)
			require.NoError(t, err)
			require.Len(t, creds, 2)
			assert.Equal(t, a, creds[0].Authenticator)
			assert.Equal(t, b, creds[1].Authenticator)

			_, ok, err = tx.Credential(ledger.CredentialKey{Developer: other, Authenticator: b})
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		}))
	})

	t.Run("TokenRoundTrip", func(t *testing.T) {
		s := newStore(t)
		tok := ledger.Token{
			ID:            7,
			Custodian:     Principal(0xD1),
			Originator:    Principal(0xD1),
			Quantity:      1000,
			Scheme:        "ARR",
			Location:      "BR-PA",
			Framework:     "VCS",
			Vintage:       2023,
			CredentialRef: "VCS-1234",
			IssuedAt:      12,
			Retired:       1000,
			Consumed:      true,
			ConsumedBy:    Principal(0xBE),
			ConsumedAt:    40,
		}
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error { return tx.PutToken(tok) }))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			got, ok, err := tx.Token(7)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tok, got)
			return nil
		}))
	})

	t.Run("PortfolioEntries", func(t *testing.T) {
		s := newStore(t)
		holder := Principal(0xD1)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.PutEntry(ledger.PortfolioEntry{Holder: holder, TokenID: 9, Available: 5}))
			require.NoError(t, tx.PutEntry(ledger.PortfolioEntry{Holder: holder, TokenID: 2, Available: 7, Consumed: 3}))
			require.NoError(t, tx.PutEntry(ledger.PortfolioEntry{Holder: Principal(0xD2), TokenID: 2, Available: 1}))
			return tx.PutEntry(ledger.PortfolioEntry{Holder: holder, TokenID: 9, Available: 4, Consumed: 1})
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			e, ok, err := tx.Entry(ledger.PortfolioKey{Holder: holder, TokenID: 9})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, uint64(4), e.Available)
			assert.Equal(t, uint64(1), e.Consumed)

			entries, err := tx.EntriesOf(holder)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, uint64(2), entries[0].TokenID)
			assert.Equal(t, uint64(9), entries[1].TokenID)
			return nil
		}))
	})

	t.Run("OfferRoundTrip", func(t *testing.T) {
		s := newStore(t)
		o := ledger.Offer{ID: 1, Merchant: Principal(0xD1), TokenID: 7, Quantity: 400, Rate: 2500000, Active: true}
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error { return tx.PutOffer(o) }))
		o.Active = false
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error { return tx.PutOffer(o) }))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			got, ok, err := tx.Offer(1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, o, got)
			return nil
		}))
	})

	t.Run("EventsOrderedAndPaged", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			for seq := uint64(1); seq <= 5; seq++ {
				require.NoError(t, tx.AppendEvent(ledger.Event{
					Seq:     seq,
					ID:      uuid.New(),
					Kind:    ledger.EventTokenIssued,
					Height:  seq * 10,
					Caller:  Principal(0xD1),
					TokenID: seq,
				}))
			}
			return nil
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			all, err := tx.Events(0, 0)
			require.NoError(t, err)
			require.Len(t, all, 5)
			for i, e := range all {
				assert.Equal(t, uint64(i+1), e.Seq)
			}

			page, err := tx.Events(2, 2)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Equal(t, uint64(3), page[0].Seq)
			assert.Equal(t, uint64(4), page[1].Seq)
			assert.Equal(t, all[2].ID, page[0].ID)
			assert.Equal(t, ledger.EventTokenIssued, page[0].Kind)
			return nil
		}))
	})

	t.Run("EventsBeyondSignedRange", func(t *testing.T) {
		s := newStore(t)
		high := uint64(1) << 63
		seqs := []uint64{5, high, high + 5}
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			for _, seq := range seqs {
				require.NoError(t, tx.AppendEvent(ledger.Event{Seq: seq, ID: uuid.New(), Kind: ledger.EventOfferPublished}))
			}
			return nil
		}))
		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			all, err := tx.Events(0, 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			for i, e := range all {
				assert.Equal(t, seqs[i], e.Seq)
			}

			after, err := tx.Events(5, 1)
			require.NoError(t, err)
			require.Len(t, after, 1)
			assert.Equal(t, high, after[0].Seq)

			after, err = tx.Events(high, 0)
			require.NoError(t, err)
			require.Len(t, after, 1)
			assert.Equal(t, high+5, after[0].Seq)
			return nil
		}))
	})

	t.Run("FailedUpdateRollsBack", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			return tx.PutEntry(ledger.PortfolioEntry{Holder: Principal(0xD1), TokenID: 7, Available: 1000})
		}))

		err := s.Update(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.PutEntry(ledger.PortfolioEntry{Holder: Principal(0xD1), TokenID: 7, Available: 1}))
			require.NoError(t, tx.PutCounters(ledger.Counters{OfferSeq: 9}))
			require.NoError(t, tx.SetAuthenticator(Principal(0x0A), true))
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		require.NoError(t, s.View(ctx, func(tx ledger.Tx) error {
			e, ok, err := tx.Entry(ledger.PortfolioKey{Holder: Principal(0xD1), TokenID: 7})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, uint64(1000), e.Available)

			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Zero(t, c.OfferSeq)

			present, err := tx.IsAuthenticator(Principal(0x0A))
			require.NoError(t, err)
			assert.False(t, present)
			return nil
		}))
	})

	t.Run("UpdateSeesOwnWrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.PutCounters(ledger.Counters{EventSeq: 1}))
			c, err := tx.Counters()
			require.NoError(t, err)
			assert.Equal(t, uint64(1), c.EventSeq)
			return nil
		}))
	})

	t.Run("ViewRejectsWrites", func(t *testing.T) {
		s := newStore(t)
		err := s.View(ctx, func(tx ledger.Tx) error {
			return tx.PutOffer(ledger.Offer{ID: 1})
		})
		assert.ErrorIs(t, err, ledger.ErrReadOnly)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := s.Update(canceled, func(tx ledger.Tx) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}
