package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/liboffset-go/principal"
)

func testSpec(quantity uint64) TokenSpec {
	return TokenSpec{
		Quantity:      quantity,
		Scheme:        "ARR",
		Location:      "BR-PA",
		Framework:     "VCS",
		Vintage:       2023,
		CredentialRef: "VCS-1234",
	}
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	inv := f.as(f.dev)
	id, err := f.l.IssueToken(f.ctx, inv, testSpec(1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	tok, ok, err := f.l.Token(f.ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Token{
		ID:            1,
		Custodian:     f.dev,
		Originator:    f.dev,
		Quantity:      1000,
		Scheme:        "ARR",
		Location:      "BR-PA",
		Framework:     "VCS",
		Vintage:       2023,
		CredentialRef: "VCS-1234",
		IssuedAt:      inv.Height,
	}, tok)

	entry, ok, err := f.l.Portfolio(f.ctx, f.dev, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), entry.Available)
	assert.Zero(t, entry.Consumed)

	id2, err := f.l.IssueToken(f.ctx, f.as(f.dev), testSpec(50))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)

	m, err := f.l.Metrics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1050), m.Generated)

	holdings, err := f.l.Holdings(f.ctx, f.dev)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, uint64(1), holdings[0].TokenID)
	assert.Equal(t, uint64(2), holdings[1].TokenID)
}

func TestIssueToken_Errors(t *testing.T) {
	long := strings.Repeat("x", MaxTextLength+1)
	tests := []struct {
		name    string
		spec    TokenSpec
		wantErr error
	}{
		{"zero quantity", testSpec(0), ErrInvalidParam},
		{"long scheme", TokenSpec{Quantity: 1, Scheme: long}, ErrInvalidParam},
		{"long location", TokenSpec{Quantity: 1, Location: long}, ErrInvalidParam},
		{"long framework", TokenSpec{Quantity: 1, Framework: long}, ErrInvalidParam},
		{"long credential ref", TokenSpec{Quantity: 1, CredentialRef: long}, ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.l.IssueToken(f.ctx, f.as(f.dev), tt.spec)
			assert.ErrorIs(t, err, tt.wantErr)

			c := snapshot(t, f.l).Counters
			assert.Zero(t, c.TokenSeq)
			assert.Zero(t, c.Metrics.Generated)
		})
	}
}

func TestIssueToken_RequiresDeveloper(t *testing.T) {
	f := newFixture(t)

	for _, caller := range []principal.Principal{f.admin, f.auth, testPrincipal(t)} {
		_, err := f.l.IssueToken(f.ctx, f.as(caller), testSpec(10))
		assert.ErrorIs(t, err, ErrUnauthorized)
	}

	require.NoError(t, f.l.RevokeDeveloper(f.ctx, f.as(f.auth), f.dev))
	_, err := f.l.IssueToken(f.ctx, f.as(f.dev), testSpec(10))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIssueToken_SkipsSeededIdentifiers(t *testing.T) {
	f := newFixture(t)
	seedBalance(t, f.l, f.dev, 2, 10)
	seedBalance(t, f.l, f.dev, 4, 10)

	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := f.l.IssueToken(f.ctx, f.as(f.dev), testSpec(5))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []uint64{1, 3, 5}, ids)

	seeded, _, err := f.l.Token(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), seeded.Quantity, "seeded token untouched")

	c := snapshot(t, f.l).Counters
	assert.Equal(t, uint64(5), c.TokenSeq)
	assert.Equal(t, uint64(15), c.Metrics.Generated)
}

func TestNextFree(t *testing.T) {
	taken := map[uint64]bool{3: true, 4: true}
	used := func(id uint64) (bool, error) { return taken[id], nil }

	id, err := nextFree(0, used)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id, err = nextFree(2, used)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)

	_, err = nextFree(^uint64(0), used)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestRetireCredits_Partial(t *testing.T) {
	f := newFixture(t)
	id, err := f.l.IssueToken(f.ctx, f.as(f.dev), testSpec(100))
	require.NoError(t, err)

	tok, err := f.l.RetireCredits(f.ctx, f.as(f.dev), id, 40, principal.Zero)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), tok.Retired)
	assert.False(t, tok.Consumed)
	assert.True(t, tok.ConsumedBy.IsZero())

	entry, _, err := f.l.Portfolio(f.ctx, f.dev, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), entry.Available)
	assert.Equal(t, uint64(40), entry.Consumed)

	m, err := f.l.Metrics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), m.Retired)

	events, err := f.l.Events(f.ctx, 0, 0)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, EventCreditsRetired, last.Kind)
	assert.Equal(t, f.dev, last.Subject, "beneficiary defaults to the caller")
}

func TestRetireCredits_ConsumesToken(t *testing.T) {
	f := newFixture(t)
	beneficiary := testPrincipal(t)
	id, err := f.l.IssueToken(f.ctx, f.as(f.dev), testSpec(100))
	require.NoError(t, err)

	_, err = f.l.RetireCredits(f.ctx, f.as(f.dev), id, 30, principal.Zero)
	require.NoError(t, err)
	inv := f.as(f.dev)
	tok, err := f.l.RetireCredits(f.ctx, inv, id, 70, beneficiary)
	require.NoError(t, err)
	assert.True(t, tok.Consumed)
	assert.Equal(t, beneficiary, tok.ConsumedBy)
	assert.Equal(t, inv.Height, tok.ConsumedAt)
	assert.Zero(t, tok.Outstanding())

	stored, _, err := f.l.Token(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tok, stored)

	_, err = f.l.RetireCredits(f.ctx, f.as(f.dev), id, 1, principal.Zero)
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	_, err = f.l.PublishOffer(f.ctx, f.as(f.dev), id, 1, 1)
	assert.ErrorIs(t, err, ErrUnusableToken)
}

func TestRetireCredits_Errors(t *testing.T) {
	f := newFixture(t)
	id, err := f.l.IssueToken(f.ctx, f.as(f.dev), testSpec(100))
	require.NoError(t, err)
	before := snapshot(t, f.l, f.dev)

	_, err = f.l.RetireCredits(f.ctx, f.as(f.dev), 99, 1, principal.Zero)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.l.RetireCredits(f.ctx, f.as(f.dev), id, 0, principal.Zero)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = f.l.RetireCredits(f.ctx, f.as(f.dev), id, 101, principal.Zero)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = f.l.RetireCredits(f.ctx, f.as(testPrincipal(t)), id, 1, principal.Zero)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, before, snapshot(t, f.l, f.dev))
}
