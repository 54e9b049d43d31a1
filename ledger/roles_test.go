package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/liboffset-go/principal"
)

func TestReassignAdministrator(t *testing.T) {
	f := newFixture(t)
	next := testPrincipal(t)

	require.NoError(t, f.l.ReassignAdministrator(f.ctx, f.as(f.admin), next))

	got, err := f.l.Administrator(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)

	// The previous holder has lost every administrator power.
	err = f.l.ReassignAdministrator(f.ctx, f.as(f.admin), f.admin)
	assert.ErrorIs(t, err, ErrUnauthorized)
	err = f.l.EnlistAuthenticator(f.ctx, f.as(f.admin), testPrincipal(t))
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.l.EnlistAuthenticator(f.ctx, f.as(next), testPrincipal(t)))
}

func TestReassignAdministrator_Zero(t *testing.T) {
	f := newFixture(t)
	err := f.l.ReassignAdministrator(f.ctx, f.as(f.admin), principal.Zero)
	assert.ErrorIs(t, err, ErrInvalidParam)

	got, err := f.l.Administrator(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.admin, got)
}

func TestEnlistAuthenticator(t *testing.T) {
	f := newFixture(t)
	a := testPrincipal(t)

	present, err := f.l.IsAuthenticator(f.ctx, a)
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, f.l.EnlistAuthenticator(f.ctx, f.as(f.admin), a))
	present, err = f.l.IsAuthenticator(f.ctx, a)
	require.NoError(t, err)
	assert.True(t, present)

	err = f.l.EnlistAuthenticator(f.ctx, f.as(f.admin), a)
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestEnlistAuthenticator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		caller  func(f *fixture) principal.Principal
		id      func(f *fixture) principal.Principal
		wantErr error
	}{
		{
			name:    "authenticator caller",
			caller:  func(f *fixture) principal.Principal { return f.auth },
			id:      func(f *fixture) principal.Principal { return f.dev },
			wantErr: ErrUnauthorized,
		},
		{
			name:    "developer caller",
			caller:  func(f *fixture) principal.Principal { return f.dev },
			id:      func(f *fixture) principal.Principal { return f.dev },
			wantErr: ErrUnauthorized,
		},
		{
			name:    "zero identity",
			caller:  func(f *fixture) principal.Principal { return f.admin },
			id:      func(f *fixture) principal.Principal { return principal.Zero },
			wantErr: ErrInvalidParam,
		},
		{
			name:    "already enlisted",
			caller:  func(f *fixture) principal.Principal { return f.admin },
			id:      func(f *fixture) principal.Principal { return f.auth },
			wantErr: ErrAlreadyActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.l.EnlistAuthenticator(f.ctx, f.as(tt.caller(f)), tt.id(f))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDelistAuthenticator(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.l.DelistAuthenticator(f.ctx, f.as(f.admin), f.auth))
	present, err := f.l.IsAuthenticator(f.ctx, f.auth)
	require.NoError(t, err)
	assert.False(t, present)

	// Credentials the authenticator wrote survive delisting.
	cred, ok, err := f.l.Credential(f.ctx, f.dev, f.auth)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cred.Valid)

	err = f.l.DelistAuthenticator(f.ctx, f.as(f.admin), f.auth)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrInvalidAuthenticator)

	// Re-enlisting is allowed once delisted.
	require.NoError(t, f.l.EnlistAuthenticator(f.ctx, f.as(f.admin), f.auth))
}

func TestDelistAuthenticator_Unauthorized(t *testing.T) {
	f := newFixture(t)
	err := f.l.DelistAuthenticator(f.ctx, f.as(f.auth), f.auth)
	assert.ErrorIs(t, err, ErrUnauthorized)

	present, err := f.l.IsAuthenticator(f.ctx, f.auth)
	require.NoError(t, err)
	assert.True(t, present)
}
