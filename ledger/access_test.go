package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/liboffset-go/principal"
)

func TestCapability_String(t *testing.T) {
	assert.Equal(t, "administrator", CapAdministrator.String())
	assert.Equal(t, "authenticator", CapAuthenticator.String())
	assert.Equal(t, "developer", CapDeveloper.String())
	assert.Equal(t, "capability(9)", Capability(9).String())
}

func TestHasCapability(t *testing.T) {
	f := newFixture(t)
	stranger := testPrincipal(t)

	tests := []struct {
		name string
		p    principal.Principal
		want map[Capability]bool
	}{
		{"administrator", f.admin, map[Capability]bool{CapAdministrator: true, CapAuthenticator: false, CapDeveloper: false}},
		{"authenticator", f.auth, map[Capability]bool{CapAdministrator: false, CapAuthenticator: true, CapDeveloper: false}},
		{"developer", f.dev, map[Capability]bool{CapAdministrator: false, CapAuthenticator: false, CapDeveloper: true}},
		{"stranger", stranger, map[Capability]bool{CapAdministrator: false, CapAuthenticator: false, CapDeveloper: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for c, want := range tt.want {
				got, err := f.l.HasCapability(f.ctx, tt.p, c)
				require.NoError(t, err)
				assert.Equal(t, want, got, c.String())
			}
		})
	}

	_, err := f.l.HasCapability(f.ctx, f.admin, Capability(0))
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestHasCapability_DeveloperFollowsCredentials(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.l.DelistAuthenticator(f.ctx, f.as(f.admin), f.auth))
	ok, err := f.l.HasCapability(f.ctx, f.dev, CapDeveloper)
	require.NoError(t, err)
	assert.False(t, ok, "credential from a delisted authenticator")

	require.NoError(t, f.l.EnlistAuthenticator(f.ctx, f.as(f.admin), f.auth))
	ok, err = f.l.HasCapability(f.ctx, f.dev, CapDeveloper)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.l.RevokeDeveloper(f.ctx, f.as(f.auth), f.dev))
	ok, err = f.l.HasCapability(f.ctx, f.dev, CapDeveloper)
	require.NoError(t, err)
	assert.False(t, ok, "revoked credential")

	// Any one valid credential is enough.
	other := testPrincipal(t)
	require.NoError(t, f.l.EnlistAuthenticator(f.ctx, f.as(f.admin), other))
	require.NoError(t, f.l.ApproveDeveloper(f.ctx, f.as(other), f.dev, "Cookstoves"))
	ok, err = f.l.HasCapability(f.ctx, f.dev, CapDeveloper)
	require.NoError(t, err)
	assert.True(t, ok)
}
