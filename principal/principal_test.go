package principal

import (
	"strings"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPubKey(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	p, err := FromPubKey(priv.PubKey())
	require.NoError(t, err)
	assert.False(t, p.IsZero())

	again, err := FromPubKey(priv.PubKey())
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestFromPubKey_Nil(t *testing.T) {
	_, err := FromPubKey(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestFromHash_BadLength(t *testing.T) {
	_, err := FromHash(make([]byte, 19))
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestAddress_RoundTrip(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	p, err := FromPubKey(priv.PubKey())
	require.NoError(t, err)

	tests := []struct {
		name   string
		net    *Network
		prefix string
	}{
		{"mainnet", &MainNet, "1"},
		{"nil defaults to mainnet", nil, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := p.Address(tt.net)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(addr, tt.prefix), "address %s", addr)

			parsed, err := ParseAddress(addr)
			require.NoError(t, err)
			assert.Equal(t, p, parsed)
		})
	}
}

func TestAddress_TestnetParses(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	p, err := FromPubKey(priv.PubKey())
	require.NoError(t, err)

	addr, err := p.Address(&TestNet)
	require.NoError(t, err)
	main, err := p.Address(&MainNet)
	require.NoError(t, err)
	assert.NotEqual(t, main, addr)

	parsed, err := ParseAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-an-address", "1111"} {
		_, err := ParseAddress(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, "input %q", s)
	}
}

func TestHex_RoundTrip(t *testing.T) {
	var p Principal
	for i := range p {
		p[i] = byte(i + 1)
	}
	got, err := ParseHex(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = ParseHex("zz")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestGetNetwork(t *testing.T) {
	for _, name := range []string{"mainnet", "testnet", "regtest"} {
		net, err := GetNetwork(name)
		require.NoError(t, err)
		assert.Equal(t, name, net.Name)
	}
	_, err := GetNetwork("devnet")
	assert.ErrorIs(t, err, ErrInvalidNetwork)
}
