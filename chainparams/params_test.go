package chainparams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestKeyPrefix makes sure the Base58 prefixes computed from the version
// bytes are the well known ones.
func TestKeyPrefix(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		net     *Network
		private string
		public  string
	}{
		{BitcoinMainNet, "xprv", "xpub"},
		{BitcoinTestNet3, "tprv", "tpub"},
		{BitcoinRegTest, "tprv", "tpub"},
		{RavencoinMainNet, "xprv", "xpub"},
		{RavencoinTestNet, "tprv", "tpub"},
		{LitecoinMainNet, "Ltpv", "Ltub"},
		{LitecoinTestNet4, "ttpv", "ttub"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.private, tc.net.KeyPrefix(true), tc.net.ID())
		require.Equal(t, tc.public, tc.net.KeyPrefix(false), tc.net.ID())
	}
}

// TestNetworkProfiles checks the fields that differ between chains.
func TestNetworkProfiles(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bitcoin-mainnet", BitcoinMainNet.ID())
	require.Equal(t, "ravencoin-testnet", RavencoinTestNet.ID())
	require.Equal(t, "litecoin-testnet4", LitecoinTestNet4.ID())

	require.Equal(t, []byte("Bitcoin seed"), BitcoinMainNet.MasterKeyLabel)
	require.Equal(t, []byte("Bitcoin seed"), LitecoinMainNet.MasterKeyLabel)
	require.Equal(
		t, []byte("Ravencoin seed"), RavencoinMainNet.MasterKeyLabel,
	)

	require.Equal(t, CoinTypeRavencoin, RavencoinMainNet.CoinType)
	require.Equal(t, CoinTypeTestnet, RavencoinTestNet.CoinType)
	require.Equal(t, CoinTypeLitecoin, LitecoinMainNet.CoinType)
	require.Equal(t, byte(60), RavencoinMainNet.PubKeyHashAddrID)

	// Ravencoin shares the Bitcoin extended key versions.
	require.Equal(
		t, BitcoinMainNet.HDPrivateKeyID, RavencoinMainNet.HDPrivateKeyID,
	)
	require.Equal(
		t, BitcoinTestNet3.HDPublicKeyID, RavencoinTestNet.HDPublicKeyID,
	)

	// Litecoin has its own.
	require.NotEqual(
		t, BitcoinMainNet.HDPrivateKeyID, LitecoinMainNet.HDPrivateKeyID,
	)
	require.NotEqual(
		t, BitcoinTestNet3.HDPublicKeyID, LitecoinTestNet4.HDPublicKeyID,
	)
	require.Equal(
		t, [4]byte{0x01, 0x9d, 0x9c, 0xfe}, LitecoinMainNet.HDPrivateKeyID,
	)
	require.Equal(
		t, [4]byte{0x04, 0x36, 0xf6, 0xe1}, LitecoinTestNet4.HDPublicKeyID,
	)

	// Deriving the Ravencoin parameters must not touch btcd's globals.
	require.Equal(t, byte(0x00), BitcoinMainNet.PubKeyHashAddrID)
	require.Equal(t, "mainnet", BitcoinMainNet.Name)
}

// TestRegistry exercises lookups on the built-in registry.
func TestRegistry(t *testing.T) {
	t.Parallel()

	net, err := ByName("bitcoin-testnet3")
	require.NoError(t, err)
	require.Equal(t, BitcoinTestNet3, net)

	net, err = ByName("ravencoin")
	require.NoError(t, err)
	require.Equal(t, RavencoinMainNet, net)

	_, err = ByName("dogecoin")
	require.ErrorIs(t, err, ErrUnknownNetwork)

	// The xprv version is ambiguous, Bitcoin comes first.
	matches := ByVersion(BitcoinMainNet.HDPrivateKeyID)
	require.Equal(
		t, []*Network{BitcoinMainNet, RavencoinMainNet}, matches,
	)

	matches = ByVersion(BitcoinTestNet3.HDPublicKeyID)
	require.Equal(t, []*Network{
		BitcoinTestNet3, BitcoinRegTest, RavencoinTestNet,
	}, matches)

	matches = ByVersion(LitecoinMainNet.HDPublicKeyID)
	require.Equal(t, []*Network{LitecoinMainNet}, matches)

	require.Empty(t, ByVersion([4]byte{1, 2, 3, 4}))

	private, ok := Default().IsPrivateVersion(
		BitcoinMainNet.HDPrivateKeyID,
	)
	require.True(t, ok)
	require.True(t, private)

	private, ok = Default().IsPrivateVersion(BitcoinMainNet.HDPublicKeyID)
	require.True(t, ok)
	require.False(t, private)

	_, ok = Default().IsPrivateVersion([4]byte{})
	require.False(t, ok)

	require.Len(t, All(), 8)
}

// TestRegistryDuplicate makes sure IDs are unique within a registry.
func TestRegistryDuplicate(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(BitcoinMainNet)
	require.NoError(t, err)

	err = r.Register(BitcoinMainNet)
	require.ErrorIs(t, err, ErrDuplicateNetwork)

	_, err = NewRegistry(RavencoinMainNet, RavencoinMainNet)
	require.ErrorIs(t, err, ErrDuplicateNetwork)

	err = r.Register(&Network{})
	require.ErrorIs(t, err, ErrUnknownNetwork)
}
