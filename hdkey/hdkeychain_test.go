package hdkey

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestMatchesHDKeychain derives random paths with both this package and
// btcutil's hdkeychain and compares the encoded results.
func TestMatchesHDKeychain(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Byte(), MinSeedBytes, MaxSeedBytes).
			Draw(t, "seed")

		master, err := NewMaster(seed, chainparams.BitcoinMainNet)
		if err != nil {
			t.Skip(err)
		}
		theirs, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.Equal(t, theirs.String(), master.String())

		indexes := rapid.SliceOfN(rapid.Uint32(), 0, 4).Draw(t, "path")
		for _, index := range indexes {
			master, err = master.Child(index)
			require.NoError(t, err)

			theirs, err = theirs.Derive(index)
			require.NoError(t, err)
		}
		require.Equal(t, theirs.String(), master.String())

		theirsPub, err := theirs.Neuter()
		require.NoError(t, err)
		require.Equal(t, theirsPub.String(), master.Neuter().String())
	})
}

// TestHDKeychainConversion converts keys to and from hdkeychain.
func TestHDKeychainConversion(t *testing.T) {
	t.Parallel()

	for _, test := range bip32Vectors {
		for _, encoded := range []string{test.wantPriv, test.wantPub} {
			key := mustKey(t, encoded)

			converted := key.ToHDKeychain()
			require.Equal(t, encoded, converted.String(), test.name)
			require.Equal(t, key.IsPrivate(), converted.IsPrivate())
			require.Equal(t, key.Depth(), converted.Depth())
			require.Equal(t, key.ChildIndex(), converted.ChildIndex())

			back, err := FromHDKeychain(converted)
			require.NoError(t, err, test.name)
			require.True(t, back.Equal(key), test.name)
		}
	}

	// The version of a Ravencoin testnet key is only known to the
	// networks passed in.
	rvn, err := NewKeyFromString(retryRoot, chainparams.RavencoinTestNet)
	require.NoError(t, err)

	back, err := FromHDKeychain(
		rvn.ToHDKeychain(), chainparams.RavencoinTestNet,
	)
	require.NoError(t, err)
	require.True(t, back.Equal(rvn))

	_, err = FromHDKeychain(rvn.ToHDKeychain(), chainparams.BitcoinMainNet)
	require.ErrorIs(t, err, ErrUnknownVersion)
}
