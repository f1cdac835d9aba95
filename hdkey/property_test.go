package hdkey

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/ravenlabs/hdkeys/hdpath"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// genMaster draws a master key on one of the built-in networks.
func genMaster(t *rapid.T) *ExtendedKey {
	seed := rapid.SliceOfN(rapid.Byte(), MinSeedBytes, MaxSeedBytes).
		Draw(t, "seed")
	net := rapid.SampledFrom(chainparams.All()).Draw(t, "net")

	master, err := NewMaster(seed, net)
	if err != nil {
		// Seeds whose HMAC is not a valid scalar are vanishingly rare.
		t.Skip(err)
	}

	return master
}

// genSteps draws up to maxLen path steps.
func genSteps(t *rapid.T, label string, maxLen int,
	allowHardened bool) []hdpath.Step {

	n := rapid.IntRange(0, maxLen).Draw(t, label+" len")
	steps := make([]hdpath.Step, n)
	for i := range steps {
		steps[i] = hdpath.Step{
			Index: rapid.Uint32Range(
				0, HardenedKeyStart-1,
			).Draw(t, label+" index"),
			Hardened: allowHardened && rapid.Bool().Draw(
				t, label+" hardened",
			),
		}
	}

	return steps
}

// TestSerializationRoundTrip checks that text and binary forms decode to the
// same key on the same network.
func TestSerializationRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		master := genMaster(t)
		path := hdpath.Path{
			Root:  hdpath.RootPrivate,
			Steps: genSteps(t, "path", 4, true),
		}

		key, err := master.DerivePath(path)
		require.NoError(t, err)

		if rapid.Bool().Draw(t, "neuter") {
			key = key.Neuter()
		}

		decoded, err := NewKeyFromString(key.String(), key.Network())
		require.NoError(t, err)
		require.True(t, decoded.Equal(key))
		require.Equal(t, key.String(), decoded.String())

		bin, err := key.MarshalBinary()
		require.NoError(t, err)
		decoded, err = NewKeyFromBytes(bin, key.Network())
		require.NoError(t, err)
		require.True(t, decoded.Equal(key))
	})
}

// TestDerivationDeterministic derives the same path twice, once with the
// memoized public keys of the first run in place.
func TestDerivationDeterministic(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		master := genMaster(t)
		path := hdpath.Path{
			Root:  hdpath.RootPrivate,
			Steps: genSteps(t, "path", 4, true),
		}
		legacy := rapid.Bool().Draw(t, "legacy")

		var opts []DeriveOption
		if legacy {
			opts = append(opts, WithLegacyDerivation())
		}

		first, err := master.DerivePath(path, opts...)
		require.NoError(t, err)
		second, err := master.DerivePath(path, opts...)
		require.NoError(t, err)
		require.True(t, first.Equal(second))

		again, err := master.Derive(path.String(), opts...)
		require.NoError(t, err)
		require.True(t, first.Equal(again))
	})
}

// TestPathComposition checks that deriving a path in two pieces is the same
// as deriving it at once.
func TestPathComposition(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		master := genMaster(t)
		head := genSteps(t, "head", 3, true)
		tail := genSteps(t, "tail", 3, true)

		full := hdpath.Path{Root: hdpath.RootPrivate}.Child(head...)
		full = full.Child(tail...)

		want, err := master.DerivePath(full)
		require.NoError(t, err)

		mid, err := master.DerivePath(hdpath.Path{
			Root:  hdpath.RootPrivate,
			Steps: head,
		})
		require.NoError(t, err)

		got, err := mid.DerivePath(hdpath.Path{Steps: tail})
		require.NoError(t, err)
		require.True(t, got.Equal(want))
		require.Equal(t, uint8(len(head)+len(tail)), got.Depth())
	})
}

// TestPublicDerivationMatches checks that public derivation agrees with
// private derivation followed by neutering.
func TestPublicDerivationMatches(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		master := genMaster(t)
		account, err := master.DerivePath(hdpath.Path{
			Root:  hdpath.RootPrivate,
			Steps: genSteps(t, "account", 2, true),
		})
		require.NoError(t, err)

		tail := hdpath.Path{Steps: genSteps(t, "tail", 3, false)}

		private, err := account.DerivePath(tail)
		require.NoError(t, err)

		public, err := account.Neuter().DerivePath(tail)
		require.NoError(t, err)
		require.False(t, public.IsPrivate())
		require.True(t, public.Equal(private.Neuter()))

		// An M root only forbids hardened steps, the key stays
		// private.
		rooted, err := account.DerivePath(hdpath.Path{
			Root:  hdpath.RootPublic,
			Steps: tail.Steps,
		})
		require.NoError(t, err)
		require.True(t, rooted.Equal(private))
	})
}

// TestHardenedGuard checks that hardened children are never derived from
// public keys.
func TestHardenedGuard(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		master := genMaster(t)
		index := rapid.Uint32Range(
			HardenedKeyStart, 1<<32-1,
		).Draw(t, "index")

		_, err := master.Neuter().Child(index)
		require.ErrorIs(t, err, ErrHardenedFromNeutered)

		child, err := master.Child(index)
		require.NoError(t, err)
		require.True(t, child.IsHardened())
	})
}

// TestChecksumSensitivity flips a single bit of an encoded key and makes
// sure the result is rejected.
func TestChecksumSensitivity(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		master := genMaster(t)
		key := master
		if rapid.Bool().Draw(t, "neuter") {
			key = key.Neuter()
		}

		raw := base58.Decode(key.String())
		require.Len(t, raw, SerializedKeyLen+checksumLen)

		bit := rapid.IntRange(0, len(raw)*8-1).Draw(t, "bit")
		raw[bit/8] ^= 1 << (bit % 8)

		_, err := NewKeyFromString(base58.Encode(raw), key.Network())
		require.ErrorIs(t, err, ErrMalformedSerialization)
	})
}
