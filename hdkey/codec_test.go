package hdkey

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/stretchr/testify/require"
)

// encodeWithChecksum returns the Base58Check text of an arbitrary payload.
func encodeWithChecksum(payload []byte) string {
	checksum := chainhash.DoubleHashB(payload)[:4]
	return base58.Encode(append(append([]byte{}, payload...), checksum...))
}

// mutate returns a copy of the serialization of key with f applied.
func mutate(t *testing.T, key string, f func([]byte)) []byte {
	t.Helper()

	payload := mustKey(t, key).Serialize()
	out := payload[:]
	f(out)

	return out
}

// TestSerializeLayout checks the field offsets of the binary form.
func TestSerializeLayout(t *testing.T) {
	t.Parallel()

	key := mustKey(t, bip32Vectors[1].wantPriv)
	payload := key.Serialize()

	require.Equal(t, "0488ade4", hex.EncodeToString(payload[0:4]))
	require.Equal(t, byte(1), payload[4])
	require.Equal(t, "3442193e", hex.EncodeToString(payload[5:9]))
	require.Equal(t, "80000000", hex.EncodeToString(payload[9:13]))
	chainCode := key.ChainCode()
	require.Equal(t, chainCode[:], payload[13:45])
	require.Equal(t, byte(0), payload[45])

	pubPayload := key.Neuter().Serialize()
	require.Equal(t, "0488b21e", hex.EncodeToString(pubPayload[0:4]))
	require.Contains(t, []byte{0x02, 0x03}, pubPayload[45])

	bin, err := key.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, bin, SerializedKeyLen)

	decoded, err := New(Binary{Bytes: bin})
	require.NoError(t, err)
	require.True(t, decoded.Equal(key))

	text, err := key.MarshalText()
	require.NoError(t, err)
	require.Equal(t, bip32Vectors[1].wantPriv, string(text))

	var unmarshaled ExtendedKey
	require.NoError(t, unmarshaled.UnmarshalText(text))
	require.True(t, unmarshaled.Equal(key))
}

// TestDecodeErrors makes sure every kind of bad input is rejected with the
// matching error.
func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	xprv := bip32Vectors[0].wantPriv
	xpub := bip32Vectors[0].wantPub

	testCases := []struct {
		name  string
		input string
		err   error
	}{{
		name:  "empty",
		input: "",
		err:   ErrInvalidKeyLen,
	}, {
		name:  "bad alphabet",
		input: "xprv0OIl",
		err:   ErrInvalidBase58,
	}, {
		name:  "too short",
		input: xprv[:len(xprv)-4],
		err:   ErrInvalidKeyLen,
	}, {
		name:  "too long",
		input: xprv + "111",
		err:   ErrInvalidKeyLen,
	}, {
		name:  "bad checksum",
		input: xprv[:len(xprv)-1] + "j",
		err:   ErrBadChecksum,
	}, {
		// BIP32 test vector 5: unknown extended key version.
		name: "unknown version",
		input: encodeWithChecksum(mutate(t, xprv, func(b []byte) {
			copy(b[0:4], []byte{0xde, 0xad, 0xbe, 0xef})
		})),
		err: ErrUnknownVersion,
	}, {
		// BIP32 test vector 5: pubkey version / prvkey mismatch.
		name: "private data with public version",
		input: encodeWithChecksum(mutate(t, xprv, func(b []byte) {
			copy(b[0:4], []byte{0x04, 0x88, 0xb2, 0x1e})
		})),
		err: ErrKeyKindMismatch,
	}, {
		// BIP32 test vector 5: prvkey version / pubkey mismatch.
		name: "public data with private version",
		input: encodeWithChecksum(mutate(t, xpub, func(b []byte) {
			copy(b[0:4], []byte{0x04, 0x88, 0xad, 0xe4})
		})),
		err: ErrKeyKindMismatch,
	}, {
		name: "private key zero",
		input: encodeWithChecksum(mutate(t, xprv, func(b []byte) {
			for i := 46; i < 78; i++ {
				b[i] = 0
			}
		})),
		err: ErrInvalidPrivKey,
	}, {
		name: "private key equal to n",
		input: encodeWithChecksum(mutate(t, xprv, func(b []byte) {
			n, _ := hex.DecodeString("fffffffffffffffffffffffffff" +
				"ffffebaaedce6af48a03bbfd25e8cd0364141")
			copy(b[46:78], n)
		})),
		err: ErrInvalidPrivKey,
	}, {
		name: "public key prefix 04",
		input: encodeWithChecksum(mutate(t, xpub, func(b []byte) {
			b[45] = 0x04
		})),
		err: ErrInvalidPubKey,
	}, {
		name: "public key not on curve",
		input: encodeWithChecksum(mutate(t, xpub, func(b []byte) {
			// x = 5 has no point on secp256k1.
			for i := 46; i < 77; i++ {
				b[i] = 0
			}
			b[77] = 5
		})),
		err: ErrInvalidPubKey,
	}, {
		// BIP32 test vector 5: zero depth with non-zero parent
		// fingerprint.
		name: "root with parent fingerprint",
		input: encodeWithChecksum(mutate(t, xpub, func(b []byte) {
			b[5] = 1
		})),
		err: ErrInvalidRoot,
	}, {
		// BIP32 test vector 5: zero depth with non-zero index.
		name: "root with child index",
		input: encodeWithChecksum(mutate(t, xprv, func(b []byte) {
			b[12] = 1
		})),
		err: ErrInvalidRoot,
	}}

	for _, tc := range testCases {
		_, err := NewKeyFromString(tc.input)
		require.ErrorIs(t, err, tc.err, tc.name)
		require.ErrorIs(t, err, ErrMalformedSerialization, tc.name)

		require.False(t, IsValidSerialized(tc.input), tc.name)
		require.ErrorIs(t, SerializedError(tc.input), tc.err, tc.name)
	}

	_, err := NewKeyFromBytes(make([]byte, 77))
	require.ErrorIs(t, err, ErrInvalidKeyLen)
}

// TestNetworkHints checks how shared version bytes are resolved.
func TestNetworkHints(t *testing.T) {
	t.Parallel()

	xprv := ravencoinVectors[0].wantPriv

	// Without a hint the first registered network wins.
	key, err := NewKeyFromString(xprv)
	require.NoError(t, err)
	require.Equal(t, chainparams.BitcoinMainNet, key.Network())

	key, err = New(Serialized{
		Text: xprv,
		Nets: []*chainparams.Network{chainparams.RavencoinMainNet},
	})
	require.NoError(t, err)
	require.Equal(t, chainparams.RavencoinMainNet, key.Network())
	require.Equal(t, xprv, key.String())

	// Hints that do not know the version are rejected.
	_, err = NewKeyFromString(xprv, chainparams.BitcoinTestNet3)
	require.ErrorIs(t, err, ErrUnknownVersion)
	require.True(t, IsValidSerialized(xprv))
	require.False(t, IsValidSerialized(xprv, chainparams.RavencoinTestNet))

	// The first matching hint is used.
	key, err = NewKeyFromString(
		retryRoot, chainparams.BitcoinMainNet,
		chainparams.RavencoinTestNet, chainparams.BitcoinTestNet3,
	)
	require.NoError(t, err)
	require.Equal(t, chainparams.RavencoinTestNet, key.Network())

	// Children keep the network of their parent.
	child, err := key.Child(3)
	require.NoError(t, err)
	require.Equal(t, chainparams.RavencoinTestNet, child.Network())
}

// TestOtherNetworks round trips keys of every built-in network.
func TestOtherNetworks(t *testing.T) {
	t.Parallel()

	seed, err := hex.DecodeString(testVec1MasterHex)
	require.NoError(t, err)

	for _, net := range chainparams.All() {
		master, err := NewMaster(seed, net)
		require.NoError(t, err, net.ID())

		key, err := master.Derive("m/0'/1")
		require.NoError(t, err, net.ID())

		for _, k := range []*ExtendedKey{key, key.Neuter()} {
			text := k.String()
			require.Equal(
				t, net.KeyPrefix(k.IsPrivate()), text[:4], net.ID(),
			)

			decoded, err := NewKeyFromString(text, net)
			require.NoError(t, err, net.ID())
			require.True(t, decoded.Equal(k), net.ID())
		}
	}
}

// TestNewFromFields checks construction from explicit values.
func TestNewFromFields(t *testing.T) {
	t.Parallel()

	key := mustKey(t, bip32Vectors[2].wantPriv)
	chainCode := key.ChainCode()
	priv := key.PrivKeyBytes().UnwrapOrFail(t)
	pub := key.PubKeyBytes()

	fields := Fields{
		Net:               chainparams.BitcoinMainNet,
		Depth:             key.Depth(),
		ParentFingerprint: key.ParentFingerprint(),
		ChildIndex:        key.ChildIndex(),
		ChainCode:         chainCode[:],
		PrivKey:           priv[:],
	}

	built, err := New(fields)
	require.NoError(t, err)
	require.True(t, built.Equal(key))

	fields.PubKey = pub[:]
	built, err = NewKeyFromFields(fields)
	require.NoError(t, err)
	require.True(t, built.Equal(key))

	pubFields := fields
	pubFields.PrivKey = nil
	built, err = NewKeyFromFields(pubFields)
	require.NoError(t, err)
	require.True(t, built.Equal(key.Neuter()))

	bad := fields
	bad.ChainCode = chainCode[:31]
	_, err = NewKeyFromFields(bad)
	require.ErrorIs(t, err, ErrInvalidChainCode)

	bad = fields
	bad.PubKey = append([]byte{}, pub[:]...)
	bad.PubKey[1] ^= 1
	_, err = NewKeyFromFields(bad)
	require.ErrorIs(t, err, ErrInvalidPubKey)

	bad = fields
	bad.PrivKey, bad.PubKey = nil, nil
	_, err = NewKeyFromFields(bad)
	require.ErrorIs(t, err, ErrMalformedSerialization)

	bad = fields
	bad.PrivKey = make([]byte, 32)
	_, err = NewKeyFromFields(bad)
	require.ErrorIs(t, err, ErrInvalidPrivKey)

	bad = fields
	bad.Depth = 0
	_, err = NewKeyFromFields(bad)
	require.ErrorIs(t, err, ErrInvalidRoot)
}

// TestNewMaster checks seed validation.
func TestNewMaster(t *testing.T) {
	t.Parallel()

	for _, length := range []int{0, 1, MinSeedBytes - 1, MaxSeedBytes + 1} {
		_, err := New(Seed{Bytes: make([]byte, length)})
		require.ErrorIs(t, err, ErrInvalidSeedLen)
		require.ErrorIs(t, err, ErrMalformedSeed)
	}

	for _, length := range []uint8{MinSeedBytes, RecommendedSeedLen,
		MaxSeedBytes} {

		seed, err := GenerateSeed(length)
		require.NoError(t, err)
		require.Len(t, seed, int(length))

		master, err := NewMaster(seed, nil)
		require.NoError(t, err)
		require.Equal(t, chainparams.BitcoinMainNet, master.Network())
		require.True(t, master.IsPrivate())
	}

	_, err := GenerateSeed(MinSeedBytes - 1)
	require.ErrorIs(t, err, ErrInvalidSeedLen)

	_, err = New(nil)
	require.ErrorIs(t, err, ErrMalformedSerialization)
}
