package hdkey

import (
	"crypto/hmac"
	"crypto/sha512"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Primitives is the set of hashing, curve and encoding operations the
// derivation engine and the codec are built on. The default implementation
// is backed by btcec and btcutil; tests swap in wrappers to observe or force
// individual calls.
type Primitives interface {
	// HMACSHA512 returns HMAC-SHA512(key, data).
	HMACSHA512(key, data []byte) [64]byte

	// ScalarAdd returns (tweak + scalar) mod n. The boolean is false when
	// the tweak is not below the curve order or the sum is zero.
	ScalarAdd(tweak, scalar *[32]byte) ([32]byte, bool)

	// PointAdd returns the compressed encoding of tweak*G + point. The
	// boolean is false when the tweak is not below the curve order, the
	// point does not parse or the sum is the point at infinity.
	PointAdd(tweak *[32]byte, point *[33]byte) ([33]byte, bool)

	// PubKeyFromScalar returns the compressed encoding of scalar*G. The
	// boolean is false for scalars outside [1, n-1].
	PubKeyFromScalar(scalar *[32]byte) ([33]byte, bool)

	// ValidScalar reports whether scalar is in [1, n-1].
	ValidScalar(scalar *[32]byte) bool

	// ValidPubKey reports whether point is a compressed encoding of a
	// point on the curve.
	ValidPubKey(point *[33]byte) bool

	// Hash160 returns RIPEMD160(SHA256(data)).
	Hash160(data []byte) [20]byte

	// Checksum returns the first four bytes of SHA256(SHA256(data)).
	Checksum(data []byte) [4]byte

	// Base58Encode encodes data with the Bitcoin alphabet.
	Base58Encode(data []byte) string

	// Base58Decode decodes s. It returns an empty slice if s contains
	// characters outside the alphabet.
	Base58Decode(s string) []byte
}

// DefaultPrimitives is the secp256k1 implementation of Primitives used
// unless a derivation is told otherwise.
var DefaultPrimitives Primitives = btcecPrimitives{}

// btcecPrimitives implements Primitives with btcec, btcutil and chainhash.
type btcecPrimitives struct{}

// A compile time check to ensure btcecPrimitives implements the Primitives
// interface.
var _ Primitives = btcecPrimitives{}

// HMACSHA512 returns HMAC-SHA512(key, data).
func (btcecPrimitives) HMACSHA512(key, data []byte) [64]byte {
	var out [64]byte

	mac := hmac.New(sha512.New, key)
	_, _ = mac.Write(data)
	mac.Sum(out[:0])

	return out
}

// ScalarAdd returns (tweak + scalar) mod n.
func (btcecPrimitives) ScalarAdd(tweak, scalar *[32]byte) ([32]byte, bool) {
	var il, k btcec.ModNScalar
	if overflow := il.SetBytes(tweak); overflow != 0 {
		return [32]byte{}, false
	}
	k.SetBytes(scalar)

	k.Add(&il)
	if k.IsZero() {
		return [32]byte{}, false
	}

	return k.Bytes(), true
}

// PointAdd returns tweak*G + point.
func (btcecPrimitives) PointAdd(tweak *[32]byte,
	point *[33]byte) ([33]byte, bool) {

	var il btcec.ModNScalar
	if overflow := il.SetBytes(tweak); overflow != 0 {
		return [33]byte{}, false
	}

	pubKey, err := btcec.ParsePubKey(point[:])
	if err != nil {
		return [33]byte{}, false
	}

	var tweakPoint, parentPoint, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&il, &tweakPoint)
	pubKey.AsJacobian(&parentPoint)
	btcec.AddNonConst(&tweakPoint, &parentPoint, &sum)

	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return [33]byte{}, false
	}
	sum.ToAffine()

	var out [33]byte
	copy(out[:], btcec.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed())

	return out, true
}

// PubKeyFromScalar returns scalar*G.
func (p btcecPrimitives) PubKeyFromScalar(scalar *[32]byte) ([33]byte, bool) {
	if !p.ValidScalar(scalar) {
		return [33]byte{}, false
	}

	_, pubKey := btcec.PrivKeyFromBytes(scalar[:])

	var out [33]byte
	copy(out[:], pubKey.SerializeCompressed())

	return out, true
}

// ValidScalar reports whether scalar is in [1, n-1].
func (btcecPrimitives) ValidScalar(scalar *[32]byte) bool {
	var k btcec.ModNScalar
	overflow := k.SetBytes(scalar)

	return overflow == 0 && !k.IsZero()
}

// ValidPubKey reports whether point is a compressed point on the curve.
func (btcecPrimitives) ValidPubKey(point *[33]byte) bool {
	if point[0] != 0x02 && point[0] != 0x03 {
		return false
	}

	_, err := btcec.ParsePubKey(point[:])
	return err == nil
}

// Hash160 returns RIPEMD160(SHA256(data)).
func (btcecPrimitives) Hash160(data []byte) [20]byte {
	var out [20]byte
	copy(out[:], btcutil.Hash160(data))

	return out
}

// Checksum returns the first four bytes of the double SHA256 of data.
func (btcecPrimitives) Checksum(data []byte) [4]byte {
	var out [4]byte
	copy(out[:], chainhash.DoubleHashB(data)[:4])

	return out
}

// Base58Encode encodes data with the Bitcoin alphabet.
func (btcecPrimitives) Base58Encode(data []byte) string {
	return base58.Encode(data)
}

// Base58Decode decodes s with the Bitcoin alphabet.
func (btcecPrimitives) Base58Decode(s string) []byte {
	return base58.Decode(s)
}
