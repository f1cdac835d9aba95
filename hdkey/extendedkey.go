package hdkey

// References:
//   [BIP32]: BIP0032 - Hierarchical Deterministic Wallets
//   https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki

import (
	"bytes"
	"crypto/rand"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/ravenlabs/hdkeys/hdpath"
)

const (
	// RecommendedSeedLen is the recommended length in bytes for a seed
	// to a master node.
	RecommendedSeedLen = 32 // 256 bits

	// HardenedKeyStart is the index at which a hardened key starts.
	HardenedKeyStart = hdpath.HardenedKeyStart

	// MinSeedBytes is the minimum number of bytes allowed for a seed to
	// a master node.
	MinSeedBytes = 16 // 128 bits

	// MaxSeedBytes is the maximum number of bytes allowed for a seed to
	// a master node.
	MaxSeedBytes = 64 // 512 bits

	// maxDepth is the depth of the deepest node that can be represented.
	maxDepth = 255
)

// ExtendedKey is a node of the key tree: either a private key or a public
// key together with the chain code and the position metadata needed to
// derive its children and serialize it. An ExtendedKey never changes after
// construction; every operation that produces a key returns a new one. It is
// safe for concurrent use.
type ExtendedKey struct {
	net        *chainparams.Network
	depth      uint8
	parentFP   [4]byte
	childIndex uint32
	chainCode  [32]byte

	// privKey is nil for public keys.
	privKey *[32]byte

	// pubKey is set at construction for public keys and computed on first
	// use for private keys. Every computation stores the same bytes, so a
	// race between two first uses is harmless.
	pubKey atomic.Pointer[[33]byte]
}

// Network returns the network the key belongs to.
func (k *ExtendedKey) Network() *chainparams.Network {
	return k.net
}

// Depth returns the number of derivation steps between the key and the root.
func (k *ExtendedKey) Depth() uint8 {
	return k.depth
}

// ParentFingerprint returns the fingerprint of the parent key, all zero for a
// root key.
func (k *ExtendedKey) ParentFingerprint() [4]byte {
	return k.parentFP
}

// ChildIndex returns the index at which the key was derived from its parent.
// Hardened indexes have the top bit set.
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.childIndex
}

// IsHardened reports whether the key is a hardened child.
func (k *ExtendedKey) IsHardened() bool {
	return k.childIndex >= HardenedKeyStart
}

// ChainCode returns the chain code of the key.
func (k *ExtendedKey) ChainCode() [32]byte {
	return k.chainCode
}

// IsPrivate returns whether or not the extended key is a private extended
// key.
func (k *ExtendedKey) IsPrivate() bool {
	return k.privKey != nil
}

// Version returns the extended key version bytes for the key's network and
// kind.
func (k *ExtendedKey) Version() [4]byte {
	return k.net.VersionFor(k.IsPrivate())
}

// PrivKeyBytes returns the 32-byte private scalar, if the key has one.
func (k *ExtendedKey) PrivKeyBytes() fn.Option[[32]byte] {
	if k.privKey == nil {
		return fn.None[[32]byte]()
	}

	return fn.Some(*k.privKey)
}

// PubKeyBytes returns the compressed public key.
func (k *ExtendedKey) PubKeyBytes() [33]byte {
	// A private key is validated at construction, so the default
	// projection cannot fail here.
	pub, _ := k.pubKeyBytes(DefaultPrimitives)
	return pub
}

// pubKeyBytes returns the compressed public key, computing it with prims for
// private keys. Only keys computed by DefaultPrimitives are memoized, other
// primitives never change what the node reports about itself.
func (k *ExtendedKey) pubKeyBytes(prims Primitives) ([33]byte, error) {
	if pub := k.pubKey.Load(); pub != nil {
		return *pub, nil
	}

	pub, ok := prims.PubKeyFromScalar(k.privKey)
	if !ok {
		return [33]byte{}, ErrInvalidPrivKey
	}

	if prims == DefaultPrimitives {
		k.pubKey.Store(&pub)
	}

	return pub, nil
}

// Fingerprint returns the first four bytes of the hash160 of the public key.
// Children of this key carry it as their parent fingerprint.
func (k *ExtendedKey) Fingerprint() [4]byte {
	return fingerprintOf(k.PubKeyBytes(), DefaultPrimitives)
}

// fingerprintOf returns the fingerprint of the compressed public key pub.
func fingerprintOf(pub [33]byte, prims Primitives) [4]byte {
	hash := prims.Hash160(pub[:])

	var fp [4]byte
	copy(fp[:], hash[:4])

	return fp
}

// ECPubKey converts the extended key to a btcec public key and returns it.
func (k *ExtendedKey) ECPubKey() (*btcec.PublicKey, error) {
	pub := k.PubKeyBytes()
	return btcec.ParsePubKey(pub[:])
}

// ECPrivKey converts the extended key to a btcec private key and returns it.
// As you might imagine this is only possible if the extended key is a private
// extended key (as determined by the IsPrivate function). The ErrNotPrivate
// error will be returned if this function is called on a public extended
// key.
func (k *ExtendedKey) ECPrivKey() (*btcec.PrivateKey, error) {
	if k.privKey == nil {
		return nil, ErrNotPrivate
	}

	privKey, _ := btcec.PrivKeyFromBytes(k.privKey[:])
	return privKey, nil
}

// Equal reports whether both keys have the same network, kind, metadata and
// key material.
func (k *ExtendedKey) Equal(other *ExtendedKey) bool {
	if k == nil || other == nil {
		return k == other
	}

	if k.IsPrivate() != other.IsPrivate() {
		return false
	}
	if k.IsPrivate() && *k.privKey != *other.privKey {
		return false
	}

	return k.net == other.net &&
		k.depth == other.depth &&
		k.parentFP == other.parentFP &&
		k.childIndex == other.childIndex &&
		k.chainCode == other.chainCode &&
		k.PubKeyBytes() == other.PubKeyBytes()
}

// Source is one of the inputs an ExtendedKey can be built from: Seed,
// Serialized, Binary or Fields.
type Source interface {
	isSource()
}

// Seed builds a master key from seed bytes.
type Seed struct {
	// Bytes is the seed, 16 to 64 bytes long.
	Bytes []byte

	// Net is the network of the master key. Bitcoin mainnet is used when
	// nil.
	Net *chainparams.Network
}

// Serialized parses a Base58Check encoded extended key.
type Serialized struct {
	// Text is the encoded key.
	Text string

	// Nets restricts the networks the version bytes are resolved
	// against, in order of preference. The default registry is used when
	// empty.
	Nets []*chainparams.Network
}

// Binary parses the 78-byte serialization of an extended key.
type Binary struct {
	// Bytes is the serialization, without checksum.
	Bytes []byte

	// Nets restricts the networks the version bytes are resolved
	// against, in order of preference. The default registry is used when
	// empty.
	Nets []*chainparams.Network
}

// Fields builds a key from explicit values. Exactly one of PrivKey and
// PubKey is needed; if both are given they must agree.
type Fields struct {
	Net               *chainparams.Network
	Depth             uint8
	ParentFingerprint [4]byte
	ChildIndex        uint32
	ChainCode         []byte

	// PrivKey is a 32-byte private scalar.
	PrivKey []byte

	// PubKey is a 33-byte compressed public key.
	PubKey []byte
}

func (Seed) isSource()       {}
func (Serialized) isSource() {}
func (Binary) isSource()     {}
func (Fields) isSource()     {}

// New builds an extended key from any of its sources, validating every
// field.
func New(src Source) (*ExtendedKey, error) {
	switch s := src.(type) {
	case Seed:
		return NewMaster(s.Bytes, s.Net)

	case Serialized:
		return NewKeyFromString(s.Text, s.Nets...)

	case Binary:
		return NewKeyFromBytes(s.Bytes, s.Nets...)

	case Fields:
		return NewKeyFromFields(s)

	default:
		return nil, ErrMalformedSerialization
	}
}

// NewMaster creates a new master node for use in creating a hierarchical
// deterministic key chain. The seed must be between 128 and 512 bits and
// should be generated by a cryptographically secure random generation
// source. The HMAC key is the master key label of the network, so the same
// seed gives different roots on Bitcoin and Ravencoin.
func NewMaster(seed []byte, net *chainparams.Network) (*ExtendedKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, ErrInvalidSeedLen
	}
	if net == nil {
		net = chainparams.BitcoinMainNet
	}

	// First take the HMAC-SHA512 of the master key label and the seed.
	ilr := DefaultPrimitives.HMACSHA512(net.MasterKeyLabel, seed)

	// Split it into two 32-byte sequences Il and Ir where:
	//   Il = master secret key
	//   Ir = master chain code
	var secretKey, chainCode [32]byte
	copy(secretKey[:], ilr[:32])
	copy(chainCode[:], ilr[32:])

	if !DefaultPrimitives.ValidScalar(&secretKey) {
		return nil, ErrUnusableSeed
	}

	log.Tracef("Created master key on %v", net)

	return &ExtendedKey{
		net:       net,
		chainCode: chainCode,
		privKey:   &secretKey,
	}, nil
}

// GenerateSeed returns a cryptographically secure random seed that can be used
// as the input for NewMaster. The length is in bytes and must be between 16
// and 64.
func GenerateSeed(length uint8) ([]byte, error) {
	if length < MinSeedBytes || length > MaxSeedBytes {
		return nil, ErrInvalidSeedLen
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// NewKeyFromFields builds a key from explicit field values.
func NewKeyFromFields(f Fields) (*ExtendedKey, error) {
	net := f.Net
	if net == nil {
		net = chainparams.BitcoinMainNet
	}

	if len(f.ChainCode) != 32 {
		return nil, ErrInvalidChainCode
	}

	k := &ExtendedKey{
		net:        net,
		depth:      f.Depth,
		parentFP:   f.ParentFingerprint,
		childIndex: f.ChildIndex,
	}
	copy(k.chainCode[:], f.ChainCode)

	if err := checkRoot(k); err != nil {
		return nil, err
	}

	switch {
	case f.PrivKey == nil && f.PubKey == nil:
		return nil, ErrInvalidPrivKey

	case f.PrivKey != nil:
		if len(f.PrivKey) != 32 {
			return nil, ErrInvalidPrivKey
		}

		var scalar [32]byte
		copy(scalar[:], f.PrivKey)
		if !DefaultPrimitives.ValidScalar(&scalar) {
			return nil, ErrInvalidPrivKey
		}
		k.privKey = &scalar

		if f.PubKey != nil {
			pub := k.PubKeyBytes()
			if !bytes.Equal(pub[:], f.PubKey) {
				return nil, ErrInvalidPubKey
			}
		}

	default:
		if len(f.PubKey) != 33 {
			return nil, ErrInvalidPubKey
		}

		var pub [33]byte
		copy(pub[:], f.PubKey)
		if !DefaultPrimitives.ValidPubKey(&pub) {
			return nil, ErrInvalidPubKey
		}
		k.pubKey.Store(&pub)
	}

	return k, nil
}

// checkRoot rejects depth zero keys that claim to have a parent.
func checkRoot(k *ExtendedKey) error {
	if k.depth == 0 && (k.parentFP != [4]byte{} || k.childIndex != 0) {
		return ErrInvalidRoot
	}

	return nil
}
