package keychain

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/ravenlabs/hdkeys/hdpath"
)

const (
	// BIP0043Purpose is the "purpose" value of the key family scheme. All
	// keys of a key ring are derived from this purpose, then the coin type
	// of the chain the keys are used on.
	BIP0043Purpose = hdpath.PurposeKeyFamily

	// ExternalBranch is the branch below a family account that keys are
	// derived on.
	ExternalBranch = hdpath.ExternalBranch
)

var (
	// MaxKeyRangeScan is the maximum number of keys that we'll attempt to
	// scan with if a caller knows the public key, but not the KeyLocator
	// and wishes to derive a private key.
	MaxKeyRangeScan uint32 = 100000

	// ErrCannotDerivePrivKey is returned when DerivePrivKey is unable to
	// derive a private key given only the public key and target key
	// family.
	ErrCannotDerivePrivKey = errors.New("unable to derive private key")

	// ErrUnknownFamily is returned when a key ring without a root is asked
	// for a family it holds no account key for.
	ErrUnknownFamily = errors.New("no account key for key family")
)

// KeyFamily is the hardened account a key is derived under. Keeping each
// purpose in its own account means a key can always be found again from the
// root, its family and its index:
//
//   - m/1017'/coinType'/keyFamily'/0/index
//
// The numbering is the one lnd uses, so rings built here see the same keys
// as an lnd wallet created from the same seed.
type KeyFamily uint32

const (
	// KeyFamilyMultiSig holds keys for multi-sig scripts.
	KeyFamilyMultiSig KeyFamily = 0

	// KeyFamilyRevocationBase holds revocation base points.
	KeyFamilyRevocationBase KeyFamily = 1

	// KeyFamilyHtlcBase holds the base points of HTLC keys.
	KeyFamilyHtlcBase KeyFamily = 2

	// KeyFamilyPaymentBase holds the base points of direct payment keys.
	KeyFamilyPaymentBase KeyFamily = 3

	// KeyFamilyDelayBase holds the base points of CSV delayed keys.
	KeyFamilyDelayBase KeyFamily = 4

	// KeyFamilyRevocationRoot holds revocation tree roots.
	KeyFamilyRevocationRoot KeyFamily = 5

	// KeyFamilyNodeKey holds identity keys.
	KeyFamilyNodeKey KeyFamily = 6

	// KeyFamilyBaseEncryption holds keys that encrypt data at rest.
	KeyFamilyBaseEncryption KeyFamily = 7

	// KeyFamilyTowerSession holds watchtower session keys.
	KeyFamilyTowerSession KeyFamily = 8

	// KeyFamilyTowerID holds watchtower identity keys.
	KeyFamilyTowerID KeyFamily = 9
)

// VersionZeroKeyFamilies lists every key family defined above.
var VersionZeroKeyFamilies = []KeyFamily{
	KeyFamilyMultiSig,
	KeyFamilyRevocationBase,
	KeyFamilyHtlcBase,
	KeyFamilyPaymentBase,
	KeyFamilyDelayBase,
	KeyFamilyRevocationRoot,
	KeyFamilyNodeKey,
	KeyFamilyBaseEncryption,
	KeyFamilyTowerSession,
	KeyFamilyTowerID,
}

// KeyLocator names a key of a key ring by its family, the hardened account,
// and its index on the external branch of that account.
type KeyLocator struct {
	Family KeyFamily
	Index  uint32
}

// IsEmpty reports whether the locator is the zero value, which is the case
// for keys only known by their public key.
func (k KeyLocator) IsEmpty() bool {
	return k.Family == 0 && k.Index == 0
}

// Path returns the derivation path of the key relative to the root of a key
// ring for the given coin type.
func (k KeyLocator) Path(coinType uint32) (hdpath.Path, error) {
	return hdpath.KeyFamilyKey(coinType, uint32(k.Family), k.Index)
}

// KeyDescriptor describes a key by locator, public key or both. When the
// public key is nil the locator must be set.
type KeyDescriptor struct {
	KeyLocator

	// PubKey is the public key of the described key, if known.
	PubKey *btcec.PublicKey
}

// KeyRing derives public keys. Everything below the family account is
// public derivation, so a ring holding only account xpubs can implement it.
type KeyRing interface {
	// DeriveKey returns the descriptor of the key at keyLoc, including
	// its public key.
	DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error)
}

// SecretKeyRing is a KeyRing that holds private keys and can use them.
type SecretKeyRing interface {
	KeyRing

	ECDHRing

	MessageSignerRing

	// DerivePrivKey returns the private key of keyDesc. A descriptor
	// with a public key and a zero index is looked up by scanning the
	// family, up to MaxKeyRangeScan keys.
	DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey, error)
}

// MessageSignerRing signs with the keys of a key ring. The message is hashed
// with SHA256, twice if doubleHash is set, before signing.
type MessageSignerRing interface {
	// SignMessage returns a DER-capable ECDSA signature.
	SignMessage(keyLoc KeyLocator, msg []byte,
		doubleHash bool) (*ecdsa.Signature, error)

	// SignMessageCompact returns a compact signature the public key can
	// be recovered from.
	SignMessageCompact(keyLoc KeyLocator, msg []byte,
		doubleHash bool) ([]byte, error)

	// SignMessageSchnorr returns a BIP340 signature, made with the
	// private key tweaked by taprootTweak if one is given. A non-empty tag
	// replaces the SHA256 digest with the tagged hash of the message.
	SignMessageSchnorr(keyLoc KeyLocator, msg []byte,
		doubleHash bool, taprootTweak []byte,
		tag []byte) (*schnorr.Signature, error)
}

// SingleKeyMessageSigner signs with one specific key.
type SingleKeyMessageSigner interface {
	// PubKey returns the public key of the signing key.
	PubKey() *btcec.PublicKey

	// KeyLocator returns the locator of the signing key.
	KeyLocator() KeyLocator

	// SignMessage works like MessageSignerRing.SignMessage.
	SignMessage(message []byte, doubleHash bool) (*ecdsa.Signature, error)

	// SignMessageCompact works like
	// MessageSignerRing.SignMessageCompact.
	SignMessageCompact(message []byte, doubleHash bool) ([]byte, error)
}

// ECDHRing computes shared secrets with the keys of a key ring. For our
// private key k and the remote public key P the secret is
//
//	sha256((k*P).SerializeCompressed())
type ECDHRing interface {
	ECDH(keyDesc KeyDescriptor, pubKey *btcec.PublicKey) ([32]byte, error)
}

// SingleKeyECDH computes shared secrets with one specific key, see ECDHRing.
type SingleKeyECDH interface {
	// PubKey returns the public key of the wrapped private key.
	PubKey() *btcec.PublicKey

	ECDH(pubKey *btcec.PublicKey) ([32]byte, error)
}
