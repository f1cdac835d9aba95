package keychain

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ravenlabs/hdkeys/hdkey"
	"github.com/ravenlabs/hdkeys/hdpath"
)

// HDKeyRing is an implementation of both the KeyRing and SecretKeyRing
// interfaces backed by an extended key. Keys are derived at
//
//   - m/1017'/coinType'/keyFamily'/0/index
//
// below the root. The hardened family accounts are derived once and cached,
// so a ring that was only handed the extended public keys of its accounts
// still serves DeriveKey.
type HDKeyRing struct {
	// root is the key the paths are relative to. It is nil for rings made
	// from account keys only.
	root *hdkey.ExtendedKey

	// coinType is the hardened second level of every path.
	coinType uint32

	// opts are passed to every derivation.
	opts []hdkey.DeriveOption

	mu       sync.Mutex
	accounts map[KeyFamily]*hdkey.ExtendedKey
}

// NewHDKeyRing creates a key ring deriving from root for the given coin type.
// If root is a public key only families added with AddAccount can be served.
func NewHDKeyRing(root *hdkey.ExtendedKey, coinType uint32,
	opts ...hdkey.DeriveOption) *HDKeyRing {

	return &HDKeyRing{
		root:     root,
		coinType: coinType,
		opts:     opts,
		accounts: make(map[KeyFamily]*hdkey.ExtendedKey),
	}
}

// NewHDKeyRingFromAccount creates a key ring that holds a single family
// account key, i.e. the key at m/1017'/coinType'/keyFamily'. If the account
// key is public the ring can only serve DeriveKey.
func NewHDKeyRingFromAccount(account *hdkey.ExtendedKey, coinType uint32,
	family KeyFamily, opts ...hdkey.DeriveOption) (*HDKeyRing, error) {

	r := NewHDKeyRing(nil, coinType, opts...)
	if err := r.AddAccount(family, account); err != nil {
		return nil, err
	}

	return r, nil
}

// AddAccount registers the account key of a family. The key must sit at
// depth three and carry the hardened family index.
func (r *HDKeyRing) AddAccount(family KeyFamily,
	account *hdkey.ExtendedKey) error {

	want := uint32(family) + hdpath.HardenedKeyStart
	if account.Depth() != 3 || account.ChildIndex() != want {
		return fmt.Errorf("account key at depth %d index %d is not the "+
			"account of key family %d", account.Depth(),
			account.ChildIndex(), family)
	}

	r.mu.Lock()
	r.accounts[family] = account
	r.mu.Unlock()

	return nil
}

// CoinType returns the coin type of the ring.
func (r *HDKeyRing) CoinType() uint32 {
	return r.coinType
}

// account returns the account key of family, deriving it from the root on
// first use.
func (r *HDKeyRing) account(family KeyFamily) (*hdkey.ExtendedKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[family]; ok {
		return account, nil
	}

	if r.root == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, family)
	}

	// The account level is hardened.
	if !r.root.IsPrivate() {
		return nil, fmt.Errorf("%w: account of key family %d",
			hdkey.ErrNotPrivate, family)
	}

	path, err := hdpath.KeyFamily(r.coinType, uint32(family))
	if err != nil {
		return nil, err
	}

	account, err := r.root.DerivePath(path, r.opts...)
	if err != nil {
		return nil, err
	}

	log.Debugf("Derived account %v for key family %d", path, family)

	r.accounts[family] = account

	return account, nil
}

// branch returns the external branch key of family.
func (r *HDKeyRing) branch(family KeyFamily) (*hdkey.ExtendedKey, error) {
	account, err := r.account(family)
	if err != nil {
		return nil, err
	}

	return account.Child(ExternalBranch, r.opts...)
}

// deriveKey returns the extended key a locator points to.
func (r *HDKeyRing) deriveKey(keyLoc KeyLocator) (*hdkey.ExtendedKey, error) {
	if keyLoc.Index >= hdpath.HardenedKeyStart {
		return nil, fmt.Errorf("%w: key index %d", hdpath.ErrIndexOutOfRange,
			keyLoc.Index)
	}

	branch, err := r.branch(keyLoc.Family)
	if err != nil {
		return nil, err
	}

	return branch.Child(keyLoc.Index, r.opts...)
}

// DeriveKey attempts to derive an arbitrary key specified by the passed
// KeyLocator.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (r *HDKeyRing) DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error) {
	key, err := r.deriveKey(keyLoc)
	if err != nil {
		return KeyDescriptor{}, err
	}

	pubKey, err := key.ECPubKey()
	if err != nil {
		return KeyDescriptor{}, err
	}

	return KeyDescriptor{
		KeyLocator: keyLoc,
		PubKey:     pubKey,
	}, nil
}

// DerivePrivKey attempts to derive the private key that corresponds to the
// passed key descriptor. If the public key is set but the index is not, then
// this method will perform an in-order scan over the key family, with a max
// of MaxKeyRangeScan keys.
//
// NOTE: This is part of the keychain.SecretKeyRing interface.
func (r *HDKeyRing) DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey,
	error) {

	branch, err := r.branch(keyDesc.Family)
	if err != nil {
		return nil, err
	}
	if !branch.IsPrivate() {
		return nil, hdkey.ErrNotPrivate
	}

	// If the public key isn't set or they have a non-zero index, then
	// we know that the caller has the full locator.
	if keyDesc.PubKey == nil || keyDesc.Index != 0 {
		if keyDesc.Index >= hdpath.HardenedKeyStart {
			return nil, fmt.Errorf("%w: key index %d",
				hdpath.ErrIndexOutOfRange, keyDesc.Index)
		}

		key, err := branch.Child(keyDesc.Index, r.opts...)
		if err != nil {
			return nil, err
		}

		privKey, err := key.ECPrivKey()
		if err != nil {
			return nil, err
		}

		// If the public key was given as well it has to match.
		if keyDesc.PubKey != nil &&
			!privKey.PubKey().IsEqual(keyDesc.PubKey) {

			return nil, ErrCannotDerivePrivKey
		}

		return privKey, nil
	}

	// Otherwise we only know the family, so we'll scan the branch for a
	// key matching the target public key.
	target := keyDesc.PubKey.SerializeCompressed()
	for i := uint32(0); i < MaxKeyRangeScan; i++ {
		key, err := branch.Child(i, r.opts...)
		if err != nil {
			return nil, err
		}

		pub := key.PubKeyBytes()
		if !bytes.Equal(pub[:], target) {
			continue
		}

		log.Tracef("Found key of family %d at index %d", keyDesc.Family,
			key.ChildIndex())

		return key.ECPrivKey()
	}

	return nil, ErrCannotDerivePrivKey
}

// ECDH performs a scalar multiplication (ECDH-like operation) between the
// target key descriptor and remote public key. The output returned will be
// the sha256 of the resulting shared point serialized in compressed format. If
// k is our private key, and P is the public key, we perform the following
// operation:
//
//	sx := k*P
//	s := sha256(sx.SerializeCompressed())
//
// NOTE: This is part of the keychain.ECDHRing interface.
func (r *HDKeyRing) ECDH(keyDesc KeyDescriptor,
	pub *btcec.PublicKey) ([32]byte, error) {

	privKey, err := r.DerivePrivKey(keyDesc)
	if err != nil {
		return [32]byte{}, err
	}

	return sharedSecret(privKey, pub), nil
}

// privKey derives the private key of a locator.
func (r *HDKeyRing) privKey(keyLoc KeyLocator) (*btcec.PrivateKey, error) {
	return r.DerivePrivKey(KeyDescriptor{KeyLocator: keyLoc})
}

// SignMessage signs the given message, single or double SHA256 hashing it
// first, with the private key described in the key locator.
//
// NOTE: This is part of the keychain.MessageSignerRing interface.
func (r *HDKeyRing) SignMessage(keyLoc KeyLocator, msg []byte,
	doubleHash bool) (*ecdsa.Signature, error) {

	privKey, err := r.privKey(keyLoc)
	if err != nil {
		return nil, fmt.Errorf("unable to derive private key: %w", err)
	}

	return ecdsa.Sign(privKey, messageDigest(msg, doubleHash)), nil
}

// SignMessageCompact signs the given message, single or double SHA256 hashing
// it first, with the private key described in the key locator and returns the
// signature in the compact, public key recoverable format.
//
// NOTE: This is part of the keychain.MessageSignerRing interface.
func (r *HDKeyRing) SignMessageCompact(keyLoc KeyLocator, msg []byte,
	doubleHash bool) ([]byte, error) {

	privKey, err := r.privKey(keyLoc)
	if err != nil {
		return nil, fmt.Errorf("unable to derive private key: %w", err)
	}

	return ecdsa.SignCompact(
		privKey, messageDigest(msg, doubleHash), true,
	), nil
}

// SignMessageSchnorr signs the given message, single or double SHA256 hashing
// it first, with the private key described in the key locator and the
// optional Taproot tweak applied to the private key. If a tag is given the
// message is hashed with the BIP340 tagged hash of that tag instead.
//
// NOTE: This is part of the keychain.MessageSignerRing interface.
func (r *HDKeyRing) SignMessageSchnorr(keyLoc KeyLocator, msg []byte,
	doubleHash bool, taprootTweak []byte,
	tag []byte) (*schnorr.Signature, error) {

	privKey, err := r.privKey(keyLoc)
	if err != nil {
		return nil, fmt.Errorf("unable to derive private key: %w", err)
	}

	if len(taprootTweak) > 0 {
		privKey = txscript.TweakTaprootPrivKey(*privKey, taprootTweak)
	}

	var digest []byte
	switch {
	case len(tag) > 0 && doubleHash:
		return nil, errors.New("tagged hashes cannot be double hashed")

	case len(tag) > 0:
		digest = chainhash.TaggedHash(tag, msg)[:]

	default:
		digest = messageDigest(msg, doubleHash)
	}

	return schnorr.Sign(privKey, digest)
}

// A compile time check to ensure that HDKeyRing implements the SecretKeyRing
// interface.
var _ SecretKeyRing = (*HDKeyRing)(nil)
