package keychain

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// messageDigest returns the single or double SHA256 of msg.
func messageDigest(msg []byte, doubleHash bool) []byte {
	if doubleHash {
		return chainhash.DoubleHashB(msg)
	}

	return chainhash.HashB(msg)
}

// NewPubKeyMessageSigner wraps the given key of the key ring so it adheres to
// the SingleKeyMessageSigner interface.
func NewPubKeyMessageSigner(pubKey *btcec.PublicKey, keyLoc KeyLocator,
	signer MessageSignerRing) *PubKeyMessageSigner {

	return &PubKeyMessageSigner{
		pubKey:       pubKey,
		keyLoc:       keyLoc,
		digestSigner: signer,
	}
}

// PubKeyMessageSigner is an implementation of the SingleKeyMessageSigner
// interface that signs with a key of a key ring.
type PubKeyMessageSigner struct {
	pubKey       *btcec.PublicKey
	keyLoc       KeyLocator
	digestSigner MessageSignerRing
}

// PubKey returns the public key of the wrapped private key.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PubKeyMessageSigner) PubKey() *btcec.PublicKey {
	return p.pubKey
}

// KeyLocator returns the locator that describes the wrapped private key.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PubKeyMessageSigner) KeyLocator() KeyLocator {
	return p.keyLoc
}

// SignMessage signs the given message, single or double SHA256 hashing it
// first, with the wrapped private key.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PubKeyMessageSigner) SignMessage(message []byte,
	doubleHash bool) (*ecdsa.Signature, error) {

	return p.digestSigner.SignMessage(p.keyLoc, message, doubleHash)
}

// SignMessageCompact signs the given message, single or double SHA256 hashing
// it first, with the wrapped private key and returns the signature in the
// compact, public key recoverable format.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PubKeyMessageSigner) SignMessageCompact(msg []byte,
	doubleHash bool) ([]byte, error) {

	return p.digestSigner.SignMessageCompact(p.keyLoc, msg, doubleHash)
}

// NewPrivKeyMessageSigner wraps a private key that is not necessarily part of
// a key ring.
func NewPrivKeyMessageSigner(privKey *btcec.PrivateKey,
	keyLoc KeyLocator) *PrivKeyMessageSigner {

	return &PrivKeyMessageSigner{
		privKey: privKey,
		keyLoc:  keyLoc,
	}
}

// PrivKeyMessageSigner is an implementation of the SingleKeyMessageSigner
// interface in which we do have the full private key.
type PrivKeyMessageSigner struct {
	keyLoc  KeyLocator
	privKey *btcec.PrivateKey
}

// PubKey returns the public key of the wrapped private key.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PrivKeyMessageSigner) PubKey() *btcec.PublicKey {
	return p.privKey.PubKey()
}

// KeyLocator returns the locator that describes the wrapped private key.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PrivKeyMessageSigner) KeyLocator() KeyLocator {
	return p.keyLoc
}

// SignMessage signs the given message, single or double SHA256 hashing it
// first, with the wrapped private key.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PrivKeyMessageSigner) SignMessage(msg []byte,
	doubleHash bool) (*ecdsa.Signature, error) {

	return ecdsa.Sign(p.privKey, messageDigest(msg, doubleHash)), nil
}

// SignMessageCompact signs the given message, single or double SHA256 hashing
// it first, with the wrapped private key and returns the signature in the
// compact, public key recoverable format.
//
// NOTE: This is part of the SingleKeyMessageSigner interface.
func (p *PrivKeyMessageSigner) SignMessageCompact(msg []byte,
	doubleHash bool) ([]byte, error) {

	return ecdsa.SignCompact(
		p.privKey, messageDigest(msg, doubleHash), true,
	), nil
}

var _ SingleKeyMessageSigner = (*PubKeyMessageSigner)(nil)
var _ SingleKeyMessageSigner = (*PrivKeyMessageSigner)(nil)
