package keychain

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
)

// sharedSecret returns sha256(k*P) with the point serialized in compressed
// format.
func sharedSecret(privKey *btcec.PrivateKey,
	pub *btcec.PublicKey) [32]byte {

	var (
		pubJacobian btcec.JacobianPoint
		s           btcec.JacobianPoint
	)
	pub.AsJacobian(&pubJacobian)

	btcec.ScalarMultNonConst(&privKey.Key, &pubJacobian, &s)
	s.ToAffine()
	sPubKey := btcec.NewPublicKey(&s.X, &s.Y)

	return sha256.Sum256(sPubKey.SerializeCompressed())
}

// NewPubKeyECDH binds keyDesc to the ring that holds its private key.
func NewPubKeyECDH(keyDesc KeyDescriptor, ecdh ECDHRing) *PubKeyECDH {
	return &PubKeyECDH{
		keyDesc: keyDesc,
		ecdh:    ecdh,
	}
}

// PubKeyECDH is a SingleKeyECDH whose private key stays inside a key ring.
type PubKeyECDH struct {
	keyDesc KeyDescriptor
	ecdh    ECDHRing
}

// PubKey returns the public key of the descriptor.
//
// NOTE: This is part of the SingleKeyECDH interface.
func (p *PubKeyECDH) PubKey() *btcec.PublicKey {
	return p.keyDesc.PubKey
}

// ECDH asks the ring for the shared secret with pubKey.
//
// NOTE: This is part of the SingleKeyECDH interface.
func (p *PubKeyECDH) ECDH(pubKey *btcec.PublicKey) ([32]byte, error) {
	return p.ecdh.ECDH(p.keyDesc, pubKey)
}

// PrivKeyECDH is a SingleKeyECDH for a loose private key, e.g. an ephemeral
// one.
type PrivKeyECDH struct {
	PrivKey *btcec.PrivateKey
}

// PubKey returns the public key of the wrapped private key.
//
// NOTE: This is part of the SingleKeyECDH interface.
func (p *PrivKeyECDH) PubKey() *btcec.PublicKey {
	return p.PrivKey.PubKey()
}

// ECDH returns sha256((k*P).SerializeCompressed()) for the wrapped key k.
//
// NOTE: This is part of the SingleKeyECDH interface.
func (p *PrivKeyECDH) ECDH(pub *btcec.PublicKey) ([32]byte, error) {
	return sharedSecret(p.PrivKey, pub), nil
}

var _ SingleKeyECDH = (*PubKeyECDH)(nil)
var _ SingleKeyECDH = (*PrivKeyECDH)(nil)
