package hdkey

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ravenlabs/hdkeys/chainparams"
)

// ToHDKeychain converts the key to the btcutil hdkeychain representation, for
// use with code written against that package.
func (k *ExtendedKey) ToHDKeychain() *hdkeychain.ExtendedKey {
	version := k.Version()
	parentFP := k.parentFP
	chainCode := k.chainCode

	var keyData []byte
	if k.privKey != nil {
		privKey := *k.privKey
		keyData = privKey[:]
	} else {
		pub := k.PubKeyBytes()
		keyData = pub[:]
	}

	return hdkeychain.NewExtendedKey(
		version[:], keyData, chainCode[:], parentFP[:], k.depth,
		k.childIndex, k.IsPrivate(),
	)
}

// FromHDKeychain converts a btcutil hdkeychain key. Its version bytes are
// resolved against nets as in NewKeyFromString.
func FromHDKeychain(key *hdkeychain.ExtendedKey,
	nets ...*chainparams.Network) (*ExtendedKey, error) {

	fields := Fields{
		Depth:      key.Depth(),
		ChildIndex: key.ChildIndex(),
		ChainCode:  key.ChainCode(),
	}
	binary.BigEndian.PutUint32(
		fields.ParentFingerprint[:], key.ParentFingerprint(),
	)

	var version [4]byte
	copy(version[:], key.Version())

	net, private, err := resolveVersion(version, nets)
	if err != nil {
		return nil, err
	}
	if private != key.IsPrivate() {
		return nil, ErrKeyKindMismatch
	}
	fields.Net = net

	if private {
		privKey, err := key.ECPrivKey()
		if err != nil {
			return nil, err
		}
		keyBytes := privKey.Key.Bytes()
		fields.PrivKey = keyBytes[:]
	} else {
		pubKey, err := key.ECPubKey()
		if err != nil {
			return nil, err
		}
		fields.PubKey = pubKey.SerializeCompressed()
	}

	return NewKeyFromFields(fields)
}
