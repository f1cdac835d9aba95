package hdkey

import (
	"encoding/binary"
	"fmt"

	"github.com/ravenlabs/hdkeys/chainparams"
)

const (
	// SerializedKeyLen is the length of a serialized public or private
	// extended key.
	SerializedKeyLen = 4 + 1 + 4 + 4 + 32 + 33 // 78 bytes

	// checksumLen is the length of the checksum appended to the text form.
	checksumLen = 4
)

// Serialize returns the 78-byte binary form of the key:
//
//	version (4) || depth (1) || parent fingerprint (4) ||
//	child index (4) || chain code (32) || key data (33)
//
// where the key data is 0x00 followed by the private scalar for private keys
// and the compressed public key otherwise.
func (k *ExtendedKey) Serialize() [SerializedKeyLen]byte {
	var out [SerializedKeyLen]byte

	version := k.Version()
	copy(out[0:4], version[:])
	out[4] = k.depth
	copy(out[5:9], k.parentFP[:])
	binary.BigEndian.PutUint32(out[9:13], k.childIndex)
	copy(out[13:45], k.chainCode[:])

	if k.privKey != nil {
		out[45] = 0x00
		copy(out[46:78], k.privKey[:])
	} else {
		pub := k.PubKeyBytes()
		copy(out[45:78], pub[:])
	}

	return out
}

// String returns the extended key as a human-readable Base58Check string.
func (k *ExtendedKey) String() string {
	payload := k.Serialize()
	checksum := DefaultPrimitives.Checksum(payload[:])

	serialized := make([]byte, 0, SerializedKeyLen+checksumLen)
	serialized = append(serialized, payload[:]...)
	serialized = append(serialized, checksum[:]...)

	return DefaultPrimitives.Base58Encode(serialized)
}

// MarshalBinary returns the 78-byte serialization.
func (k *ExtendedKey) MarshalBinary() ([]byte, error) {
	payload := k.Serialize()
	return payload[:], nil
}

// MarshalText returns the Base58Check string.
func (k *ExtendedKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a Base58Check string into k, resolving the version
// against the default registry. It must only be called on a zero key.
func (k *ExtendedKey) UnmarshalText(text []byte) error {
	decoded, err := NewKeyFromString(string(text))
	if err != nil {
		return err
	}

	k.assign(decoded)

	return nil
}

// assign copies every field of src into the zero key k.
func (k *ExtendedKey) assign(src *ExtendedKey) {
	k.net = src.net
	k.depth = src.depth
	k.parentFP = src.parentFP
	k.childIndex = src.childIndex
	k.chainCode = src.chainCode
	k.privKey = src.privKey
	k.pubKey.Store(src.pubKey.Load())
}

// NewKeyFromString returns a new extended key instance from a Base58Check
// encoded extended key. The version bytes are resolved against nets in
// order, or against the default registry when none are given. Since several
// networks share version bytes, passing the expected network is the only way
// to decode e.g. a Ravencoin xprv as Ravencoin.
func NewKeyFromString(key string, nets ...*chainparams.Network) (*ExtendedKey,
	error) {

	decoded := DefaultPrimitives.Base58Decode(key)
	if len(decoded) == 0 && len(key) != 0 {
		return nil, ErrInvalidBase58
	}

	// The base58-decoded extended key must consist of a serialized payload
	// plus an additional 4 bytes for the checksum.
	if len(decoded) != SerializedKeyLen+checksumLen {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLen,
			len(decoded))
	}

	payload := decoded[:SerializedKeyLen]
	var checksum [checksumLen]byte
	copy(checksum[:], decoded[SerializedKeyLen:])

	if DefaultPrimitives.Checksum(payload) != checksum {
		return nil, ErrBadChecksum
	}

	return NewKeyFromBytes(payload, nets...)
}

// NewKeyFromBytes parses the 78-byte serialization of an extended key. The
// version bytes are resolved as in NewKeyFromString.
func NewKeyFromBytes(payload []byte, nets ...*chainparams.Network) (
	*ExtendedKey, error) {

	if len(payload) != SerializedKeyLen {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLen,
			len(payload))
	}

	var version [4]byte
	copy(version[:], payload[0:4])

	net, private, err := resolveVersion(version, nets)
	if err != nil {
		return nil, err
	}

	k := &ExtendedKey{
		net:        net,
		depth:      payload[4],
		childIndex: binary.BigEndian.Uint32(payload[9:13]),
	}
	copy(k.parentFP[:], payload[5:9])
	copy(k.chainCode[:], payload[13:45])

	if err := checkRoot(k); err != nil {
		return nil, err
	}

	// The key data is a private key if it starts with 0x00. Serialized
	// compressed pubkeys either start with 0x02 or 0x03.
	keyData := payload[45:78]
	if (keyData[0] == 0x00) != private {
		return nil, fmt.Errorf("%w: version %x, key data prefix %#02x",
			ErrKeyKindMismatch, version, keyData[0])
	}

	if private {
		var scalar [32]byte
		copy(scalar[:], keyData[1:])
		if !DefaultPrimitives.ValidScalar(&scalar) {
			return nil, ErrInvalidPrivKey
		}
		k.privKey = &scalar

		return k, nil
	}

	var pub [33]byte
	copy(pub[:], keyData)
	if !DefaultPrimitives.ValidPubKey(&pub) {
		return nil, ErrInvalidPubKey
	}
	k.pubKey.Store(&pub)

	return k, nil
}

// resolveVersion picks the first candidate network that knows the version.
func resolveVersion(version [4]byte,
	nets []*chainparams.Network) (*chainparams.Network, bool, error) {

	if len(nets) == 0 {
		nets = chainparams.ByVersion(version)
	}

	for _, net := range nets {
		if private, ok := net.HasVersion(version); ok {
			return net, private, nil
		}
	}

	return nil, false, fmt.Errorf("%w: %x", ErrUnknownVersion, version)
}

// SerializedError returns the reason s is not a valid extended key on any of
// nets, or nil if it is one.
func SerializedError(s string, nets ...*chainparams.Network) error {
	_, err := NewKeyFromString(s, nets...)
	return err
}

// IsValidSerialized reports whether s is a valid extended key on any of
// nets, or on any registered network when none are given.
func IsValidSerialized(s string, nets ...*chainparams.Network) bool {
	return SerializedError(s, nets...) == nil
}
