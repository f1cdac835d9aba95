package hdkey

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ravenlabs/hdkeys/chainparams"
)

// Object is the plain object form of an extended key. Fingerprints and the
// checksum are big-endian integers, key material and chain code are hex.
// Exactly one of the private and public pairs is set.
type Object struct {
	Network           string `json:"network"`
	Depth             uint8  `json:"depth"`
	FingerPrint       uint32 `json:"fingerPrint"`
	ParentFingerPrint uint32 `json:"parentFingerPrint"`
	ChildIndex        uint32 `json:"childIndex"`
	ChainCode         string `json:"chainCode"`
	PrivateKey        string `json:"privateKey,omitempty"`
	PublicKey         string `json:"publicKey,omitempty"`
	Checksum          uint32 `json:"checksum"`
	XPrivKey          string `json:"xprivkey,omitempty"`
	XPubKey           string `json:"xpubkey,omitempty"`
}

// Object returns the object form of the key.
func (k *ExtendedKey) Object() Object {
	fp := k.Fingerprint()
	payload := k.Serialize()
	checksum := DefaultPrimitives.Checksum(payload[:])

	obj := Object{
		Network:           k.net.ID(),
		Depth:             k.depth,
		FingerPrint:       binary.BigEndian.Uint32(fp[:]),
		ParentFingerPrint: binary.BigEndian.Uint32(k.parentFP[:]),
		ChildIndex:        k.childIndex,
		ChainCode:         hex.EncodeToString(k.chainCode[:]),
		Checksum:          binary.BigEndian.Uint32(checksum[:]),
	}

	if k.privKey != nil {
		obj.PrivateKey = hex.EncodeToString(k.privKey[:])
		obj.XPrivKey = k.String()
	} else {
		pub := k.PubKeyBytes()
		obj.PublicKey = hex.EncodeToString(pub[:])
		obj.XPubKey = k.String()
	}

	return obj
}

// NewKeyFromObject builds a key from its object form. The individual fields
// are authoritative; the fingerprint, checksum and encoded key are checked
// against them when present.
func NewKeyFromObject(obj Object) (*ExtendedKey, error) {
	net, err := chainparams.ByName(obj.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownVersion, err)
	}

	chainCode, err := hex.DecodeString(obj.ChainCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChainCode, err)
	}

	fields := Fields{
		Net:        net,
		Depth:      obj.Depth,
		ChildIndex: obj.ChildIndex,
		ChainCode:  chainCode,
	}
	binary.BigEndian.PutUint32(
		fields.ParentFingerprint[:], obj.ParentFingerPrint,
	)

	encoded := obj.XPubKey
	switch {
	case obj.PrivateKey != "" && obj.PublicKey != "":
		return nil, fmt.Errorf("%w: both private and public key set",
			ErrFieldMismatch)

	case obj.PrivateKey != "":
		fields.PrivKey, err = hex.DecodeString(obj.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPrivKey, err)
		}
		encoded = obj.XPrivKey

	default:
		fields.PubKey, err = hex.DecodeString(obj.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
		}
	}

	k, err := NewKeyFromFields(fields)
	if err != nil {
		return nil, err
	}

	if obj.FingerPrint != 0 {
		fp := k.Fingerprint()
		if binary.BigEndian.Uint32(fp[:]) != obj.FingerPrint {
			return nil, fmt.Errorf("%w: fingerprint", ErrFieldMismatch)
		}
	}

	if obj.Checksum != 0 {
		payload := k.Serialize()
		checksum := DefaultPrimitives.Checksum(payload[:])
		if binary.BigEndian.Uint32(checksum[:]) != obj.Checksum {
			return nil, ErrBadChecksum
		}
	}

	if encoded != "" {
		decoded, err := NewKeyFromString(encoded, net)
		if err != nil {
			return nil, err
		}
		if !decoded.Equal(k) {
			return nil, fmt.Errorf("%w: encoded key", ErrFieldMismatch)
		}
	}

	return k, nil
}

// MarshalJSON encodes the object form of the key.
func (k *ExtendedKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Object())
}

// UnmarshalJSON decodes the object form into k. It must only be called on a
// zero key.
func (k *ExtendedKey) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedSerialization, err)
	}

	decoded, err := NewKeyFromObject(obj)
	if err != nil {
		return err
	}

	k.assign(decoded)

	return nil
}
