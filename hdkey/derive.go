package hdkey

import (
	"encoding/binary"
	"math/big"

	"github.com/ravenlabs/hdkeys/hdpath"
)

// Mode selects how the private key is serialized into the HMAC input of a
// hardened step.
type Mode uint8

const (
	// Compliant serializes the private key as exactly 32 bytes, as BIP32
	// requires.
	Compliant Mode = iota

	// Legacy serializes the private key without leading zero bytes. It
	// only differs from Compliant for private keys below 2^248 and exists
	// to recover keys derived by wallets that shipped this bug.
	Legacy
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case Compliant:
		return "compliant"
	case Legacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// DefaultMaxRetries is the default number of times an invalid child is
// skipped before giving up.
const DefaultMaxRetries = 1 << 20

// deriveOptions holds the knobs of a single derivation.
type deriveOptions struct {
	mode       Mode
	prims      Primitives
	maxRetries uint32
}

// DeriveOption modifies the way a derivation is carried out.
type DeriveOption func(*deriveOptions)

// WithMode sets the derivation mode.
func WithMode(mode Mode) DeriveOption {
	return func(o *deriveOptions) {
		o.mode = mode
	}
}

// WithLegacyDerivation is shorthand for WithMode(Legacy).
func WithLegacyDerivation() DeriveOption {
	return WithMode(Legacy)
}

// WithPrimitives replaces the curve and hash operations used to derive.
func WithPrimitives(prims Primitives) DeriveOption {
	return func(o *deriveOptions) {
		o.prims = prims
	}
}

// WithMaxRetries bounds how many consecutive invalid children are skipped.
func WithMaxRetries(n uint32) DeriveOption {
	return func(o *deriveOptions) {
		o.maxRetries = n
	}
}

func newDeriveOptions(opts []DeriveOption) *deriveOptions {
	o := &deriveOptions{
		mode:       Compliant,
		prims:      DefaultPrimitives,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// nextIndex returns the index after i within the same half of the index
// space, wrapping from 2^31-1 to 0 and from 2^32-1 to 2^31.
func nextIndex(i uint32) uint32 {
	return (i+1)&^HardenedKeyStart | i&HardenedKeyStart
}

// Child returns a derived child extended key at the given index.
//
// When this extended key is a private extended key (as determined by the
// IsPrivate function), a private extended key will be derived. Otherwise, the
// derived extended key will also be a public extended key.
//
// When the index is greater than or equal to the HardenedKeyStart constant,
// the derived extended key will be a hardened extended key. It is only
// possible to derive a hardened extended key from a private extended key.
// Consequently, this function will return ErrHardenedFromNeutered if a
// hardened child extended key is requested from a public extended key.
//
// A hardened extended key is useful since, as previously mentioned, it
// requires a parent private extended key to derive. In other words, normal
// child extended public keys can be derived from a parent public extended
// key (no knowledge of the parent private key) whereas hardened extended keys
// may not be.
//
// NOTE: There is an extremely small chance (< 1 in 2^127) the specific child
// index does not derive to a usable child. In that case the next index in the
// same half of the index space is tried, and the returned key carries the
// index that succeeded.
func (k *ExtendedKey) Child(i uint32, opts ...DeriveOption) (*ExtendedKey,
	error) {

	return k.child(i, newDeriveOptions(opts))
}

func (k *ExtendedKey) child(i uint32, o *deriveOptions) (*ExtendedKey, error) {
	// Prevent derivation of children beyond the max allowed depth.
	if k.depth == maxDepth {
		return nil, ErrMaxDepthExceeded
	}

	// There are four scenarios that could happen here:
	// 1) Private extended key -> Hardened child private extended key
	// 2) Private extended key -> Non-hardened child private extended key
	// 3) Public extended key -> Non-hardened child public extended key
	// 4) Public extended key -> Hardened child public extended key (INVALID!)
	isChildHardened := i >= HardenedKeyStart
	if !k.IsPrivate() && isChildHardened {
		return nil, ErrHardenedFromNeutered
	}

	parentPub, err := k.pubKeyBytes(o.prims)
	if err != nil {
		return nil, err
	}
	parentFP := fingerprintOf(parentPub, o.prims)

	index := i
	for attempt := uint32(0); ; attempt++ {
		ilr := o.prims.HMACSHA512(
			k.chainCode[:], k.hmacData(index, parentPub, o.mode),
		)

		var il, childChainCode [32]byte
		copy(il[:], ilr[:32])
		copy(childChainCode[:], ilr[32:])

		child := &ExtendedKey{
			net:        k.net,
			depth:      k.depth + 1,
			parentFP:   parentFP,
			childIndex: index,
			chainCode:  childChainCode,
		}

		// Private case: childKey = parse256(Il) + parentKey.
		// Public case: childKey = point(parse256(Il)) + parentKey.
		var ok bool
		if k.privKey != nil {
			var childKey [32]byte
			childKey, ok = o.prims.ScalarAdd(&il, k.privKey)
			child.privKey = &childKey
		} else {
			var childKey [33]byte
			childKey, ok = o.prims.PointAdd(&il, &parentPub)
			child.pubKey.Store(&childKey)
		}
		if ok {
			return child, nil
		}

		if attempt == o.maxRetries {
			log.Errorf("No valid child of %x found in %d attempts "+
				"starting at index %d", parentFP, attempt+1, i)

			return nil, ErrRetryExhausted
		}

		next := nextIndex(index)
		log.Debugf("Child %d of %x is invalid, trying %d", index,
			parentFP, next)

		index = next
	}
}

// hmacData builds the HMAC-SHA512 message for the child at index.
func (k *ExtendedKey) hmacData(index uint32, parentPub [33]byte,
	mode Mode) []byte {

	var data []byte
	switch {
	// Hardened children use the private key:
	//   0x00 || ser256(parentKey) || ser32(i)
	case index >= HardenedKeyStart && mode == Legacy:
		// The legacy encoding drops the leading zero bytes of the key,
		// which makes the message shorter than 37 bytes for about one
		// key in 256.
		keyBytes := new(big.Int).SetBytes(k.privKey[:]).Bytes()

		data = make([]byte, 0, 1+len(keyBytes)+4)
		data = append(data, 0x00)
		data = append(data, keyBytes...)

	case index >= HardenedKeyStart:
		data = make([]byte, 0, 1+32+4)
		data = append(data, 0x00)
		data = append(data, k.privKey[:]...)

	// Normal children use the public key:
	//   serP(point(parentKey)) || ser32(i)
	default:
		data = make([]byte, 0, 33+4)
		data = append(data, parentPub[:]...)
	}

	return binary.BigEndian.AppendUint32(data, index)
}

// Neuter returns a new extended public key from this extended key. The same
// extended key will be returned unaltered if it is already an extended public
// key.
//
// As the name implies, an extended public key does not have access to the
// private key, so it is not capable of signing transactions or deriving
// child extended private keys. However, it is capable of deriving further
// child extended public keys.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	if !k.IsPrivate() {
		return k
	}

	pub := k.PubKeyBytes()
	neutered := &ExtendedKey{
		net:        k.net,
		depth:      k.depth,
		parentFP:   k.parentFP,
		childIndex: k.childIndex,
		chainCode:  k.chainCode,
	}
	neutered.pubKey.Store(&pub)

	return neutered
}

// DerivePath applies every step of path in order, starting at k. The root
// token of an absolute path refers to k itself, and an M root only forbids
// hardened steps: the result is private whenever k is. A failing step aborts
// the derivation with a *DeriveError naming the step.
func (k *ExtendedKey) DerivePath(path hdpath.Path,
	opts ...DeriveOption) (*ExtendedKey, error) {

	o := newDeriveOptions(opts)

	key := k
	for pos, step := range path.Steps {
		if step.Index >= HardenedKeyStart {
			return nil, &DeriveError{
				Pos:  pos,
				Step: step,
				Err:  hdpath.ErrIndexOutOfRange,
			}
		}
		if step.Hardened && path.Root == hdpath.RootPublic {
			return nil, &DeriveError{
				Pos:  pos,
				Step: step,
				Err:  hdpath.ErrHardenedPublicRoot,
			}
		}

		child, err := key.child(step.ChildIndex(), o)
		if err != nil {
			return nil, &DeriveError{Pos: pos, Step: step, Err: err}
		}
		key = child
	}

	log.Tracef("Derived %v (%v) at depth %d", path, o.mode, key.depth)

	return key, nil
}

// Derive parses path and derives the key it names, see DerivePath.
func (k *ExtendedKey) Derive(path string,
	opts ...DeriveOption) (*ExtendedKey, error) {

	parsed, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}

	return k.DerivePath(parsed, opts...)
}
