package hdkey

import (
	"errors"
	"fmt"

	"github.com/ravenlabs/hdkeys/hdpath"
)

// Error kinds. Every error returned by this package wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	// ErrMalformedSeed is the kind of every error caused by a seed that
	// cannot produce a master key.
	ErrMalformedSeed = errors.New("malformed seed")

	// ErrMalformedSerialization is the kind of every error caused by
	// extended key bytes, text or fields that do not describe a valid
	// key.
	ErrMalformedSerialization = errors.New("malformed extended key")

	// ErrMalformedPath is the kind of every derivation path error. It is
	// shared with the hdpath package.
	ErrMalformedPath = hdpath.ErrMalformedPath

	// ErrHardenedFromNeutered describes an error in which the caller
	// attempted to derive a hardened extended key from a public key.
	ErrHardenedFromNeutered = errors.New("cannot derive a hardened key " +
		"from a public key")

	// ErrRetryExhausted is returned when no valid child was found within
	// the configured number of retries. With the default limit this
	// cannot happen in practice.
	ErrRetryExhausted = errors.New("exhausted retries looking for a " +
		"valid child key")

	// ErrMaxDepthExceeded describes an error in which the caller attempted
	// to derive more than 255 keys from a root key.
	ErrMaxDepthExceeded = errors.New("cannot derive a key with more than " +
		"255 indices in its path")

	// ErrNotPrivate describes an error in which the caller attempted to
	// extract a private key from a public extended key.
	ErrNotPrivate = errors.New("unable to create private keys from a " +
		"public extended key")
)

// Specific errors, each wrapping one of the kinds above.
var (
	// ErrInvalidSeedLen describes an error in which the provided seed or
	// seed length is not in the allowed range.
	ErrInvalidSeedLen = fmt.Errorf("%w: seed length must be between %d "+
		"and %d bits", ErrMalformedSeed, MinSeedBytes*8, MaxSeedBytes*8)

	// ErrUnusableSeed describes an error in which the provided seed is not
	// usable due to the derived key falling outside of the valid range
	// for secp256k1 private keys.
	ErrUnusableSeed = fmt.Errorf("%w: unusable seed", ErrMalformedSeed)

	// ErrInvalidBase58 describes an error in which the text form contains
	// characters outside of the Base58 alphabet.
	ErrInvalidBase58 = fmt.Errorf("%w: invalid base58 encoding",
		ErrMalformedSerialization)

	// ErrInvalidKeyLen describes an error in which the provided serialized
	// key is not the expected length.
	ErrInvalidKeyLen = fmt.Errorf("%w: the provided serialized extended "+
		"key length is invalid", ErrMalformedSerialization)

	// ErrBadChecksum describes an error in which the checksum encoded with
	// a serialized extended key does not match the calculated value.
	ErrBadChecksum = fmt.Errorf("%w: bad extended key checksum",
		ErrMalformedSerialization)

	// ErrUnknownVersion describes version bytes that belong to none of the
	// candidate networks.
	ErrUnknownVersion = fmt.Errorf("%w: unknown extended key version",
		ErrMalformedSerialization)

	// ErrKeyKindMismatch describes key material whose leading byte
	// disagrees with the private or public flag of the version.
	ErrKeyKindMismatch = fmt.Errorf("%w: key material does not match "+
		"the version", ErrMalformedSerialization)

	// ErrInvalidPrivKey describes a private scalar outside [1, n-1].
	ErrInvalidPrivKey = fmt.Errorf("%w: private key out of range",
		ErrMalformedSerialization)

	// ErrInvalidPubKey describes public key bytes that are not a
	// compressed point on the curve.
	ErrInvalidPubKey = fmt.Errorf("%w: invalid public key",
		ErrMalformedSerialization)

	// ErrInvalidChainCode describes a chain code that is not 32 bytes.
	ErrInvalidChainCode = fmt.Errorf("%w: chain code must be 32 bytes",
		ErrMalformedSerialization)

	// ErrInvalidRoot describes a depth zero key with a parent fingerprint
	// or child index.
	ErrInvalidRoot = fmt.Errorf("%w: root key with non-zero parent "+
		"fingerprint or child index", ErrMalformedSerialization)

	// ErrFieldMismatch describes a JSON object whose individual fields
	// disagree with its embedded extended key string.
	ErrFieldMismatch = fmt.Errorf("%w: fields do not match the "+
		"extended key", ErrMalformedSerialization)
)

// DeriveError reports the step of a path at which derivation failed.
type DeriveError struct {
	// Pos is the zero-based index of the failing step.
	Pos int

	// Step is the failing step.
	Step hdpath.Step

	// Err is the failure of the single step.
	Err error
}

// Error returns a human readable description of the failure.
func (e *DeriveError) Error() string {
	return fmt.Sprintf("derivation step %d (%v) failed: %v", e.Pos,
		e.Step, e.Err)
}

// Unwrap returns the failure of the single step.
func (e *DeriveError) Unwrap() error {
	return e.Err
}
