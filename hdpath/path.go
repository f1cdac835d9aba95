package hdpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedKeyStart is the index at which a hardened key starts. Each
// extended key has 2^31 normal child keys and 2^31 hardened child keys, so the
// range for normal child keys is [0, 2^31 - 1] and the range for hardened
// child keys is [2^31, 2^32 - 1].
const HardenedKeyStart uint32 = 0x80000000 // 2^31

var (
	// ErrMalformedPath is the kind shared by every path parsing error.
	ErrMalformedPath = errors.New("malformed derivation path")

	// ErrEmptyStep is returned for a path or path component that is empty,
	// e.g. "m//1" or "m/1/".
	ErrEmptyStep = fmt.Errorf("%w: empty step", ErrMalformedPath)

	// ErrNonNumericStep is returned when a step is not a canonical decimal
	// number with an optional hardened marker.
	ErrNonNumericStep = fmt.Errorf("%w: non-numeric step",
		ErrMalformedPath)

	// ErrIndexOutOfRange is returned when a step's index is 2^31 or
	// larger before the hardened marker is applied.
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range",
		ErrMalformedPath)

	// ErrMisplacedRoot is returned when a root token appears anywhere but
	// at the start of the path.
	ErrMisplacedRoot = fmt.Errorf("%w: misplaced root token",
		ErrMalformedPath)

	// ErrHardenedPublicRoot is returned when a path rooted at M, the
	// public projection of a node, contains a hardened step.
	ErrHardenedPublicRoot = fmt.Errorf("%w: hardened step under public "+
		"root M", ErrMalformedPath)
)

// Error describes a failure to parse one component of a path string.
type Error struct {
	// Path is the full input.
	Path string

	// Pos is the zero-based position of the offending component among the
	// slash separated components of Path, root token included.
	Pos int

	// Component is the offending component.
	Component string

	// Err is the kind of failure. It always wraps ErrMalformedPath.
	Err error
}

// Error returns a human readable description of the parse failure.
func (e *Error) Error() string {
	return fmt.Sprintf("path %q, component %d (%q): %v", e.Path, e.Pos,
		e.Component, e.Err)
}

// Unwrap returns the underlying error kind.
func (e *Error) Unwrap() error {
	return e.Err
}

// Root is the optional leading token of a path.
type Root uint8

const (
	// RootNone marks a relative path, applied to whatever node it is
	// derived from.
	RootNone Root = iota

	// RootPrivate is the "m" root.
	RootPrivate

	// RootPublic is the "M" root. It forbids hardened steps.
	RootPublic
)

// String returns the root token.
func (r Root) String() string {
	switch r {
	case RootPrivate:
		return "m"
	case RootPublic:
		return "M"
	default:
		return ""
	}
}

// Step is a single derivation step: the index below 2^31 plus whether the
// child is hardened.
type Step struct {
	Index    uint32
	Hardened bool
}

// ChildIndex returns the full 32-bit child index of the step, with the top bit
// set for hardened steps.
func (s Step) ChildIndex() uint32 {
	if s.Hardened {
		return s.Index + HardenedKeyStart
	}

	return s.Index
}

// String formats the step the way Parse reads it.
func (s Step) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}

	return strconv.FormatUint(uint64(s.Index), 10)
}

// StepFromChildIndex splits a full 32-bit child index into a step.
func StepFromChildIndex(childIndex uint32) Step {
	return Step{
		Index:    childIndex &^ HardenedKeyStart,
		Hardened: childIndex >= HardenedKeyStart,
	}
}

// Path is a parsed derivation path. Steps are applied in order.
type Path struct {
	Root  Root
	Steps []Step
}

// IsAbsolute reports whether the path carries a root token.
func (p Path) IsAbsolute() bool {
	return p.Root != RootNone
}

// HasHardened reports whether any step of the path is hardened.
func (p Path) HasHardened() bool {
	for _, step := range p.Steps {
		if step.Hardened {
			return true
		}
	}

	return false
}

// ChildIndexes returns the full 32-bit child index of every step.
func (p Path) ChildIndexes() []uint32 {
	indexes := make([]uint32, len(p.Steps))
	for i, step := range p.Steps {
		indexes[i] = step.ChildIndex()
	}

	return indexes
}

// Child returns a copy of the path extended by the given steps.
func (p Path) Child(steps ...Step) Path {
	child := Path{
		Root:  p.Root,
		Steps: make([]Step, 0, len(p.Steps)+len(steps)),
	}
	child.Steps = append(child.Steps, p.Steps...)
	child.Steps = append(child.Steps, steps...)

	return child
}

// String formats the path, e.g. "m/44'/0'/0'/0/0". Hardened steps always use
// the apostrophe marker.
func (p Path) String() string {
	parts := make([]string, 0, len(p.Steps)+1)
	if p.Root != RootNone {
		parts = append(parts, p.Root.String())
	}
	for _, step := range p.Steps {
		parts = append(parts, step.String())
	}

	return strings.Join(parts, "/")
}

// FromChildIndexes builds a path from full 32-bit child indexes.
func FromChildIndexes(root Root, childIndexes ...uint32) Path {
	path := Path{
		Root:  root,
		Steps: make([]Step, len(childIndexes)),
	}
	for i, childIndex := range childIndexes {
		path.Steps[i] = StepFromChildIndex(childIndex)
	}

	return path
}

// Parse parses a derivation path such as "m/44'/0'/0'/0/0", "M/0/1" or the
// relative "0h/1". Hardened steps may be marked with ', h or H. A bare "m" or
// "M" is the empty absolute path. The root tokens "m'" and "M'" written by
// some wallets are read as "m" and "M".
func Parse(path string) (Path, error) {
	components := strings.Split(path, "/")

	fail := func(pos int, err error) (Path, error) {
		return Path{}, &Error{
			Path:      path,
			Pos:       pos,
			Component: components[pos],
			Err:       err,
		}
	}

	var result Path
	switch components[0] {
	case "m", "m'":
		result.Root = RootPrivate
	case "M", "M'":
		result.Root = RootPublic
	}

	first := 0
	if result.Root != RootNone {
		first = 1
	}

	result.Steps = make([]Step, 0, len(components)-first)
	for pos := first; pos < len(components); pos++ {
		step, err := parseStep(components[pos])
		if err != nil {
			return fail(pos, err)
		}

		if step.Hardened && result.Root == RootPublic {
			return fail(pos, ErrHardenedPublicRoot)
		}

		result.Steps = append(result.Steps, step)
	}

	log.Tracef("Parsed path %q into %d steps", path, len(result.Steps))

	return result, nil
}

// parseStep parses a single non-root component.
func parseStep(component string) (Step, error) {
	if component == "" {
		return Step{}, ErrEmptyStep
	}
	switch component {
	case "m", "M", "m'", "M'":
		return Step{}, ErrMisplacedRoot
	}

	var step Step
	digits := component
	switch component[len(component)-1] {
	case '\'', 'h', 'H':
		step.Hardened = true
		digits = component[:len(component)-1]
	}

	if digits == "" {
		return Step{}, ErrNonNumericStep
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Step{}, ErrNonNumericStep
		}
	}

	// Leading zeros would let two spellings name the same child.
	if len(digits) > 1 && digits[0] == '0' {
		return Step{}, ErrNonNumericStep
	}

	index, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || index >= uint64(HardenedKeyStart) {
		return Step{}, ErrIndexOutOfRange
	}
	step.Index = uint32(index)

	return step, nil
}
