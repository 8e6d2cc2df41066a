// Package cas implements the tagged content identifier used throughout
// the object store: a hash-algorithm discriminant plus a digest, with
// wire, user, and prefix serial forms.
package cas

import (
	"errors"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/forgevault/forgevault/internal/bitstring"
)

// Algo is the hash-algorithm discriminant carried by every Identifier.
type Algo byte

// Blake3B is the only algorithm tag defined by this store: BLAKE3, 256-bit.
const Blake3B Algo = 1

func (a Algo) letter() (byte, bool) {
	switch a {
	case Blake3B:
		return 'b', true
	default:
		return 0, false
	}
}

func algoFromLetter(c byte) (Algo, bool) {
	switch c {
	case 'b':
		return Blake3B, true
	default:
		return 0, false
	}
}

// DigestSize is the length in bytes of a BLAKE3-256 digest.
const DigestSize = 32

// Identifier is a tagged 256-bit digest: the persistent, content-derived
// key under which every object is stored.
type Identifier struct {
	algo   Algo
	digest [32]byte
}

// Sum computes the Identifier of data under the BLAKE3 algorithm.
func Sum(data []byte) Identifier {
	return Identifier{algo: Blake3B, digest: blake3.Sum256(data)}
}

// FromDigest builds an Identifier from an already-computed digest.
func FromDigest(algo Algo, digest [32]byte) Identifier {
	return Identifier{algo: algo, digest: digest}
}

// Digest returns the raw 32-byte digest, independent of its tag.
func (id Identifier) Digest() [32]byte { return id.digest }

// Algo returns the hash-algorithm tag.
func (id Identifier) Algo() Algo { return id.algo }

// Equal reports whether two identifiers have byte-equal wire forms.
func (id Identifier) Equal(other Identifier) bool {
	return id.algo == other.algo && id.digest == other.digest
}

// IsZero reports whether id is the zero value (no identifier set).
func (id Identifier) IsZero() bool {
	return id.algo == 0 && id.digest == [32]byte{}
}

// Wire renders the wire/storage form: one tag byte followed by the digest.
func (id Identifier) Wire() []byte {
	out := make([]byte, 1+DigestSize)
	out[0] = byte(id.algo)
	copy(out[1:], id.digest[:])
	return out
}

// String renders the user form: an ASCII letter tag followed by lowercase
// base32 of the digest.
func (id Identifier) String() string {
	letter, ok := id.algo.letter()
	if !ok {
		return fmt.Sprintf("<unknown-algo-%d>", id.algo)
	}
	return string(letter) + bitstring.Encode(id.digest[:])
}

// Errors returned by Parse and ParseWire.
var (
	ErrEmpty             = errors.New("cas: empty identifier")
	ErrWrongLength       = errors.New("cas: wrong identifier length")
	ErrInvalidIdentifier = errors.New("cas: invalid identifier syntax")
)

// UnknownAlgorithmError reports an unrecognized hash-algorithm tag.
type UnknownAlgorithmError struct {
	Tag byte
}

func (e UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("cas: unknown algorithm tag %q", e.Tag)
}

// Parse parses the user form of an identifier. It returns an exact
// Identifier only when the decoded digest is a full 256 bits; shorter
// input should instead go through ParsePrefix. Both share the same
// decoding (parsePartial); this function rejects a result that isn't
// full length.
func Parse(s string) (Identifier, error) {
	id, bits, err := parsePartial(s)
	if err != nil {
		return Identifier{}, err
	}
	if bits.Len() != DigestSize*8 {
		return Identifier{}, ErrWrongLength
	}
	return id, nil
}

// parsePartial dispatches on the tag letter and base32-decodes the
// remainder with max_bits = 8*DigestSize, returning both the
// best-effort Identifier (digest zero-padded from the decoded bits) and
// the decoded Bits so the caller can tell an exact identifier from a
// prefix.
func parsePartial(s string) (Identifier, bitstring.Bits, error) {
	if len(s) == 0 {
		return Identifier{}, bitstring.Bits{}, ErrEmpty
	}
	algo, ok := algoFromLetter(s[0])
	if !ok {
		return Identifier{}, bitstring.Bits{}, UnknownAlgorithmError{Tag: s[0]}
	}
	rest := s[1:]
	if len(rest) == 0 {
		return Identifier{}, bitstring.Bits{}, ErrEmpty
	}
	bits, err := bitstring.Decode(rest, DigestSize*8)
	if err != nil {
		return Identifier{}, bitstring.Bits{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	var digest [32]byte
	copy(digest[:], bits.Bytes())
	return Identifier{algo: algo, digest: digest}, bits, nil
}

// ParsePrefix parses a (possibly partial) user-form string, returning the
// hash-algorithm tag and the decoded bit-prefix. Used by the prefix
// resolver to build a [start, end) wire-form range.
func ParsePrefix(s string) (Algo, bitstring.Bits, error) {
	_, bits, err := parsePartial(s)
	if err != nil {
		return 0, bitstring.Bits{}, err
	}
	algo, _ := algoFromLetter(s[0])
	return algo, bits, nil
}

// ParseWire parses the wire/storage form: one tag byte then the digest.
func ParseWire(b []byte) (Identifier, error) {
	if len(b) == 0 {
		return Identifier{}, ErrEmpty
	}
	algo := Algo(b[0])
	if algo != Blake3B {
		return Identifier{}, UnknownAlgorithmError{Tag: b[0]}
	}
	if len(b) != 1+DigestSize {
		return Identifier{}, ErrWrongLength
	}
	var digest [32]byte
	copy(digest[:], b[1:])
	return Identifier{algo: algo, digest: digest}, nil
}
