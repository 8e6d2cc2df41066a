// Package resolve turns the short strings a user types on a command
// line into exact object identifiers: a full identifier, a bit-prefix
// of one, or a refname (optionally qualified by a remote) resolved
// through the reflog. It never touches the filesystem; all lookups run
// through a backend.Backend.
package resolve

import (
	"fmt"
	"strings"

	"github.com/forgevault/forgevault/internal/backend"
	"github.com/forgevault/forgevault/internal/cas"
)

// Kind discriminates the three ways a search string can resolve.
type Kind int

const (
	// KindExact names a complete identifier.
	KindExact Kind = iota
	// KindRange names a bit-prefix: every identifier whose wire form
	// falls in [Start, End) matches, End == nil meaning open-ended.
	KindRange
	// KindReflog names a ref, optionally qualified by a remote.
	KindReflog
)

// Keyish is a parsed search string, not yet resolved against storage.
type Keyish struct {
	Kind Kind
	Orig string

	// KindExact / KindRange
	Start []byte
	End   []byte

	// KindReflog
	Remote    string
	HasRemote bool
	KeyName   string
}

// ParseError reports a search string resolve could not parse at all.
type ParseError struct {
	Input  string
	Reason string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("resolve: %q is invalid: %s", e.Input, e.Reason)
}

// Parse classifies a search string without touching storage. A string
// containing '/' is a reflog reference; everything else is parsed as a
// (possibly partial) identifier.
func Parse(s string) (Keyish, error) {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		return parseReflog(s, idx), nil
	}
	return parseIdentifier(s)
}

func parseReflog(s string, idx int) Keyish {
	if idx == 0 {
		return Keyish{Kind: KindReflog, Orig: s, KeyName: s[1:]}
	}
	return Keyish{
		Kind:      KindReflog,
		Orig:      s,
		Remote:    s[:idx],
		HasRemote: true,
		KeyName:   s[idx+1:],
	}
}

func parseIdentifier(s string) (Keyish, error) {
	if s == "" {
		return Keyish{}, ParseError{Input: s, Reason: "empty"}
	}
	algo, bits, err := cas.ParsePrefix(s)
	if err != nil {
		return Keyish{}, ParseError{Input: s, Reason: err.Error()}
	}

	if bits.Len() == cas.DigestSize*8 {
		exact := append([]byte{byte(algo)}, bits.Bytes()...)
		return Keyish{Kind: KindExact, Orig: s, Start: exact}, nil
	}

	start := append([]byte{byte(algo)}, bits.Bytes()...)

	if bits.All() {
		return Keyish{Kind: KindRange, Orig: s, Start: start, End: nil}, nil
	}

	incremented, overflow := bits.Increment()
	if overflow {
		return Keyish{Kind: KindRange, Orig: s, Start: start, End: nil}, nil
	}
	end := append([]byte{byte(algo)}, incremented.Bytes()...)
	return Keyish{Kind: KindRange, Orig: s, Start: start, End: end}, nil
}

// NotFoundError reports that a search string matched nothing.
type NotFoundError struct{ Input string }

func (e NotFoundError) Error() string { return fmt.Sprintf("resolve: %q not found", e.Input) }

// AmbiguousError reports that a prefix matched more than one identifier.
type AmbiguousError struct {
	Input     string
	Candidate []cas.Identifier
}

func (e AmbiguousError) Error() string {
	return fmt.Sprintf("resolve: %q is ambiguous (%d matches)", e.Input, len(e.Candidate))
}

// Resolve looks k up against b, returning exactly one identifier or an
// error (NotFoundError, AmbiguousError, or a backend.ErrNotFound for an
// unresolved reflog reference).
func Resolve(b backend.Backend, k Keyish) (cas.Identifier, error) {
	switch k.Kind {
	case KindExact:
		id, err := cas.ParseWire(k.Start)
		if err != nil {
			return cas.Identifier{}, err
		}
		ok, err := b.RawExists(id.Wire())
		if err != nil {
			return cas.Identifier{}, err
		}
		if !ok {
			return cas.Identifier{}, NotFoundError{Input: k.Orig}
		}
		return id, nil

	case KindRange:
		values, err := b.RawBetween(k.Start, k.End)
		if err != nil {
			return cas.Identifier{}, err
		}
		switch len(values) {
		case 0:
			return cas.Identifier{}, NotFoundError{Input: k.Orig}
		case 1:
			return cas.Sum(values[0]), nil
		default:
			ids := make([]cas.Identifier, len(values))
			for i, v := range values {
				ids[i] = cas.Sum(v)
			}
			return cas.Identifier{}, AmbiguousError{Input: k.Orig, Candidate: ids}
		}

	case KindReflog:
		remote := ""
		if k.HasRemote {
			remote = k.Remote
		}
		id, err := b.ReflogGet(k.KeyName, remote)
		if err != nil {
			return cas.Identifier{}, err
		}
		return id, nil

	default:
		return cas.Identifier{}, fmt.Errorf("resolve: unknown keyish kind %d", k.Kind)
	}
}

// minPrefixLen is the smallest user-form length (tag letter plus base32
// digits) ShortestUnique will ever return, per spec.md §4.8's floor of
// ℓ >= 8.
const minPrefixLen = 8

// ShortestUnique returns the shortest user-form prefix of id (as text
// accepted by Parse) that resolves to id and only id against b. It
// grows the prefix one base32 character (5 bits) at a time starting
// from minPrefixLen, falling back to the full identifier if every
// shorter prefix stays ambiguous.
func ShortestUnique(b backend.Backend, id cas.Identifier) (string, error) {
	full := id.String()
	// full is one tag letter followed by base32 digits; try ever-longer
	// digit counts after the tag letter, never fewer than minPrefixLen-1
	// digits (minPrefixLen characters overall).
	for digits := minPrefixLen - 1; digits < len(full)-1; digits++ {
		candidate := full[:1+digits]
		k, err := Parse(candidate)
		if err != nil {
			continue
		}
		resolved, err := Resolve(b, k)
		if err != nil {
			continue
		}
		if resolved.Equal(id) {
			return candidate, nil
		}
	}
	return full, nil
}
