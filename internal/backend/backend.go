// Package backend defines the storage contract every object-store
// binding must satisfy: raw key/value access for objects, a small
// state bucket for singleton values like HEAD, a reflog, a sorted
// range scan for prefix resolution, and a transaction envelope.
package backend

import (
	"errors"

	"github.com/forgevault/forgevault/internal/cas"
)

// ErrNotFound is returned by lookups that find nothing, distinguishing
// a missing key from a storage-layer failure.
var ErrNotFound = errors.New("backend: not found")

// Reflog is one entry appended to a ref's history: the ref it moved,
// the identifier it now points at, and the remote it came from, if
// any (empty Remote means local).
type Reflog struct {
	RefName string
	Key     cas.Identifier
	Remote  string
}

// Backend is the storage contract. Implementations live in
// subpackages (memory, boltstore); callers normally reach it through
// internal/engine rather than directly.
type Backend interface {
	// RawGet returns the bytes stored under key, or ErrNotFound.
	RawGet(key []byte) ([]byte, error)
	// RawPut stores data under key, overwriting any existing value.
	RawPut(key, data []byte) error
	// RawExists reports whether key has a stored value.
	RawExists(key []byte) (bool, error)

	// RawGetState and RawPutState manage a small separate bucket for
	// singleton values (HEAD, schema version) that are not themselves
	// content-addressed.
	RawGetState(key []byte) ([]byte, bool, error)
	RawPutState(key, data []byte) error

	// RawBetween returns every stored value whose key lies in
	// [start, end) in key order. A nil end means "to the end of the
	// keyspace", used for open-ended prefix scans.
	RawBetween(start, end []byte) ([][]byte, error)

	// ReflogPush appends one entry to the named ref's history.
	ReflogPush(entry Reflog) error
	// ReflogGet returns the most recent identifier recorded for
	// refname (and remote, if set), or ErrNotFound.
	ReflogGet(refname, remote string) (cas.Identifier, error)
	// ReflogWalk returns every identifier ever recorded for refname,
	// newest first.
	ReflogWalk(refname, remote string) ([]cas.Identifier, error)

	// Begin starts a transaction; Commit or Rollback ends it. Backends
	// that have no notion of transactions may treat these as no-ops.
	Begin() error
	Commit() error
	Rollback() error

	// Close releases any resources (file handles, connections) held
	// by the backend.
	Close() error
}

const headStateKey = "HEAD"

// Put hashes data and stores it under the resulting identifier,
// deduplicating automatically: storing the same bytes twice is a no-op
// the second time.
func Put(b Backend, data []byte) (cas.Identifier, error) {
	id := cas.Sum(data)
	if err := b.RawPut(id.Wire(), data); err != nil {
		return cas.Identifier{}, err
	}
	return id, nil
}

// Get fetches the raw bytes stored under id.
func Get(b Backend, id cas.Identifier) ([]byte, error) {
	return b.RawGet(id.Wire())
}

// GetHead returns the refname HEAD currently points at.
func GetHead(b Backend) (string, bool, error) {
	data, ok, err := b.RawGetState([]byte(headStateKey))
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

// PutHead points HEAD at refname, replacing whatever it named before.
func PutHead(b Backend, refname string) error {
	return b.RawPutState([]byte(headStateKey), []byte(refname))
}
