// Package memory implements an in-process backend.Backend, useful for
// tests and for the "public store" case where nothing needs to
// outlive the process.
package memory

import (
	"sort"
	"sync"

	"github.com/forgevault/forgevault/internal/backend"
	"github.com/forgevault/forgevault/internal/cas"
)

type reflogKey struct {
	refname string
	remote  string
}

// Backend is a mutex-guarded in-memory implementation of
// backend.Backend. It has no durability: closing or dropping it loses
// everything.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	state   map[string][]byte
	reflogs map[reflogKey][]cas.Identifier
}

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
		state:   make(map[string][]byte),
		reflogs: make(map[reflogKey][]cas.Identifier),
	}
}

func (b *Backend) RawGet(key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[string(key)]
	if !ok {
		return nil, backend.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *Backend) RawPut(key, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.objects[string(key)] = cp
	return nil
}

func (b *Backend) RawExists(key []byte) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[string(key)]
	return ok, nil
}

func (b *Backend) RawGetState(key []byte) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.state[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (b *Backend) RawPutState(key, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.state[string(key)] = cp
	return nil
}

func (b *Backend) RawBetween(start, end []byte) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out [][]byte
	for _, k := range keys {
		if k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			break
		}
		v := b.objects[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		out = append(out, cp)
	}
	return out, nil
}

func (b *Backend) ReflogPush(entry backend.Reflog) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := reflogKey{refname: entry.RefName, remote: entry.Remote}
	b.reflogs[k] = append(b.reflogs[k], entry.Key)
	return nil
}

func (b *Backend) ReflogGet(refname, remote string) (cas.Identifier, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := b.reflogs[reflogKey{refname: refname, remote: remote}]
	if len(entries) == 0 {
		return cas.Identifier{}, backend.ErrNotFound
	}
	return entries[len(entries)-1], nil
}

func (b *Backend) ReflogWalk(refname, remote string) ([]cas.Identifier, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := b.reflogs[reflogKey{refname: refname, remote: remote}]
	out := make([]cas.Identifier, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

// Begin, Commit, and Rollback are no-ops: the map is mutated directly
// and every call above already holds its own lock for the duration of
// the operation.
func (b *Backend) Begin() error    { return nil }
func (b *Backend) Commit() error   { return nil }
func (b *Backend) Rollback() error { return nil }

func (b *Backend) Close() error { return nil }
