// Package engine wires the object model, key schedule, chunker, and a
// storage backend into the store's public CRUD surface: put/get
// objects, put/read whole files, create commits, and move refs.
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/forgevault/forgevault/internal/backend"
	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/filetree"
	"github.com/forgevault/forgevault/internal/keyschedule"
	"github.com/forgevault/forgevault/internal/objects"
)

// Store is a keyed view over a backend.Backend: every object it writes
// is encrypted under the derived AEAD key before being handed to the
// backend, and every object it reads is decrypted before being parsed.
// Its identity is hash(encrypt(encode(object))): the backend's own
// content-addressing hashes the sealed bytes it is given, so the
// ciphertext, not the plaintext encoding, determines an object's key.
type Store struct {
	backend backend.Backend
	aead    keyschedule.AEADKey
	gear    keyschedule.GearTable
	wantC   objects.Codec
	zstd    *codec
}

// Open binds a backend to a repository key and a default compression
// policy for newly written file content. wantCompression selects
// objects.CodecZstd for new FileBlobs when the compressed form is
// smaller; existing objects are read back according to the Codec byte
// they were written with, regardless of this setting.
func Open(b backend.Backend, key keyschedule.RepoKey, wantCompression bool) (*Store, error) {
	zc, err := newCodec()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	wantC := objects.CodecRaw
	if wantCompression {
		wantC = objects.CodecZstd
	}
	return &Store{
		backend: b,
		aead:    key.DeriveAEADKey(),
		gear:    key.DeriveGearTable(),
		wantC:   wantC,
		zstd:    zc,
	}, nil
}

// Close releases the Store's own resources. It does not close the
// underlying backend, which the caller opened and owns.
func (s *Store) Close() error {
	s.zstd.close()
	return nil
}

// PutObject seals and stores o, returning its identifier.
func (s *Store) PutObject(o objects.Object) (cas.Identifier, error) {
	plain, err := objects.Encode(o)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("engine: encode: %w", err)
	}
	sealed, err := s.aead.Seal(plain)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("engine: seal: %w", err)
	}
	return backend.Put(s.backend, sealed)
}

// GetObject fetches and decodes the object stored under id.
func (s *Store) GetObject(id cas.Identifier) (objects.Object, error) {
	sealed, err := backend.Get(s.backend, id)
	if err != nil {
		return objects.Object{}, err
	}
	plain, err := s.aead.Open(sealed)
	if err != nil {
		return objects.Object{}, fmt.Errorf("engine: open: %w", err)
	}
	return objects.Decode(plain)
}

// Exists reports whether id is present in the backend.
func (s *Store) Exists(id cas.Identifier) (bool, error) {
	return s.backend.RawExists(id.Wire())
}

// putBlob is filetree.PutBlob bound to this Store: it compresses the
// chunk if the Store's policy asks for it and the result is actually
// smaller, then stores a FileBlob.
func (s *Store) putBlob(buf []byte, _ objects.Codec) (cas.Identifier, error) {
	useCodec := objects.CodecRaw
	stored := buf
	if s.wantC == objects.CodecZstd && len(buf) > 0 {
		compressed := s.zstd.compress(buf)
		if len(compressed) < len(buf) {
			stored = compressed
			useCodec = objects.CodecZstd
		}
	}
	return s.PutObject(objects.FileBlob(stored, useCodec))
}

// putKeys is filetree.PutKeys bound to this Store.
func (s *Store) putKeys(keys []cas.Identifier) (cas.Identifier, error) {
	return s.PutObject(objects.FileBlobTree(keys))
}

// getForFiletree is filetree.GetObject bound to this Store, transparently
// decompressing any FileBlob whose Codec byte says it needs it.
func (s *Store) getForFiletree(id cas.Identifier) (objects.Object, error) {
	o, err := s.GetObject(id)
	if err != nil {
		return objects.Object{}, err
	}
	if o.Kind == objects.KindFileBlob && o.Codec == objects.CodecZstd {
		plain, err := s.zstd.decompress(o.Buf)
		if err != nil {
			return objects.Object{}, fmt.Errorf("engine: decompress blob: %w", err)
		}
		o.Buf = plain
		o.Codec = objects.CodecRaw
	}
	return o, nil
}

// PutFile chunks r, packs it into a FileBlob/FileBlobTree graph, and
// wraps the root in an FsItemFile recording the file's total size.
func (s *Store) PutFile(r io.Reader) (cas.Identifier, error) {
	blobRoot, size, err := filetree.Put(r, &s.gear, s.wantC, s.putBlob, s.putKeys)
	if err != nil {
		return cas.Identifier{}, err
	}
	return s.PutObject(objects.FsItemFile(size, blobRoot))
}

// ReadFile writes the full content of the file rooted at id to w.
func (s *Store) ReadFile(id cas.Identifier, w io.Writer) error {
	return filetree.ReadInto(s.getForFiletree, id, w)
}

// PutTree stores a directory's entry list, sorted canonically by name.
func (s *Store) PutTree(children []objects.DirEntry) (cas.Identifier, error) {
	sorted := make([]objects.DirEntry, len(children))
	copy(sorted, children)
	objects.SortEntries(sorted)
	return s.PutObject(objects.FsItemDir(sorted))
}

// PutCommit records a history node over tree with the given parents
// and an optional message.
func (s *Store) PutCommit(tree cas.Identifier, parents []cas.Identifier, message string) (cas.Identifier, error) {
	attrs := objects.CommitAttrs{}
	if message != "" {
		attrs = objects.CommitAttrs{Message: message, HasMessage: true}
	}
	return s.PutObject(objects.Commit(tree, parents, attrs))
}

// Head returns the refname HEAD currently points at. A freshly
// initialized repository has HEAD pointing at "main" (spec.md §3).
func (s *Store) Head() (string, bool, error) {
	return backend.GetHead(s.backend)
}

// SetHead points HEAD at refname, without itself moving refname's
// reflog: HEAD only records which refname is current (spec.md §3,
// §6), the reflog records what that refname points at.
func (s *Store) SetHead(refname string) error {
	return backend.PutHead(s.backend, refname)
}

// HeadCommit resolves HEAD's refname to the identifier it most
// recently pointed at, per the reflog. ok is false if HEAD is unset or
// its refname has no reflog history yet.
func (s *Store) HeadCommit() (cas.Identifier, bool, error) {
	refname, ok, err := s.Head()
	if err != nil || !ok {
		return cas.Identifier{}, false, err
	}
	id, err := s.backend.ReflogGet(refname, "")
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return cas.Identifier{}, false, nil
		}
		return cas.Identifier{}, false, err
	}
	return id, true, nil
}

// Advance appends a reflog entry recording that refname now points at
// id (the empty remote means a local move).
func (s *Store) Advance(refname string, id cas.Identifier, remote string) error {
	return s.backend.ReflogPush(backend.Reflog{RefName: refname, Key: id, Remote: remote})
}

// ReflogWalk returns every identifier ever recorded for refname, newest
// first.
func (s *Store) ReflogWalk(refname, remote string) ([]cas.Identifier, error) {
	return s.backend.ReflogWalk(refname, remote)
}

// Begin, Commit, and Rollback delegate to the underlying backend's
// transaction envelope.
func (s *Store) Begin() error    { return s.backend.Begin() }
func (s *Store) Commit() error   { return s.backend.Commit() }
func (s *Store) Rollback() error { return s.backend.Rollback() }
