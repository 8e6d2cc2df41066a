// Package objects implements the store's object model: a tagged union
// of five shapes (FileBlob, FileBlobTree, FsItemFile, FsItemDir, Commit)
// with a deterministic, self-describing, length-prefixed binary
// encoding. Two semantically equal objects always encode to byte-equal
// output, since identity is defined as hash(encrypt(encode(object))).
package objects

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/forgevault/forgevault/internal/cas"
)

// Kind discriminates the five Object shapes.
type Kind byte

const (
	KindFileBlob     Kind = 1
	KindFileBlobTree Kind = 2
	KindFsItemFile   Kind = 3
	KindFsItemDir    Kind = 4
	KindCommit       Kind = 5
)

// EntryKind discriminates what an FsItemDir entry points at. It extends
// the spec's boolean is_dir bit to a third case (Submodule) so the
// walker still never needs a second fetch to tell them apart.
type EntryKind byte

const (
	EntryFile      EntryKind = 0
	EntryDir       EntryKind = 1
	EntrySubmodule EntryKind = 2
)

// Codec marks whether a FileBlob's buffer is stored raw or compressed.
// It is carried as one byte inside the FileBlob encoding, not as a
// separate object variant, so it never affects identity semantics
// beyond the plaintext bytes actually written.
type Codec byte

const (
	CodecRaw  Codec = 0
	CodecZstd Codec = 1
)

// DirEntry is one entry of an FsItemDir: a name, the identifier of the
// referenced object, and what kind of thing it refers to.
type DirEntry struct {
	Name string
	ID   cas.Identifier
	Kind EntryKind
}

// CommitAttrs carries free-form commit metadata. Message is the only
// field defined so far.
type CommitAttrs struct {
	Message    string
	HasMessage bool
}

// Object is the tagged union described in spec.md §3. Exactly one of
// the variant-specific field groups is populated, selected by Kind.
type Object struct {
	Kind Kind

	// KindFileBlob
	Buf   []byte
	Codec Codec

	// KindFileBlobTree
	Keys []cas.Identifier

	// KindFsItemFile
	Size     uint64
	BlobTree cas.Identifier

	// KindFsItemDir
	Children []DirEntry

	// KindCommit
	Tree    cas.Identifier
	Parents []cas.Identifier
	Attrs   CommitAttrs
}

// FileBlob builds a single-chunk leaf object.
func FileBlob(buf []byte, codec Codec) Object {
	return Object{Kind: KindFileBlob, Buf: buf, Codec: codec}
}

// FileBlobTree builds an inner node over child FileBlob/FileBlobTree
// identifiers, in file order. Per spec.md §3(iv), callers must never
// build a FileBlobTree with a single child; the packer avoids this by
// hoisting instead of calling this constructor in that case.
func FileBlobTree(keys []cas.Identifier) Object {
	return Object{Kind: KindFileBlobTree, Keys: keys}
}

// FsItemFile builds the root of one file's content.
func FsItemFile(size uint64, blobTree cas.Identifier) Object {
	return Object{Kind: KindFsItemFile, Size: size, BlobTree: blobTree}
}

// FsItemDir builds a directory's entry list. Entries must already be
// sorted by Name (see SortEntries); the encoding's determinism depends
// on a single canonical order.
func FsItemDir(children []DirEntry) Object {
	return Object{Kind: KindFsItemDir, Children: children}
}

// SortEntries sorts dir entries by name in place, the canonical order
// required by spec.md §3(iii).
func SortEntries(entries []DirEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

// Commit builds a history node. Parents are sorted by wire form before
// encoding (see Encode), so callers may pass them in any order and still
// get a canonical identity for DAG-equivalent merges.
func Commit(tree cas.Identifier, parents []cas.Identifier, attrs CommitAttrs) Object {
	return Object{Kind: KindCommit, Tree: tree, Parents: parents, Attrs: attrs}
}

// Tree returns the content root this object represents, given its own
// identifier: a Commit yields its Tree field; FsItemDir/FsItemFile yield
// ownID; blobs and blob-trees have no tree root.
func (o Object) Tree(ownID cas.Identifier) (cas.Identifier, bool) {
	switch o.Kind {
	case KindCommit:
		return o.Tree, true
	case KindFsItemDir, KindFsItemFile:
		return ownID, true
	default:
		return cas.Identifier{}, false
	}
}

// Links returns the identifiers this object directly references.
func (o Object) Links() []cas.Identifier {
	switch o.Kind {
	case KindFileBlobTree:
		out := make([]cas.Identifier, len(o.Keys))
		copy(out, o.Keys)
		return out
	case KindFileBlob:
		return nil
	case KindCommit:
		out := make([]cas.Identifier, 0, 1+len(o.Parents))
		out = append(out, o.Tree)
		out = append(out, o.Parents...)
		return out
	case KindFsItemDir:
		out := make([]cas.Identifier, len(o.Children))
		for i, c := range o.Children {
			out[i] = c.ID
		}
		return out
	case KindFsItemFile:
		return []cas.Identifier{o.BlobTree}
	default:
		return nil
	}
}

// ErrDecodeFailure wraps any malformed-encoding condition: unknown
// discriminant, truncated framing, or trailing bytes after a
// structurally complete value.
var ErrDecodeFailure = errors.New("objects: decode failure")

func wrapDecodeErr(reason string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDecodeFailure, reason, err)
}

// Encode renders the object's deterministic, self-describing byte form:
// a one-byte Kind discriminant followed by variant-tagged, length-
// prefixed fields. Identifiers are written as their fixed-width wire
// form (one tag byte + 32-byte digest for the only algorithm this store
// defines).
func Encode(o Object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(o.Kind))

	switch o.Kind {
	case KindFileBlob:
		buf.WriteByte(byte(o.Codec))
		writeUvarint(&buf, uint64(len(o.Buf)))
		buf.Write(o.Buf)

	case KindFileBlobTree:
		if len(o.Keys) == 1 {
			return nil, fmt.Errorf("objects: a FileBlobTree with exactly one child must be hoisted, not encoded")
		}
		writeUvarint(&buf, uint64(len(o.Keys)))
		for _, id := range o.Keys {
			buf.Write(id.Wire())
		}

	case KindFsItemFile:
		writeUvarint(&buf, o.Size)
		buf.Write(o.BlobTree.Wire())

	case KindFsItemDir:
		writeUvarint(&buf, uint64(len(o.Children)))
		for _, e := range o.Children {
			writeUvarint(&buf, uint64(len(e.Name)))
			buf.WriteString(e.Name)
			buf.WriteByte(byte(e.Kind))
			buf.Write(e.ID.Wire())
		}

	case KindCommit:
		buf.Write(o.Tree.Wire())
		parents := sortedParents(o.Parents)
		writeUvarint(&buf, uint64(len(parents)))
		for _, p := range parents {
			buf.Write(p.Wire())
		}
		if o.Attrs.HasMessage {
			buf.WriteByte(1)
			writeUvarint(&buf, uint64(len(o.Attrs.Message)))
			buf.WriteString(o.Attrs.Message)
		} else {
			buf.WriteByte(0)
		}

	default:
		return nil, fmt.Errorf("objects: unknown kind %d", o.Kind)
	}

	return buf.Bytes(), nil
}

// sortedParents returns parents sorted by wire form: canonicalization so
// that merging the same parents in any order produces the same commit
// identifier (spec.md §3(ii)).
func sortedParents(parents []cas.Identifier) []cas.Identifier {
	out := make([]cas.Identifier, len(parents))
	copy(out, parents)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Wire(), out[j].Wire()) < 0
	})
	return out
}

// Decode parses an object's canonical byte form, rejecting unknown
// discriminants and any trailing bytes.
func Decode(data []byte) (Object, error) {
	r := bytes.NewReader(data)
	kindByte, err := r.ReadByte()
	if err != nil {
		return Object{}, wrapDecodeErr("missing kind byte", err)
	}
	kind := Kind(kindByte)

	var o Object
	o.Kind = kind

	switch kind {
	case KindFileBlob:
		codecByte, err := r.ReadByte()
		if err != nil {
			return Object{}, wrapDecodeErr("missing codec byte", err)
		}
		o.Codec = Codec(codecByte)
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return Object{}, wrapDecodeErr("buf length", err)
		}
		o.Buf = make([]byte, n)
		if err := readFull(r, o.Buf); err != nil {
			return Object{}, wrapDecodeErr("buf bytes", err)
		}

	case KindFileBlobTree:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return Object{}, wrapDecodeErr("key count", err)
		}
		o.Keys = make([]cas.Identifier, n)
		for i := range o.Keys {
			id, err := readIdentifier(r)
			if err != nil {
				return Object{}, wrapDecodeErr("key", err)
			}
			o.Keys[i] = id
		}

	case KindFsItemFile:
		size, err := binary.ReadUvarint(r)
		if err != nil {
			return Object{}, wrapDecodeErr("size", err)
		}
		o.Size = size
		id, err := readIdentifier(r)
		if err != nil {
			return Object{}, wrapDecodeErr("blob_tree", err)
		}
		o.BlobTree = id

	case KindFsItemDir:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return Object{}, wrapDecodeErr("child count", err)
		}
		o.Children = make([]DirEntry, n)
		for i := range o.Children {
			nameLen, err := binary.ReadUvarint(r)
			if err != nil {
				return Object{}, wrapDecodeErr("name length", err)
			}
			name := make([]byte, nameLen)
			if err := readFull(r, name); err != nil {
				return Object{}, wrapDecodeErr("name bytes", err)
			}
			entryKindByte, err := r.ReadByte()
			if err != nil {
				return Object{}, wrapDecodeErr("entry kind", err)
			}
			id, err := readIdentifier(r)
			if err != nil {
				return Object{}, wrapDecodeErr("entry id", err)
			}
			o.Children[i] = DirEntry{Name: string(name), ID: id, Kind: EntryKind(entryKindByte)}
		}

	case KindCommit:
		tree, err := readIdentifier(r)
		if err != nil {
			return Object{}, wrapDecodeErr("tree", err)
		}
		o.Tree = tree
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return Object{}, wrapDecodeErr("parent count", err)
		}
		o.Parents = make([]cas.Identifier, n)
		for i := range o.Parents {
			id, err := readIdentifier(r)
			if err != nil {
				return Object{}, wrapDecodeErr("parent", err)
			}
			o.Parents[i] = id
		}
		hasMessage, err := r.ReadByte()
		if err != nil {
			return Object{}, wrapDecodeErr("message flag", err)
		}
		if hasMessage == 1 {
			msgLen, err := binary.ReadUvarint(r)
			if err != nil {
				return Object{}, wrapDecodeErr("message length", err)
			}
			msg := make([]byte, msgLen)
			if err := readFull(r, msg); err != nil {
				return Object{}, wrapDecodeErr("message bytes", err)
			}
			o.Attrs = CommitAttrs{Message: string(msg), HasMessage: true}
		}

	default:
		return Object{}, fmt.Errorf("%w: unknown kind %d", ErrDecodeFailure, kind)
	}

	if r.Len() != 0 {
		return Object{}, fmt.Errorf("%w: %d trailing bytes", ErrDecodeFailure, r.Len())
	}
	return o, nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	buf.Write(tmp[:n])
}

func readIdentifier(r *bytes.Reader) (cas.Identifier, error) {
	wire := make([]byte, 1+cas.DigestSize)
	if err := readFull(r, wire); err != nil {
		return cas.Identifier{}, err
	}
	return cas.ParseWire(wire)
}

// readFull reads exactly len(buf) bytes from r, the way bytes.Reader's
// single Read call cannot guarantee for a freshly allocated destination
// spanning more than one internal read.
func readFull(r *bytes.Reader, buf []byte) error {
	off := 0
	for off < len(buf) {
		n, err := r.Read(buf[off:])
		off += n
		if err != nil {
			if off == len(buf) {
				return nil
			}
			return err
		}
		if n == 0 {
			return fmt.Errorf("short read: got %d want %d", off, len(buf))
		}
	}
	return nil
}
