package objects

import (
	"bytes"
	"errors"
	"testing"

	"github.com/forgevault/forgevault/internal/cas"
)

func id(b byte) cas.Identifier {
	digest := bytes.Repeat([]byte{b}, 32)
	return cas.FromDigest(cas.Blake3B, [32]byte(digest))
}

func roundTrip(t *testing.T, o Object) Object {
	t.Helper()
	enc, err := Encode(o)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	enc2, err := Encode(dec)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(enc, enc2) {
		t.Fatalf("encode not stable across round trip")
	}
	return dec
}

func TestFileBlobRoundTrip(t *testing.T) {
	o := FileBlob([]byte("hello world"), CodecRaw)
	dec := roundTrip(t, o)
	if dec.Kind != KindFileBlob || !bytes.Equal(dec.Buf, o.Buf) || dec.Codec != CodecRaw {
		t.Fatalf("mismatch: %+v", dec)
	}
}

func TestFileBlobTreeRoundTrip(t *testing.T) {
	o := FileBlobTree([]cas.Identifier{id(1), id(2), id(3)})
	dec := roundTrip(t, o)
	if len(dec.Keys) != 3 || !dec.Keys[0].Equal(id(1)) || !dec.Keys[2].Equal(id(3)) {
		t.Fatalf("mismatch: %+v", dec)
	}
}

func TestFileBlobTreeRejectsSingleChild(t *testing.T) {
	o := FileBlobTree([]cas.Identifier{id(1)})
	if _, err := Encode(o); err == nil {
		t.Fatal("expected error encoding a single-child FileBlobTree")
	}
}

func TestFsItemFileRoundTrip(t *testing.T) {
	o := FsItemFile(4096, id(9))
	dec := roundTrip(t, o)
	if dec.Size != 4096 || !dec.BlobTree.Equal(id(9)) {
		t.Fatalf("mismatch: %+v", dec)
	}
}

func TestFsItemDirRoundTrip(t *testing.T) {
	children := []DirEntry{
		{Name: "b.txt", ID: id(2), Kind: EntryFile},
		{Name: "a", ID: id(1), Kind: EntryDir},
		{Name: "sub", ID: id(3), Kind: EntrySubmodule},
	}
	SortEntries(children)
	o := FsItemDir(children)
	dec := roundTrip(t, o)
	if len(dec.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(dec.Children))
	}
	for i := 1; i < len(dec.Children); i++ {
		if dec.Children[i-1].Name >= dec.Children[i].Name {
			t.Fatalf("children not sorted: %v", dec.Children)
		}
	}
	if dec.Children[0].Kind != EntryDir || dec.Children[2].Kind != EntrySubmodule {
		t.Fatalf("entry kind not preserved: %+v", dec.Children)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	o := Commit(id(5), []cas.Identifier{id(2), id(1)}, CommitAttrs{Message: "initial", HasMessage: true})
	dec := roundTrip(t, o)
	if !dec.Tree.Equal(id(5)) {
		t.Fatalf("tree mismatch: %+v", dec.Tree)
	}
	if len(dec.Parents) != 2 || !dec.Parents[0].Equal(id(1)) || !dec.Parents[1].Equal(id(2)) {
		t.Fatalf("parents not sorted canonically: %+v", dec.Parents)
	}
	if !dec.Attrs.HasMessage || dec.Attrs.Message != "initial" {
		t.Fatalf("attrs mismatch: %+v", dec.Attrs)
	}
}

func TestCommitParentOrderIsCanonical(t *testing.T) {
	a := Commit(id(5), []cas.Identifier{id(1), id(2)}, CommitAttrs{})
	b := Commit(id(5), []cas.Identifier{id(2), id(1)}, CommitAttrs{})
	encA, err := Encode(a)
	if err != nil {
		t.Fatalf("Encode a: %v", err)
	}
	encB, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode b: %v", err)
	}
	if !bytes.Equal(encA, encB) {
		t.Fatal("commits with the same parents in different order must encode identically")
	}
}

func TestCommitWithoutMessage(t *testing.T) {
	o := Commit(id(5), nil, CommitAttrs{})
	dec := roundTrip(t, o)
	if dec.Attrs.HasMessage {
		t.Fatalf("expected no message, got %+v", dec.Attrs)
	}
	if len(dec.Parents) != 0 {
		t.Fatalf("expected no parents, got %v", dec.Parents)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte{0xff})
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc, err := Encode(FileBlob([]byte("x"), CodecRaw))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	enc = append(enc, 0x00)
	if _, err := Decode(enc); !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure for trailing bytes, got %v", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	enc, err := Encode(FsItemFile(10, id(1)))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(enc[:len(enc)-5]); err == nil {
		t.Fatal("expected error decoding truncated input")
	}
}

func TestLinks(t *testing.T) {
	blob := FileBlob([]byte("x"), CodecRaw)
	if got := blob.Links(); got != nil {
		t.Fatalf("expected no links for FileBlob, got %v", got)
	}

	tree := FileBlobTree([]cas.Identifier{id(1), id(2)})
	if got := tree.Links(); len(got) != 2 {
		t.Fatalf("expected 2 links, got %v", got)
	}

	commit := Commit(id(5), []cas.Identifier{id(1)}, CommitAttrs{})
	links := commit.Links()
	if len(links) != 2 || !links[0].Equal(id(5)) {
		t.Fatalf("expected [tree, parent...], got %v", links)
	}
}

func TestTree(t *testing.T) {
	commit := Commit(id(5), nil, CommitAttrs{})
	tree, ok := commit.Tree(id(99))
	if !ok || !tree.Equal(id(5)) {
		t.Fatalf("expected commit tree %v, got %v ok=%v", id(5), tree, ok)
	}

	dir := FsItemDir(nil)
	tree, ok = dir.Tree(id(7))
	if !ok || !tree.Equal(id(7)) {
		t.Fatalf("expected dir's own id as tree root, got %v ok=%v", tree, ok)
	}

	blob := FileBlob([]byte("x"), CodecRaw)
	if _, ok := blob.Tree(id(1)); ok {
		t.Fatal("expected no tree root for a FileBlob")
	}
}
