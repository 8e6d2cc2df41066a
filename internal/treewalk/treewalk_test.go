package treewalk

import (
	"testing"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/objects"
)

type memStore struct {
	objs map[cas.Identifier]objects.Object
}

func newMemStore() *memStore { return &memStore{objs: make(map[cas.Identifier]objects.Object)} }

func (s *memStore) put(o objects.Object) cas.Identifier {
	enc, err := objects.Encode(o)
	if err != nil {
		panic(err)
	}
	id := cas.Sum(enc)
	s.objs[id] = o
	return id
}

func (s *memStore) get(id cas.Identifier) (objects.Object, error) {
	o, ok := s.objs[id]
	if !ok {
		panic("object not found in test store")
	}
	return o, nil
}

func TestWalkFlatDirectory(t *testing.T) {
	s := newMemStore()
	fileA := s.put(objects.FsItemFile(3, s.put(objects.FileBlob([]byte("abc"), objects.CodecRaw))))
	fileB := s.put(objects.FsItemFile(3, s.put(objects.FileBlob([]byte("xyz"), objects.CodecRaw))))

	root := s.put(objects.FsItemDir([]objects.DirEntry{
		{Name: "a.txt", ID: fileA, Kind: objects.EntryFile},
		{Name: "b.txt", ID: fileB, Kind: objects.EntryFile},
	}))

	results, err := Walk(s.get, root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 entries (the 2 files, no root entry), got %d: %+v", len(results), results)
	}
	if entry, ok := results["a.txt"]; !ok || entry.Kind != objects.EntryFile {
		t.Fatalf("missing or wrong kind for a.txt: %+v", results)
	}
	if _, ok := results[""]; ok {
		t.Fatalf("root directory must not be recorded under the empty path: %+v", results)
	}
}

func TestWalkNestedDirectory(t *testing.T) {
	s := newMemStore()
	leaf := s.put(objects.FsItemFile(1, s.put(objects.FileBlob([]byte("x"), objects.CodecRaw))))
	sub := s.put(objects.FsItemDir([]objects.DirEntry{
		{Name: "leaf.txt", ID: leaf, Kind: objects.EntryFile},
	}))
	root := s.put(objects.FsItemDir([]objects.DirEntry{
		{Name: "sub", ID: sub, Kind: objects.EntryDir},
	}))

	results, err := Walk(s.get, root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if _, ok := results["sub/leaf.txt"]; !ok {
		t.Fatalf("expected nested path sub/leaf.txt, got %+v", results)
	}
	if entry, ok := results["sub"]; !ok || entry.Kind != objects.EntryDir {
		t.Fatalf("expected sub recorded as a directory entry, got %+v", results)
	}
	if len(results) != 2 {
		t.Fatalf("expected exactly 2 entries (sub, sub/leaf.txt), got %d: %+v", len(results), results)
	}
}

func TestWalkUnwrapsCommit(t *testing.T) {
	s := newMemStore()
	leaf := s.put(objects.FsItemFile(1, s.put(objects.FileBlob([]byte("x"), objects.CodecRaw))))
	tree := s.put(objects.FsItemDir([]objects.DirEntry{
		{Name: "f", ID: leaf, Kind: objects.EntryFile},
	}))
	commit := s.put(objects.Commit(tree, nil, objects.CommitAttrs{}))

	results, err := Walk(s.get, commit)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if _, ok := results["f"]; !ok {
		t.Fatalf("expected Walk to unwrap the commit to its tree, got %+v", results)
	}
}

func TestWalkStopsAtSubmoduleBoundary(t *testing.T) {
	s := newMemStore()
	submoduleRoot := cas.Sum([]byte("some other store's root"))
	root := s.put(objects.FsItemDir([]objects.DirEntry{
		{Name: "vendor", ID: submoduleRoot, Kind: objects.EntrySubmodule},
	}))

	results, err := Walk(s.get, root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	entry, ok := results["vendor"]
	if !ok {
		t.Fatalf("expected a recorded submodule entry, got %+v", results)
	}
	if entry.Kind != objects.EntrySubmodule || !entry.ID.Equal(submoduleRoot) {
		t.Fatalf("unexpected submodule entry: %+v", entry)
	}
}
