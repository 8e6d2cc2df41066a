package wsindex

import (
	"path/filepath"
	"testing"

	"github.com/forgevault/forgevault/internal/cas"
)

func openTest(t *testing.T) *BoltCache {
	t.Helper()
	c, err := OpenBoltCache(filepath.Join(t.TempDir(), "cache.bolt"))
	if err != nil {
		t.Fatalf("OpenBoltCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissReturnsNotFound(t *testing.T) {
	c := openTest(t)
	_, found, err := c.Get(CacheKey{Inode: 1, Mtime: 2, Size: 3})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("expected a miss on an empty cache")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := openTest(t)
	key := CacheKey{Inode: 42, Mtime: 1000, Size: 17}
	id := cas.Sum([]byte("packed content root"))

	if err := c.Put(key, id); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || !got.Equal(id) {
		t.Fatalf("Get = %v found=%v, want %v", got, found, id)
	}
}

func TestPutDoesNotOverwriteExistingEntry(t *testing.T) {
	c := openTest(t)
	key := CacheKey{Inode: 1, Mtime: 1, Size: 1}
	first := cas.Sum([]byte("first"))
	second := cas.Sum([]byte("second"))

	if err := c.Put(key, first); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := c.Put(key, second); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	got, found, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || !got.Equal(first) {
		t.Fatalf("expected the cache to keep the first entry, got %v", got)
	}
}

func TestDistinctKeysDoNotCollide(t *testing.T) {
	c := openTest(t)
	keyA := CacheKey{Inode: 1, Mtime: 100, Size: 10}
	keyB := CacheKey{Inode: 2, Mtime: 100, Size: 10}
	idA := cas.Sum([]byte("a"))
	idB := cas.Sum([]byte("b"))

	if err := c.Put(keyA, idA); err != nil {
		t.Fatalf("Put A: %v", err)
	}
	if err := c.Put(keyB, idB); err != nil {
		t.Fatalf("Put B: %v", err)
	}

	gotA, _, err := c.Get(keyA)
	if err != nil {
		t.Fatalf("Get A: %v", err)
	}
	gotB, _, err := c.Get(keyB)
	if err != nil {
		t.Fatalf("Get B: %v", err)
	}
	if !gotA.Equal(idA) || !gotB.Equal(idB) {
		t.Fatalf("keys collided: gotA=%v gotB=%v", gotA, gotB)
	}
}
