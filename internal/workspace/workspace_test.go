package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forgevault/forgevault/internal/backend/memory"
	"github.com/forgevault/forgevault/internal/engine"
	"github.com/forgevault/forgevault/internal/keyschedule"
)

func newTestEngine(t *testing.T) *engine.Store {
	t.Helper()
	s, err := engine.Open(memory.New(), keyschedule.ZeroKey, false)
	if err != nil {
		t.Fatalf("engine.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func TestSnapshotAndCheckoutRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt":        "hello from a",
		"sub/b.txt":    "hello from b",
		"sub/deep/c.go": "package deep\n",
	})

	store := newTestEngine(t)
	ws := Open(src, store, nil)

	root, err := ws.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	dst := t.TempDir()
	wsDst := Open(dst, store, nil)
	if err := wsDst.Checkout(root); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	for rel, want := range map[string]string{
		"a.txt":         "hello from a",
		"sub/b.txt":     "hello from b",
		"sub/deep/c.go": "package deep\n",
	} {
		got, err := os.ReadFile(filepath.Join(dst, rel))
		if err != nil {
			t.Fatalf("ReadFile %s: %v", rel, err)
		}
		if string(got) != want {
			t.Fatalf("%s = %q want %q", rel, got, want)
		}
	}
}

func TestSnapshotSkipsControlDir(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt":               "kept",
		".forgevault/ignored": "should not be packed",
	})

	store := newTestEngine(t)
	ws := Open(src, store, nil)
	root, err := ws.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	dst := t.TempDir()
	wsDst := Open(dst, store, nil)
	if err := wsDst.Checkout(root); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, ".forgevault")); !os.IsNotExist(err) {
		t.Fatalf("expected .forgevault to be excluded from the snapshot, err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "a.txt")); err != nil {
		t.Fatalf("expected a.txt to exist: %v", err)
	}
}

func TestCheckoutRefusesToOverwrite(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "content"})

	store := newTestEngine(t)
	ws := Open(src, store, nil)
	root, err := ws.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	dst := t.TempDir()
	writeTree(t, dst, map[string]string{"a.txt": "pre-existing"})
	wsDst := Open(dst, store, nil)
	if err := wsDst.Checkout(root); err == nil {
		t.Fatal("expected Checkout to refuse overwriting an existing file")
	}
}
