// Package workspace materializes the object store's directory trees
// onto the real filesystem and packs the real filesystem back into the
// store. It is the one layer in this module that performs filesystem
// I/O; everything below it (engine, filetree, treewalk) works purely
// against already-decoded objects.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/engine"
	"github.com/forgevault/forgevault/internal/objects"
	"github.com/forgevault/forgevault/internal/treewalk"
	"github.com/forgevault/forgevault/internal/wsindex"
)

// controlDir is the directory name excluded from every snapshot, the
// repository's own metadata alongside the working tree.
const controlDir = ".forgevault"

// Workspace ties a working-tree root to an object Store and an
// optional metadata cache.
type Workspace struct {
	root  string
	store *engine.Store
	cache wsindex.Cache
}

// Open returns a Workspace rooted at root. cache may be nil, in which
// case every file is rechunked on every snapshot.
func Open(root string, store *engine.Store, cache wsindex.Cache) *Workspace {
	return &Workspace{root: root, store: store, cache: cache}
}

// Snapshot walks the working tree bottom-up, packing every file and
// directory into the object store, and returns the root tree's
// identifier.
func (w *Workspace) Snapshot() (cas.Identifier, error) {
	return w.snapshotDir(w.root, true)
}

func (w *Workspace) snapshotDir(dir string, isRoot bool) (cas.Identifier, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("workspace: read dir %s: %w", dir, err)
	}

	var children []objects.DirEntry
	for _, entry := range entries {
		name := entry.Name()
		if isRoot && name == controlDir {
			continue
		}
		full := filepath.Join(dir, name)

		info, err := entry.Info()
		if err != nil {
			return cas.Identifier{}, fmt.Errorf("workspace: stat %s: %w", full, err)
		}

		if info.IsDir() {
			id, err := w.snapshotDir(full, false)
			if err != nil {
				return cas.Identifier{}, err
			}
			children = append(children, objects.DirEntry{Name: name, ID: id, Kind: objects.EntryDir})
			continue
		}

		id, err := w.snapshotFile(full, info)
		if err != nil {
			return cas.Identifier{}, err
		}
		children = append(children, objects.DirEntry{Name: name, ID: id, Kind: objects.EntryFile})
	}

	return w.store.PutTree(children)
}

func (w *Workspace) snapshotFile(path string, info os.FileInfo) (cas.Identifier, error) {
	key, hasKey := fileFingerprint(info)
	if hasKey && w.cache != nil {
		if id, found, err := w.cache.Get(key); err != nil {
			return cas.Identifier{}, err
		} else if found {
			return id, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("workspace: open %s: %w", path, err)
	}
	defer f.Close()

	id, err := w.store.PutFile(f)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("workspace: pack %s: %w", path, err)
	}

	if hasKey && w.cache != nil {
		if err := w.cache.Put(key, id); err != nil {
			return cas.Identifier{}, err
		}
	}
	return id, nil
}

// fileFingerprint reads the inode, modification time, and size needed
// for a CacheKey. It returns hasKey = false on platforms or filesystems
// where the inode isn't available through syscall.Stat_t.
func fileFingerprint(info os.FileInfo) (wsindex.CacheKey, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return wsindex.CacheKey{}, false
	}
	return wsindex.CacheKey{
		Inode: st.Ino,
		Mtime: info.ModTime().UnixNano(),
		Size:  uint64(info.Size()),
	}, true
}

// Checkout materializes the tree (or commit) rooted at id into the
// workspace root. It refuses to overwrite any file that already
// exists, the same create-new-or-fail discipline as a fresh clone.
func (w *Workspace) Checkout(id cas.Identifier) error {
	entries, err := treewalk.Walk(w.store.GetObject, id)
	if err != nil {
		return fmt.Errorf("workspace: walk %s: %w", id, err)
	}

	for relPath, entry := range entries {
		if relPath == "" {
			continue
		}
		full := filepath.Join(w.root, relPath)

		switch entry.Kind {
		case objects.EntryDir:
			if err := os.MkdirAll(full, 0o755); err != nil {
				return fmt.Errorf("workspace: mkdir %s: %w", full, err)
			}

		case objects.EntryFile:
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return fmt.Errorf("workspace: mkdir %s: %w", filepath.Dir(full), err)
			}
			if err := w.writeFile(full, entry.ID); err != nil {
				return err
			}

		case objects.EntrySubmodule:
			// Submodule boundaries are recorded but not materialized
			// here: their content lives in a different store.
		}
	}
	return nil
}

func (w *Workspace) writeFile(path string, id cas.Identifier) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("workspace: create %s: %w", path, err)
	}
	defer f.Close()

	if err := w.store.ReadFile(id, f); err != nil {
		return fmt.Errorf("workspace: write %s: %w", path, err)
	}
	return nil
}
