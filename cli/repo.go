package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgevault/forgevault/internal/backend"
	"github.com/forgevault/forgevault/internal/backend/boltstore"
	"github.com/forgevault/forgevault/internal/config"
	"github.com/forgevault/forgevault/internal/engine"
	"github.com/forgevault/forgevault/internal/wsindex"
)

// controlDir is the repository metadata directory, sibling to the
// working tree it describes.
const controlDir = ".forgevault"

// repo bundles everything an operation needs against an already-open
// repository: the raw backend (for resolve.Resolve / reflog walks),
// the keyed store built on top of it, and the workspace index cache.
type repo struct {
	backend  backend.Backend
	store    *engine.Store
	cache    *wsindex.BoltCache
	workRoot string
}

// openRepo opens the repository rooted at workRoot. It fails if
// workRoot has no controlDir.
func openRepo(workRoot string) (*repo, error) {
	dir := filepath.Join(workRoot, controlDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("not a forgevault repository (no %s directory found)", controlDir)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	key, err := cfg.RepoKey()
	if err != nil {
		return nil, fmt.Errorf("load repository key: %w", err)
	}

	b, err := boltstore.Open(filepath.Join(dir, "objects.db"))
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	store, err := engine.Open(b, key, cfg.Core.Compression)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open engine: %w", err)
	}

	cache, err := wsindex.OpenBoltCache(filepath.Join(dir, "wsindex.db"))
	if err != nil {
		store.Close()
		b.Close()
		return nil, fmt.Errorf("open workspace index: %w", err)
	}

	return &repo{backend: b, store: store, cache: cache, workRoot: workRoot}, nil
}

func (r *repo) Close() error {
	r.cache.Close()
	r.store.Close()
	r.backend.Close()
	return nil
}

// currentTimeline returns the name of the timeline HEAD currently
// tracks, per the engine's own HEAD state key (spec.md §3, §6).
func currentTimeline(r *repo) (string, error) {
	name, ok, err := r.store.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("HEAD is unset (repository not initialized?)")
	}
	return name, nil
}

func setCurrentTimeline(r *repo, name string) error {
	return r.store.SetHead(name)
}
