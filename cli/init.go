package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/forgevault/forgevault/internal/backend/boltstore"
	"github.com/forgevault/forgevault/internal/config"
	"github.com/forgevault/forgevault/internal/engine"
	"github.com/spf13/cobra"
)

var initKeyFile string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new forgevault repository in the current directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initKeyFile, "key-file", "", "path to a 32-byte repository key (default: the well-known public-store key)")
}

func runInit(cmd *cobra.Command, args []string) error {
	workRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	dir := filepath.Join(workRoot, controlDir)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%s already exists", dir)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	cfg := config.DefaultConfig()
	cfg.Core.KeyFile = initKeyFile
	if err := config.SaveRepoConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	b, err := boltstore.Open(filepath.Join(dir, "objects.db"))
	if err != nil {
		return fmt.Errorf("create object store: %w", err)
	}
	defer b.Close()

	key, err := cfg.RepoKey()
	if err != nil {
		return fmt.Errorf("load repository key: %w", err)
	}
	store, err := engine.Open(b, key, cfg.Core.Compression)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer store.Close()

	// spec.md §3: "the initial value of a new repository is the
	// string main".
	if err := store.SetHead("main"); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}

	log.Printf("initialized an empty forgevault repository in %s", dir)
	return nil
}
