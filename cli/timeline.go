package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/config"
	"github.com/forgevault/forgevault/internal/shelf"
	"github.com/forgevault/forgevault/internal/workspace"
	"github.com/spf13/cobra"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <name>",
	Short: "Move HEAD to a different timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeline,
}

func runTimeline(cmd *cobra.Command, args []string) error {
	target := args[0]
	workRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	r, err := openRepo(workRoot)
	if err != nil {
		return err
	}
	defer r.Close()

	current, err := currentTimeline(r)
	if err != nil {
		return err
	}
	if current == target {
		log.Printf("already on timeline %s", target)
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Core.AutoShelf {
		if err := autoShelf(r, workRoot, current); err != nil {
			return fmt.Errorf("auto-shelve %s: %w", current, err)
		}
	}

	if err := setCurrentTimeline(r, target); err != nil {
		return fmt.Errorf("move HEAD to %s: %w", target, err)
	}

	log.Printf("switched to timeline %s", target)
	return nil
}

// autoShelf records the workspace's current content against the
// timeline being left, the way a timeline switch preserves uncommitted
// work without touching any files on disk: both roots are content
// addresses, not filesystem state.
func autoShelf(r *repo, workRoot, timelineName string) error {
	ws := workspace.Open(workRoot, r.store, r.cache)
	wsRoot, err := ws.Snapshot()
	if err != nil {
		return err
	}

	// An Identifier zero value doesn't round-trip through its own
	// String()/Parse() pair, so a timeline with no commits yet is
	// shelved against the identifier of the empty byte string instead
	// of an unset one.
	baseRoot := cas.Sum(nil)
	if head, ok, err := r.store.HeadCommit(); err != nil {
		return err
	} else if ok {
		baseRoot = head
	}

	manager, err := shelf.NewManager(filepath.Join(workRoot, controlDir))
	if err != nil {
		return err
	}
	_, err = manager.CreateAutoShelf(timelineName, wsRoot, baseRoot)
	return err
}
