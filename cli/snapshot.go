package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/seals"
	"github.com/forgevault/forgevault/internal/workspace"
	"github.com/spf13/cobra"
)

var snapshotMessage string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <path>",
	Short: "Pack a working tree into the object store and record a commit",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotMessage, "message", "m", "", "commit message")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
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

	timeline, err := currentTimeline(r)
	if err != nil {
		return err
	}

	ws := workspace.Open(target, r.store, r.cache)
	tree, err := ws.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", target, err)
	}

	var parents []cas.Identifier
	if head, ok, err := r.store.HeadCommit(); err != nil {
		return fmt.Errorf("resolve HEAD commit for %s: %w", timeline, err)
	} else if ok {
		parents = []cas.Identifier{head}
	}

	commit, err := r.store.PutCommit(tree, parents, snapshotMessage)
	if err != nil {
		return fmt.Errorf("create commit: %w", err)
	}

	if err := r.store.Advance(timeline, commit, ""); err != nil {
		return fmt.Errorf("update timeline %s: %w", timeline, err)
	}

	log.Printf("%s: %s", seals.GenerateSealNameForCommit(commit), commit)
	return nil
}
