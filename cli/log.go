package cli

import (
	"fmt"
	"os"

	"github.com/forgevault/forgevault/internal/colors"
	"github.com/forgevault/forgevault/internal/seals"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [ref]",
	Short: "Show the commit history recorded in a timeline's reflog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	workRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	r, err := openRepo(workRoot)
	if err != nil {
		return err
	}
	defer r.Close()

	refname := ""
	if len(args) == 1 {
		refname = args[0]
	} else {
		refname, err = currentTimeline(r)
		if err != nil {
			return err
		}
	}

	history, err := r.store.ReflogWalk(refname, "")
	if err != nil {
		return fmt.Errorf("walk reflog for %s: %w", refname, err)
	}
	if len(history) == 0 {
		cmd.Printf("%s has no recorded commits\n", refname)
		return nil
	}

	for _, id := range history {
		name := seals.GenerateSealNameForCommit(id)
		cmd.Println(colors.Bold(name) + "  " + id.String())
	}
	return nil
}
