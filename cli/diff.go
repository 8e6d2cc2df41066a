package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/colors"
	"github.com/forgevault/forgevault/internal/resolve"
	"github.com/forgevault/forgevault/internal/treewalk"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <ref> <ref>",
	Short: "Compare the object graphs rooted at two refs",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	workRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	r, err := openRepo(workRoot)
	if err != nil {
		return err
	}
	defer r.Close()

	left, err := resolveRef(r, args[0])
	if err != nil {
		return err
	}
	right, err := resolveRef(r, args[1])
	if err != nil {
		return err
	}

	leftEntries, err := treewalk.Walk(r.store.GetObject, left)
	if err != nil {
		return fmt.Errorf("walk %s: %w", args[0], err)
	}
	rightEntries, err := treewalk.Walk(r.store.GetObject, right)
	if err != nil {
		return fmt.Errorf("walk %s: %w", args[1], err)
	}

	paths := make(map[string]struct{}, len(leftEntries)+len(rightEntries))
	for p := range leftEntries {
		paths[p] = struct{}{}
	}
	for p := range rightEntries {
		paths[p] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		if p == "" {
			continue
		}
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		l, inLeft := leftEntries[p]
		rt, inRight := rightEntries[p]
		switch {
		case inLeft && !inRight:
			cmd.Println(colors.Deleted("- " + p))
		case !inLeft && inRight:
			cmd.Println(colors.Added("+ " + p))
		case !l.ID.Equal(rt.ID):
			cmd.Println(colors.Modified("~ " + p))
		}
	}
	return nil
}

func resolveRef(r *repo, s string) (cas.Identifier, error) {
	keyish, err := resolve.Parse(s)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("parse %q: %w", s, err)
	}
	id, err := resolve.Resolve(r.backend, keyish)
	if err != nil {
		return cas.Identifier{}, fmt.Errorf("resolve %q: %w", s, err)
	}
	return id, nil
}
