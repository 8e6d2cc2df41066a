package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/forgevault/forgevault/internal/resolve"
	"github.com/forgevault/forgevault/internal/workspace"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <ref>",
	Short: "Materialize a commit or tree into the working directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) error {
	workRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	r, err := openRepo(workRoot)
	if err != nil {
		return err
	}
	defer r.Close()

	keyish, err := resolve.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parse %q: %w", args[0], err)
	}
	id, err := resolve.Resolve(r.backend, keyish)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", args[0], err)
	}

	ws := workspace.Open(workRoot, r.store, r.cache)
	if err := ws.Checkout(id); err != nil {
		return fmt.Errorf("checkout %s: %w", id, err)
	}

	log.Printf("checked out %s", id)
	return nil
}
