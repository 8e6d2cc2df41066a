// Package cli implements the forgevault command-line front end: a thin
// cobra layer translating user commands into operations against
// internal/engine, internal/workspace, internal/resolve, and friends.
// Errors returned by the domain layer are logged here and turned into
// process exit codes; the engine itself never logs.
package cli

import (
	"log"

	"github.com/spf13/cobra"
)

const forgevaultVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "forgevault",
	Short: "Forgevault is a content-addressed, encrypted version control store",
	Long:  `Forgevault snapshots a working tree into an encrypted, deduplicating object store and moves refs between snapshots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version {
			cmd.Println("forgevault version " + forgevaultVersion)
			return nil
		}
		return cmd.Help()
	},
}

var version bool

// Execute runs the root command, logging the error and exiting the
// process with a non-zero status on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&version, "version", false, "print the forgevault version")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(timelineCmd)
}
