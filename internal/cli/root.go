// Package cli implements the quest command-line front-end (spec.md §6),
// grounded on the teacher's internal/cli (root.go/run.go) cobra command
// tree, wired to this module's engine.Runner instead of the teacher's
// TUI/runner package.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root "quest" command with the run subcommand
// attached.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quest",
		Short:   "quest - a scriptable API collection runner",
		Long:    "quest runs API collections with cascading variables, goja-sandboxed pre/post scripts, and a DAG-ordered request scheduler.",
		Version: version,
	}

	cmd.AddCommand(NewRunCommand())
	return cmd
}
