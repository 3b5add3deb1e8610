package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/docgen"
)

// newGenDocCmd creates the hidden "mpfs gen-doc" subcommand. It writes the
// CLI reference by walking the real command tree.
func newGenDocCmd(stdout, stderr io.Writer, root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "gen-doc [path]",
		Short:  "Generate CLI reference documentation",
		Hidden: true,
		Args:   cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			outPath := "docs/reference/cli.md"
			if len(args) == 1 {
				outPath = args[0]
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				fmt.Fprintf(stderr, "gen-doc: creating %s: %v\n", filepath.Dir(outPath), err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			if err := docgen.WriteCLIMarkdown(outPath, root); err != nil {
				fmt.Fprintf(stderr, "gen-doc: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			fmt.Fprintf(stdout, "Generated: %s\n", outPath) //nolint:errcheck // best-effort stdout
			return nil
		},
	}
}
