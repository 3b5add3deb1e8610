// Command genschema regenerates the configuration schema and reference
// docs. Run from the repository root:
//
//	go run ./cmd/genschema
//
// Output:
//
//	docs/schema/mpfs-schema.json
//	docs/reference/config.md
//	docs/reference/cli.md
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/mpremote-tools/mpfs/internal/docgen"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "genschema: %v\n", err) //nolint:errcheck // best-effort stderr
		os.Exit(1)
	}
}

func run() error {
	if _, err := os.Stat("go.mod"); err != nil {
		return fmt.Errorf("must run from repository root (go.mod not found)")
	}
	for _, dir := range []string{"docs/schema", "docs/reference"} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	s, err := docgen.GenerateConfigSchema(true)
	if err != nil {
		return fmt.Errorf("generating config schema: %w", err)
	}
	if err := docgen.WriteSchema("docs/schema/mpfs-schema.json", s); err != nil {
		return err
	}
	if err := docgen.WriteMarkdown("docs/reference/config.md", s); err != nil {
		return err
	}

	// The CLI reference needs the real command tree, which lives in package
	// main of cmd/mpfs.
	genDoc := exec.Command("go", "run", "./cmd/mpfs", "gen-doc", "docs/reference/cli.md")
	genDoc.Stdout = os.Stdout
	genDoc.Stderr = os.Stderr
	if err := genDoc.Run(); err != nil {
		return fmt.Errorf("generating CLI docs: %w", err)
	}

	fmt.Println("Generated:")
	for _, f := range []string{"docs/schema/mpfs-schema.json", "docs/reference/config.md", "docs/reference/cli.md"} {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
