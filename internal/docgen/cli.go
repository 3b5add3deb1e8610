package docgen

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RenderCLIMarkdown writes a reference for every visible command under
// root: description, synopsis, example, flags and subcommands.
func RenderCLIMarkdown(w io.Writer, root *cobra.Command) error {
	ew := &errWriter{w: w}
	ew.printf("# CLI Reference\n\n")
	ew.printf(generatedNote)
	if flags := visibleFlags(root.PersistentFlags()); len(flags) > 0 {
		ew.printf("## Global Flags\n\n")
		flagTable(ew, flags)
	}
	walkCommands(ew, root)
	return ew.err
}

// WriteCLIMarkdown renders the CLI reference to path atomically.
func WriteCLIMarkdown(path string, root *cobra.Command) error {
	return writeAtomic(path, func(w io.Writer) error { return RenderCLIMarkdown(w, root) })
}

func walkCommands(ew *errWriter, cmd *cobra.Command) {
	ew.printf("## %s\n\n", cmd.CommandPath())
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		ew.printf("%s\n\n", strings.TrimSpace(desc))
	}
	ew.printf("```\n%s\n```\n\n", cmd.UseLine())
	if cmd.Example != "" {
		ew.printf("**Example:**\n\n```\n%s\n```\n\n", strings.TrimSpace(cmd.Example))
	}
	if flags := visibleFlags(cmd.LocalNonPersistentFlags()); len(flags) > 0 {
		flagTable(ew, flags)
	}

	var children []*cobra.Command
	for _, c := range cmd.Commands() {
		if !c.Hidden && c.Name() != "help" && c.Name() != "completion" {
			children = append(children, c)
		}
	}
	if len(children) > 0 {
		ew.printf("| Subcommand | Description |\n|------------|-------------|\n")
		for _, c := range children {
			anchor := strings.ToLower(strings.ReplaceAll(c.CommandPath(), " ", "-"))
			ew.printf("| [%s](#%s) | %s |\n", c.CommandPath(), anchor, c.Short)
		}
		ew.printf("\n")
	}
	for _, c := range children {
		walkCommands(ew, c)
	}
}

type flagInfo struct {
	name, typ, def, usage string
}

func visibleFlags(fs *pflag.FlagSet) []flagInfo {
	var out []flagInfo
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "`--" + f.Name + "`"
		if f.Shorthand != "" {
			name = "`-" + f.Shorthand + "`, " + name
		}
		def := ""
		if !zeroDefault(f.DefValue) {
			def = "`" + f.DefValue + "`"
		}
		out = append(out, flagInfo{name: name, typ: f.Value.Type(), def: def, usage: tableCell(f.Usage)})
	})
	return out
}

func zeroDefault(v string) bool {
	switch v {
	case "", "false", "0", "[]", "0s":
		return true
	}
	return false
}

func flagTable(ew *errWriter, flags []flagInfo) {
	ew.printf("| Flag | Type | Default | Description |\n|------|------|---------|-------------|\n")
	for _, f := range flags {
		ew.printf("| %s | %s | %s | %s |\n", f.name, f.typ, f.def, f.usage)
	}
	ew.printf("\n")
}
