package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/devtree"
	"github.com/mpremote-tools/mpfs/internal/listing"
)

func newLsCmd(s streams) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a device directory",
		Long: `List the entries of a device directory, directories first.

Output uses the device tool's own line format: size, then name, with a
trailing "/" on directories. With --json each entry is printed as a tree
node carrying its URI and display size.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) == 1 {
				p = args[0]
			}
			return withApp(cmd.Context(), s, "ls", func(a *app) int {
				if jsonOut {
					nodes := a.tree.Nodes(cmd.Context(), p)
					enc := json.NewEncoder(s.out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(nodes); err != nil {
						s.errorf("ls", "%v", err)
						return 1
					}
					return 0
				}
				fmt.Fprint(s.out, listing.Format(a.tree.Children(cmd.Context(), p))) //nolint:errcheck // best-effort stdout
				return 0
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print tree nodes as JSON")
	return cmd
}

func newTreeCmd(s streams) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Show the device directory tree",
		Long: `Expand a device directory recursively, one listing per directory.
Files show their size.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) == 1 {
				p = args[0]
			}
			return withApp(cmd.Context(), s, "tree", func(a *app) int {
				fmt.Fprintln(s.out, listing.CleanPath(p)) //nolint:errcheck // best-effort stdout
				err := a.tree.Walk(cmd.Context(), p, depth, func(d int, e listing.Entry) error {
					indent := strings.Repeat("  ", d+1)
					if e.IsDir() {
						_, err := fmt.Fprintf(s.out, "%s%s/\n", indent, e.Name)
						return err
					}
					_, err := fmt.Fprintf(s.out, "%s%s (%s)\n", indent, e.Name, devtree.FormatSize(e.Size))
					return err
				})
				if err != nil {
					s.errorf("tree", "%v", err)
					return 1
				}
				return 0
			})
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "L", -1, "maximum depth below path (-1 = unlimited)")
	return cmd
}

func newCatCmd(s streams) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "cat <path|uri>",
		Short: "Print a device file",
		Long: `Print the content of a device file with line endings normalised.

Accepts a device path or an mpremote: URI. Files under /lib belong to
installed packages and are not shown unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := args[0]
			if strings.HasPrefix(p, devtree.Scheme+":") {
				var err error
				if p, err = devtree.ParseURI(p); err != nil {
					s.errorf("cat", "%v", err)
					return errExit
				}
			}
			return showFile(cmd, s, "cat", p, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "show library files too")
	return cmd
}

func newURICmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "uri <path>",
		Short: "Print the URI addressing a device path",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			fmt.Fprintln(s.out, devtree.URIFor(args[0])) //nolint:errcheck // best-effort stdout
		},
	}
}

func newOpenCmd(s streams) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "open <uri>",
		Short: "Print the device file addressed by a URI",
		Long: `Print the device file addressed by an mpremote: URI. Like cat, library
files need --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := devtree.ParseURI(args[0])
			if err != nil {
				s.errorf("open", "%v", err)
				return errExit
			}
			return showFile(cmd, s, "open", p, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "show library files too")
	return cmd
}

// showFile prints the device file at p. Library files are refused without
// force; a read that only produced a placeholder exits 1.
func showFile(cmd *cobra.Command, s streams, name, p string, force bool) error {
	if n := devtree.NodeFor(listing.Entry{Name: listing.Base(p), Kind: listing.File, Path: listing.CleanPath(p)}); !n.Openable && !force {
		s.errorf(name, "%s is a library file; use --force to view it", n.Path)
		return errExit
	}
	return withApp(cmd.Context(), s, name, func(a *app) int {
		body, ok := a.content.Load(cmd.Context(), p)
		fmt.Fprint(s.out, body) //nolint:errcheck // best-effort stdout
		if !ok {
			fmt.Fprintln(s.out) //nolint:errcheck // best-effort stdout
			return 1
		}
		return 0
	})
}
