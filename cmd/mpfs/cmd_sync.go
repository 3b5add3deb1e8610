package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/ops"
)

func newSyncCmd(s streams) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "sync [dir]",
		Short: "Upload a local directory to the device root",
		Long: `Copy every entry of a local directory to the device root, one copy
per entry. Entries matching the ignore file (sync.ignore_file, default
.mpfsignore) are skipped.

The directory defaults to sync.source from mpfs.toml. With --watch, mpfs
keeps running and uploads again whenever files change.`,
		Example: `  mpfs sync
  mpfs sync build/device
  mpfs sync --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var progress ops.Progress = &lineProgress{w: s.err}
			if isTerminal(s.err) {
				progress = &barProgress{w: s.err}
			}
			return withApp(cmd.Context(), s, "sync", func(a *app) int {
				dir := a.cfg.SourceDir()
				if len(args) == 1 {
					abs, err := filepath.Abs(args[0])
					if err != nil {
						s.errorf("sync", "%v", err)
						return 1
					}
					dir = abs
				}
				if !watch {
					return printResult(s.out, a.ops.Upload(cmd.Context(), dir))
				}
				printResult(s.out, a.ops.Upload(cmd.Context(), dir))
				fmt.Fprintf(s.err, "Watching %s (Ctrl-C to stop)\n", dir) //nolint:errcheck // best-effort stderr
				err := a.ops.Watch(cmd.Context(), dir, a.cfg.Debounce(), func(r ops.Result) {
					printResult(s.out, r)
				})
				if err != nil {
					s.errorf("sync", "%v", err)
					return 1
				}
				return 0
			}, ops.WithProgress(progress))
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "upload again whenever files change")
	return cmd
}
