package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/ops"
)

func newDfCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "df",
		Short: "Show device storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, "df", func(a *app) int {
				_, r := a.ops.StorageStatus(cmd.Context())
				fmt.Fprintln(s.out, r.Message) //nolint:errcheck // best-effort stdout
				if r.Status != ops.Done {
					return 1
				}
				return 0
			})
		},
	}
}

func newSoftResetCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "soft-reset",
		Short: "Restart the interpreter without rebooting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, "soft-reset", func(a *app) int {
				return printResult(s.out, a.ops.SoftReset(cmd.Context()))
			})
		},
	}
}

func newResetCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reboot the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, "reset", func(a *app) int {
				return printResult(s.out, a.ops.HardReset(cmd.Context()))
			})
		},
	}
}

func newInstallCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:     "install <package>",
		Short:   "Install a package on the device with mip",
		Example: `  mpfs install umqtt.simple`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, "install", func(a *app) int {
				r := a.ops.InstallPackage(cmd.Context(), args[0])
				if r.Status == ops.Skipped {
					s.errorf("install", "%s", r.Message)
					return 1
				}
				if r.Status == ops.Done {
					// Already shown by the notifier.
					r.Message = ""
				}
				return printResult(s.out, r)
			})
		},
	}
}

func newReplCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Open the device REPL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, "repl", func(a *app) int {
				return attach(a, s, cmd, "repl")
			})
		},
	}
}

func newRunCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a local script on the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				s.errorf("run", "%v", err)
				return errExit
			}
			return withApp(cmd.Context(), s, "run", func(a *app) int {
				return attach(a, s, cmd, "run", file)
			})
		},
	}
}

// attach hands the terminal to an interactive tool session.
func attach(a *app, s streams, cmd *cobra.Command, args ...string) int {
	err := a.runner.Attach(cmd.Context(), devcmd.Stdio{In: s.in, Out: s.out, Err: s.err}, args...)
	if err == nil {
		return 0
	}
	f := devcmd.AsFailure(err)
	if f.ExitCode < 0 {
		s.errorf(args[0], "%s", f.Message)
		return 1
	}
	a.log.Debug().Err(err).Strs("args", args).Msg("interactive session ended")
	return f.ExitCode
}
