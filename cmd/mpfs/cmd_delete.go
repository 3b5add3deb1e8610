package main

import (
	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/ops"
)

func newRmCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a device file",
		Long: `Delete one file from the device after confirmation.

boot.py, main.py and anything under /lib always ask, even when file
deletes were set to "don't ask again".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, "rm", func(a *app) int {
				return printResult(s.out, a.ops.DeleteFile(cmd.Context(), args[0]))
			})
		},
	}
}

func newRmdirCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <path>",
		Short: "Delete a device directory and its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), s, "rmdir", func(a *app) int {
				return printResult(s.out, a.ops.DeleteFolder(cmd.Context(), args[0]))
			})
		},
	}
}

func newWipeCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Delete everything on the device",
		Long:  `Remove every file and directory on the device. Always asks first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, "wipe", func(a *app) int {
				return printResult(s.out, a.ops.Wipe(cmd.Context()))
			})
		},
	}
}

func newResetConfirmationsCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-confirmations",
		Short: `Forget "don't ask again" answers`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), s, "reset-confirmations", func(a *app) int {
				r := a.ops.ResetConfirmations(cmd.Context(), a.confirm)
				if r.Status == ops.Done {
					r.Message = "Delete confirmations will be shown again."
				}
				return printResult(s.out, r)
			})
		},
	}
}
