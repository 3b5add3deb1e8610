// mpfs browses and edits the filesystem of a MicroPython board through the
// mpremote tool, and guards destructive operations behind confirmations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// Global flags.
var (
	configFlag   string
	logLevelFlag string
)

// run executes the mpfs CLI with the given args and streams. Returns the
// exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdin, stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "mpfs: %v\n", err) //nolint:errcheck // best-effort stderr
		}
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "mpfs",
		Short:         "Browse and manage the filesystem of a MicroPython device",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "mpfs: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "",
		"path to mpfs.toml (default: walk up from cwd)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"diagnostics level: debug, info, warn, error, disabled (default $MPFS_LOG_LEVEL or warn)")
	root.CompletionOptions.DisableDefaultCmd = true

	s := streams{in: stdin, out: stdout, err: stderr}
	root.AddCommand(
		newLsCmd(s),
		newTreeCmd(s),
		newCatCmd(s),
		newURICmd(s),
		newOpenCmd(s),
		newRmCmd(s),
		newRmdirCmd(s),
		newWipeCmd(s),
		newSyncCmd(s),
		newDfCmd(s),
		newSoftResetCmd(s),
		newResetCmd(s),
		newInstallCmd(s),
		newReplCmd(s),
		newRunCmd(s),
		newResetConfirmationsCmd(s),
		newEventsCmd(s),
		newDoctorCmd(s),
		newVersionCmd(stdout),
	)
	root.AddCommand(newGenDocCmd(stdout, stderr, root))
	return root
}

// streams are the process streams handed to every command.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func (s streams) errorf(cmd, format string, args ...any) {
	fmt.Fprintf(s.err, "mpfs %s: %s\n", cmd, fmt.Sprintf(format, args...)) //nolint:errcheck // best-effort stderr
}
