// Package devcmd invokes the external device tool (mpremote by default).
//
// The executor knows nothing about the device: it runs one process per
// call, captures stdout and stderr, and turns non-zero exits and spawn
// errors into [*Failure]. It never retries and imposes no timeout of its
// own; the caller's context is the only way to cut a call short.
package devcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/telemetry"
)

// DefaultTool is the device tool used when none is configured.
const DefaultTool = "mpremote"

// Outcome is the captured output of a successful run. Stderr may be
// non-empty even on success and must be classified by the caller.
type Outcome struct {
	Stdout string
	Stderr string
}

// Failure is returned when the tool exits non-zero or cannot be started.
// Stderr holds the raw stream and may be empty (spawn errors); Message
// always describes the failure.
type Failure struct {
	Args     []string
	Stdout   string
	Stderr   string
	Message  string
	ExitCode int // -1 when the process never ran
}

// Error implements error.
func (f *Failure) Error() string {
	detail := strings.TrimSpace(f.Stderr)
	if detail == "" {
		detail = f.Message
	}
	return fmt.Sprintf("device %s: %s", strings.Join(f.Args, " "), detail)
}

// Text returns stderr when present, otherwise the failure message. This is
// what gets classified.
func (f *Failure) Text() string {
	if strings.TrimSpace(f.Stderr) != "" {
		return f.Stderr
	}
	return f.Message
}

// AsFailure unwraps err into a *Failure. Errors of any other type are
// wrapped as a spawn-level failure so callers handle a single shape.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Message: err.Error(), ExitCode: -1}
}

// Runner runs one device tool invocation. Implementations must be safe
// for concurrent use.
type Runner interface {
	Run(ctx context.Context, args ...string) (Outcome, error)
}

// Stdio bundles the streams an interactive invocation is attached to.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Executor implements [Runner] with os/exec.
type Executor struct {
	argv []string // tool program followed by its fixed arguments
	dir  string
	log  zerolog.Logger
}

// Option configures an [Executor].
type Option func(*Executor)

// WithDir sets the working directory of every spawned process. Local
// paths given to cp are resolved against it.
func WithDir(dir string) Option {
	return func(e *Executor) { e.dir = dir }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// New returns an Executor for tool, a command line that may carry its own
// arguments (for example "mpremote connect /dev/ttyACM0"). It is split with
// POSIX shell quoting rules.
func New(tool string, opts ...Option) (*Executor, error) {
	if strings.TrimSpace(tool) == "" {
		tool = DefaultTool
	}
	argv, err := shellquote.Split(tool)
	if err != nil {
		return nil, fmt.Errorf("parsing device tool %q: %w", tool, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("parsing device tool %q: empty command", tool)
	}
	e := &Executor{argv: argv, log: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Program returns the executable the tool command line starts.
func (e *Executor) Program() string { return e.argv[0] }

// CommandLine renders the full command for args, quoted for a shell.
func (e *Executor) CommandLine(args ...string) string {
	return shellquote.Join(append(append([]string{}, e.argv...), args...)...)
}

func (e *Executor) command(ctx context.Context, args []string) *exec.Cmd {
	full := append(append([]string{}, e.argv[1:]...), args...)
	cmd := exec.CommandContext(ctx, e.argv[0], full...)
	cmd.Dir = e.dir
	return cmd
}

// Run executes the tool once with args and waits for it to exit.
func (e *Executor) Run(ctx context.Context, args ...string) (Outcome, error) {
	start := time.Now()
	cmd := e.command(ctx, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Outcome{Stdout: stdout.String(), Stderr: stderr.String()}
	telemetry.RecordDeviceCall(ctx, args, float64(time.Since(start).Milliseconds()),
		err, out.Stdout, out.Stderr)
	e.log.Debug().Strs("args", args).Dur("took", time.Since(start)).Err(err).Msg("device call")
	if err != nil {
		return out, newFailure(args, out, err)
	}
	return out, nil
}

func newFailure(args []string, out Outcome, err error) *Failure {
	f := &Failure{
		Args:     append([]string{}, args...),
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Message:  err.Error(),
		ExitCode: -1,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		f.ExitCode = exitErr.ExitCode()
	}
	return f
}

// Attach runs an interactive invocation (repl, run) with the given streams
// and waits for the user to leave it.
func (e *Executor) Attach(ctx context.Context, stdio Stdio, args ...string) error {
	cmd := e.command(ctx, args)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err
	if err := cmd.Run(); err != nil {
		return newFailure(args, Outcome{}, err)
	}
	return nil
}

// Launch starts the tool with args and detaches from it without waiting.
// Returns the child's pid.
func (e *Executor) Launch(args ...string) (int, error) {
	cmd := e.command(context.Background(), args)
	if err := cmd.Start(); err != nil {
		return 0, newFailure(args, Outcome{}, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("releasing %s: %w", e.CommandLine(args...), err)
	}
	return pid, nil
}
