package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/config"
	"github.com/mpremote-tools/mpfs/internal/confirm"
	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/devtree"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/fsys"
	"github.com/mpremote-tools/mpfs/internal/logging"
	"github.com/mpremote-tools/mpfs/internal/notify"
	"github.com/mpremote-tools/mpfs/internal/ops"
	"github.com/mpremote-tools/mpfs/internal/prefs"
	"github.com/mpremote-tools/mpfs/internal/telemetry"
)

// dedupWindow is how long an identical notification stays suppressed.
const dedupWindow = 2 * time.Second

// app is everything a command needs, wired from the resolved config.
type app struct {
	cfg      *config.Config
	stateDir string
	log      zerolog.Logger

	runner  *devcmd.Executor
	report  notify.Reporter
	events  *events.FileRecorder
	prefs   *prefs.File
	confirm *confirm.Engine
	tree    *devtree.Tree
	content *devtree.Content
	ops     *ops.Engine

	telemetry *telemetry.Provider
}

// openApp resolves the config and state directory and wires the
// components. The caller must Close the result.
func openApp(ctx context.Context, s streams, opts ...ops.Option) (*app, error) {
	log, err := logging.New(s.err, logLevelFlag)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(fsys.OSFS{}, configFlag, cwd)
	if err != nil {
		return nil, err
	}
	stateDir, err := cfg.StateDir(os.Getenv)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, stateDir: stateDir, log: log}
	if a.telemetry, err = telemetry.Init(ctx, version); err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	}
	a.runner, err = devcmd.New(cfg.Device.Tool,
		devcmd.WithDir(cfg.Root),
		devcmd.WithLogger(log.With().Str("component", "devcmd").Logger()))
	if err != nil {
		return nil, err
	}
	a.events, err = events.NewFileRecorder(filepath.Join(stateDir, events.FileName), s.err)
	if err != nil {
		return nil, err
	}
	a.report = notify.NewDedup(notify.NewWriter(s.err), dedupWindow)
	a.prefs = prefs.NewFile(fsys.OSFS{}, filepath.Join(stateDir, prefs.FileName))
	a.confirm = confirm.New(a.prefs, newTermPrompter(s.in, s.err),
		log.With().Str("component", "confirm").Logger())
	a.tree = devtree.New(a.runner, a.report, log.With().Str("component", "tree").Logger())
	a.content = devtree.NewContent(a.runner, a.report, log.With().Str("component", "content").Logger())

	base := []ops.Option{
		ops.WithReporter(a.report),
		ops.WithEvents(a.events),
		ops.WithRefresher(a.tree),
		ops.WithLogger(log.With().Str("component", "ops").Logger()),
		ops.WithActor(actor()),
		ops.WithIgnoreFile(cfg.Sync.IgnoreFile),
	}
	a.ops = ops.New(a.runner, a.confirm, append(base, opts...)...)
	return a, nil
}

// Close flushes telemetry and closes the event log.
func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing event log")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("flushing telemetry")
	}
}

// actor names the user in the audit log.
func actor() string {
	for _, k := range []string{"MPFS_ACTOR", "USER", "USERNAME"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return "mpfs"
}

// withApp opens the app for the named command, reporting setup errors.
func withApp(ctx context.Context, s streams, name string, fn func(a *app) int, opts ...ops.Option) error {
	a, err := openApp(ctx, s, opts...)
	if err != nil {
		s.errorf(name, "%v", err)
		return errExit
	}
	defer a.Close()
	if fn(a) != 0 {
		return errExit
	}
	return nil
}

// printResult writes the outcome of a mutation and returns the exit code.
// Failures were already reported through the notifier.
func printResult(w io.Writer, r ops.Result) int {
	switch r.Status {
	case ops.Failed:
		return 1
	case ops.Cancelled:
		fmt.Fprintln(w, "Cancelled.") //nolint:errcheck // best-effort stdout
	default:
		if r.Message != "" {
			fmt.Fprintln(w, r.Message) //nolint:errcheck // best-effort stdout
		}
	}
	return 0
}
