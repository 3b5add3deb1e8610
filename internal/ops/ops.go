// Package ops runs the mutating device operations: single deletes, the
// whole-device wipe, project upload, and device control.
//
// Every destructive operation passes the confirmation gate first. Each
// tool call is classified right after it returns; callers get a [Result]
// and never see raw stderr. Every mutation is written to the audit log,
// including cancelled ones.
package ops

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/confirm"
	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/fsys"
	"github.com/mpremote-tools/mpfs/internal/notify"
	"github.com/mpremote-tools/mpfs/internal/telemetry"
)

// Status is how an operation ended.
type Status int

const (
	// Done means the operation completed.
	Done Status = iota
	// Cancelled means the user declined at the prompt or ctx ended.
	Cancelled
	// Failed means the device reported an error.
	Failed
	// Skipped means there was nothing to do.
	Skipped
)

func (s Status) String() string {
	switch s {
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "invalid"
}

// Result describes the end of one operation.
type Result struct {
	Status  Status
	Kind    classify.Kind // classification of the deciding tool output
	Message string
	Refresh bool // device contents changed; tree views should re-expand
}

// OK reports whether the operation did not fail.
func (r Result) OK() bool { return r.Status != Failed }

// Decider approves destructive operations.
type Decider interface {
	Decide(ctx context.Context, op confirm.Op, p string) confirm.Decision
}

// Refresher is told when device contents changed.
type Refresher interface {
	Refresh()
}

// Progress observes an upload entry by entry.
type Progress interface {
	Start(total int)
	Advance(name string)
	Finish()
}

// Engine runs operations against one device.
type Engine struct {
	runner     devcmd.Runner
	decider    Decider
	report     notify.Reporter
	events     events.Recorder
	refresher  Refresher
	fs         fsys.FS
	log        zerolog.Logger
	actor      string
	ignoreFile string
	progress   Progress
}

// Option configures an Engine.
type Option func(*Engine)

// WithReporter sets where user-facing failures go.
func WithReporter(r notify.Reporter) Option { return func(e *Engine) { e.report = r } }

// WithEvents sets the audit log.
func WithEvents(r events.Recorder) Option { return func(e *Engine) { e.events = r } }

// WithRefresher sets who is told about content changes.
func WithRefresher(r Refresher) Option { return func(e *Engine) { e.refresher = r } }

// WithFS sets the host filesystem used by uploads.
func WithFS(fs fsys.FS) Option { return func(e *Engine) { e.fs = fs } }

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithActor names who performs operations in the audit log.
func WithActor(a string) Option { return func(e *Engine) { e.actor = a } }

// WithIgnoreFile sets the ignore file name looked up in upload sources.
func WithIgnoreFile(name string) Option { return func(e *Engine) { e.ignoreFile = name } }

// WithProgress sets the upload observer.
func WithProgress(p Progress) Option { return func(e *Engine) { e.progress = p } }

// DefaultIgnoreFile is used unless [WithIgnoreFile] says otherwise.
const DefaultIgnoreFile = ".mpfsignore"

// New returns an Engine running tool calls through runner and asking
// decider before destructive operations.
func New(runner devcmd.Runner, decider Decider, opts ...Option) *Engine {
	e := &Engine{
		runner:     runner,
		decider:    decider,
		report:     notify.Discard,
		events:     events.Discard,
		fs:         fsys.OSFS{},
		log:        zerolog.Nop(),
		actor:      "mpfs",
		ignoreFile: DefaultIgnoreFile,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// call runs the tool and classifies the outcome once. text is what was
// classified: stderr, or the failure text when the run failed.
func (e *Engine) call(ctx context.Context, args ...string) (out devcmd.Outcome, kind classify.Kind, text string) {
	out, err := e.runner.Run(ctx, args...)
	text = out.Stderr
	if err != nil {
		text = devcmd.AsFailure(err).Text()
	}
	return out, classify.Outcome(text, err != nil), text
}

// conclude turns a classified mutation into a Result, reporting failures.
// A missing target counts as done when goneOK is set.
func (e *Engine) conclude(kind classify.Kind, text, action string, goneOK bool) Result {
	switch kind {
	case classify.None:
		return Result{Status: Done, Kind: kind, Refresh: true}
	case classify.Informational:
		e.log.Info().Str("action", action).Str("stderr", classify.FirstLine(text)).Msg("tool output")
		return Result{Status: Done, Kind: kind, Refresh: true}
	case classify.PathNotFound:
		if goneOK {
			e.log.Debug().Str("action", action).Msg("target already gone")
			return Result{Status: Done, Kind: kind, Message: "already gone", Refresh: true}
		}
	}
	n := notify.Failure(kind, action, text)
	e.report.Report(n)
	return Result{Status: Failed, Kind: kind, Message: n.Message}
}

// finish refreshes, audits and records telemetry for a completed op.
func (e *Engine) finish(ctx context.Context, evType, subject string, r Result, payload any) Result {
	if r.Refresh && e.refresher != nil {
		e.refresher.Refresh()
	}
	status := events.StatusDone
	switch r.Status {
	case Failed:
		status = events.StatusFailed
	case Cancelled:
		status = events.StatusCancelled
	}
	ev := events.Event{
		Type:    evType,
		Actor:   e.actor,
		Subject: subject,
		Status:  status,
		Message: r.Message,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	e.events.Record(ev)
	telemetry.RecordMutation(ctx, evType, subject, r.Status.String(), r.Kind.String())
	return r
}

// gate asks for approval. A nil result means go ahead.
func (e *Engine) gate(ctx context.Context, op confirm.Op, p string) *Result {
	d := e.decider.Decide(ctx, op, p)
	if d.Err != nil {
		e.log.Warn().Err(d.Err).Msg("confirmation preferences unavailable")
	}
	if d.Proceed() {
		return nil
	}
	return &Result{Status: Cancelled, Message: "cancelled"}
}
