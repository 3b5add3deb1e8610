// Package confirm gates destructive device mutations behind a
// confirmation policy.
//
// Deletes of ordinary paths may skip their prompt once the user has chosen
// "don't ask again" for that kind of delete. Critical paths (the boot
// scripts and the library tree) always prompt and never offer that choice,
// whatever the stored preference says. A whole-device wipe has no
// preference and always prompts.
package confirm

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/listing"
	"github.com/mpremote-tools/mpfs/internal/prefs"
	"github.com/mpremote-tools/mpfs/internal/telemetry"
)

// Op is a destructive action that needs approval.
type Op int

const (
	// FileDelete removes one file.
	FileDelete Op = iota
	// FolderDelete removes a directory recursively.
	FolderDelete
	// Wipe removes everything on the device.
	Wipe
)

// String returns the op name used in logs and telemetry.
func (o Op) String() string {
	switch o {
	case FileDelete:
		return "file-delete"
	case FolderDelete:
		return "folder-delete"
	case Wipe:
		return "wipe"
	}
	return "invalid"
}

// Risk is the risk class of a target path.
type Risk int

const (
	// Normal paths honour the skip preference.
	Normal Risk = iota
	// Critical paths always prompt.
	Critical
)

func (r Risk) String() string {
	if r == Critical {
		return "critical"
	}
	return "normal"
}

// Boot scripts the firmware runs on every start.
var systemFiles = map[string]bool{"/boot.py": true, "/main.py": true}

// LibRoot is the package installation directory.
const LibRoot = "/lib"

// RiskOf classifies the target of op. Wipe is always critical, as is a
// recursive delete of the root, which amounts to one.
func RiskOf(op Op, p string) Risk {
	p = listing.CleanPath(p)
	switch {
	case op == Wipe:
		return Critical
	case op == FolderDelete && p == "/":
		return Critical
	case systemFiles[p], listing.Within(p, LibRoot):
		return Critical
	}
	return Normal
}

// Choice is a button the user can pick.
type Choice string

// The choices a prompt may offer.
const (
	Yes          Choice = "Yes"
	YesDontAsk   Choice = "Yes, don't ask again"
	DeleteAnyway Choice = "Delete anyway"
	Cancel       Choice = "Cancel"
)

// Prompt is one question for the user.
type Prompt struct {
	Op       Op
	Path     string
	Message  string
	Detail   string // why the target is risky; empty for normal paths
	Choices  []Choice
	Critical bool
}

// Offers reports whether c is one of the prompt's choices.
func (p Prompt) Offers(c Choice) bool {
	for _, o := range p.Choices {
		if o == c {
			return true
		}
	}
	return false
}

// Prompter asks the user and delivers the answer on the returned channel.
// Closing the channel without a value means the prompt was dismissed.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt) <-chan Choice
}

// PrompterFunc adapts a function to [Prompter].
type PrompterFunc func(ctx context.Context, p Prompt) <-chan Choice

// Prompt calls f.
func (f PrompterFunc) Prompt(ctx context.Context, p Prompt) <-chan Choice { return f(ctx, p) }

// State is a step of a decision.
type State int

// Decision states. Evaluating and PromptPending are transient; a returned
// Decision is AutoApproved, Approved or Cancelled.
const (
	Evaluating State = iota
	AutoApproved
	PromptPending
	Approved
	Cancelled
)

func (s State) String() string {
	switch s {
	case Evaluating:
		return "evaluating"
	case AutoApproved:
		return "auto-approved"
	case PromptPending:
		return "prompt-pending"
	case Approved:
		return "approved"
	case Cancelled:
		return "cancelled"
	}
	return "invalid"
}

// Decision is the outcome of [Engine.Decide].
type Decision struct {
	State  State
	Risk   Risk
	Choice Choice // empty unless a prompt was answered
	// Err is set when the preference store failed. Reads fall back to
	// prompting; a failed "don't ask again" write still approves.
	Err error
}

// Proceed reports whether the action may run.
func (d Decision) Proceed() bool {
	return d.State == AutoApproved || d.State == Approved
}

// Engine evaluates the confirmation policy.
type Engine struct {
	mu       sync.Mutex // serialises preference reads and writes
	store    prefs.Store
	prompter Prompter
	log      zerolog.Logger
}

// New returns an Engine that persists through store and asks via prompter.
func New(store prefs.Store, prompter Prompter, log zerolog.Logger) *Engine {
	return &Engine{store: store, prompter: prompter, log: log}
}

// Decide runs the policy for op on path p. It blocks until the prompt, if
// any, is answered or ctx is done. It never fails: problems resolve to
// Cancelled or are attached to the decision.
func (e *Engine) Decide(ctx context.Context, op Op, p string) Decision {
	p = listing.CleanPath(p)
	d := Decision{State: Evaluating, Risk: RiskOf(op, p)}

	if op != Wipe && d.Risk == Normal {
		skip, err := e.skip(ctx, op)
		if err != nil {
			e.log.Warn().Err(err).Stringer("op", op).Msg("reading confirmation preferences")
			d.Err = err
		}
		if skip {
			d.State = AutoApproved
			e.record(ctx, op, p, d, false)
			return d
		}
	}

	d.State = PromptPending
	pr := PromptFor(op, p)
	var (
		c  Choice
		ok bool
	)
	select {
	case c, ok = <-e.prompter.Prompt(ctx, pr):
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		// An answer racing a done context does not count.
		c, ok = "", false
	}
	switch {
	case !ok || !pr.Offers(c) || c == Cancel:
		if ok && !pr.Offers(c) {
			e.log.Warn().Str("choice", string(c)).Msg("prompt answered with a choice it did not offer")
		}
		d.State = Cancelled
	case c == YesDontAsk:
		d.State = Approved
		if err := e.persistSkip(ctx, op); err != nil {
			e.log.Warn().Err(err).Stringer("op", op).Msg("saving confirmation preference")
			d.Err = err
		}
	default:
		d.State = Approved
	}
	if ok {
		d.Choice = c
	}
	e.record(ctx, op, p, d, true)
	return d
}

func (e *Engine) skip(ctx context.Context, op Op) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pr, err := e.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if op == FolderDelete {
		return pr.SkipFolderDeleteConfirm, nil
	}
	return pr.SkipFileDeleteConfirm, nil
}

func (e *Engine) persistSkip(ctx context.Context, op Op) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Update(ctx, func(pr *prefs.Preferences) {
		if op == FolderDelete {
			pr.SkipFolderDeleteConfirm = true
		} else {
			pr.SkipFileDeleteConfirm = true
		}
	})
}

// ResetPreferences makes every delete prompt again.
func (e *Engine) ResetPreferences(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Update(ctx, func(pr *prefs.Preferences) { *pr = prefs.Preferences{} }); err != nil {
		return fmt.Errorf("resetting confirmations: %w", err)
	}
	return nil
}

func (e *Engine) record(ctx context.Context, op Op, p string, d Decision, prompted bool) {
	telemetry.RecordConfirm(ctx, op.String(), p, d.State.String(), d.Risk == Critical, prompted)
	e.log.Debug().Stringer("op", op).Str("path", p).Stringer("risk", d.Risk).
		Stringer("state", d.State).Str("choice", string(d.Choice)).Msg("confirmation")
}
