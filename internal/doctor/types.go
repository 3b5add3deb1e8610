// Package doctor runs health checks on an mpfs setup: the project config,
// the device tool, the state directory and the device connection. Checks
// stream their results as they complete; fixable problems are repaired on
// request.
package doctor

import "context"

// CheckStatus represents the outcome of a health check.
type CheckStatus int

const (
	// StatusOK means the check passed.
	StatusOK CheckStatus = iota
	// StatusWarning means the check found a non-critical issue.
	StatusWarning
	// StatusError means the check found a problem that stops mpfs working.
	StatusError
)

// Check is a single diagnostic check.
type Check interface {
	// Name returns a short, unique identifier (e.g. "device-tool").
	Name() string
	// Run executes the check.
	Run(cc *CheckContext) *CheckResult
	// CanFix reports whether this check supports automatic remediation.
	CanFix() bool
	// Fix remediates the issue found by Run. Only called when CanFix
	// returns true and Run returned a non-OK status.
	Fix(cc *CheckContext) error
}

// CheckContext carries shared state for all checks during a run.
type CheckContext struct {
	// Ctx bounds checks that talk to the device.
	Ctx context.Context
	// Root is the project directory.
	Root string
	// Verbose enables extra diagnostic output.
	Verbose bool
}

func (cc *CheckContext) context() context.Context {
	if cc.Ctx == nil {
		return context.Background()
	}
	return cc.Ctx
}

// CheckResult holds the outcome of a single check execution.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	// Details holds extra lines shown only in verbose mode.
	Details []string
	// FixHint is shown when the check fails and was not fixed.
	FixHint string
	// Fixed is true when --fix repaired the issue.
	Fixed bool
}
