// Package classify maps raw tool output to a closed set of error kinds.
//
// The device tool reports every failure as free text on stderr and does not
// distinguish failure modes through its exit status, so substring matching
// against a fixed, ordered rule table is the only discriminator available.
// All user-facing error semantics of the bridge derive from [Classify] and
// [Outcome]; callers never inspect raw stderr themselves.
package classify

import "strings"

// Kind is the category assigned to a piece of tool output.
type Kind int

const (
	// None means there was nothing to classify (empty text).
	None Kind = iota
	// DeviceNotFound means the tool found no device, or the device is held
	// by another process.
	DeviceNotFound
	// NotConnected means the tool reported that no device is connected.
	NotConnected
	// PathNotFound means the requested device path does not exist.
	PathNotFound
	// OperationError means the tool reported an explicit "Error:" failure.
	OperationError
	// Informational is non-error chatter on stderr from a successful run.
	Informational
	// Unknown is unrecognised text from a failed run.
	Unknown
)

var kindNames = [...]string{
	None:           "none",
	DeviceNotFound: "device-not-found",
	NotConnected:   "not-connected",
	PathNotFound:   "path-not-found",
	OperationError: "operation-error",
	Informational:  "informational",
	Unknown:        "unknown",
}

// String returns the kebab-case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// DeviceUnavailable reports whether k means the device cannot be reached.
func (k Kind) DeviceUnavailable() bool {
	return k == DeviceNotFound || k == NotConnected
}

// Failed reports whether k should abort the operation that produced it.
func (k Kind) Failed() bool {
	switch k {
	case DeviceNotFound, NotConnected, PathNotFound, OperationError, Unknown:
		return true
	}
	return false
}

// rule is one row of the classification table.
type rule struct {
	substr string
	kind   Kind
}

// rules is evaluated in order; the first match wins.
var rules = []rule{
	{"no device found", DeviceNotFound},
	{"no device connected", NotConnected},
	{"No such file or directory", PathNotFound},
	{"failed to stat", PathNotFound},
	{"Error:", OperationError},
	{"error:", OperationError},
}

// Classify assigns a kind to stderr text or a failure message. Matching is
// case-sensitive. Empty or whitespace-only text is [None]; text matching no
// rule is [Unknown].
func Classify(text string) Kind {
	if strings.TrimSpace(text) == "" {
		return None
	}
	for _, r := range rules {
		if strings.Contains(text, r.substr) {
			return r.kind
		}
	}
	return Unknown
}

// Outcome classifies the stderr of one command run. failed reports whether
// the run exited non-zero or could not be spawned. Unrecognised stderr on a
// successful run is [Informational]; the same text on a failed run stays
// [Unknown]. A failed run with no text at all is [Unknown].
func Outcome(stderr string, failed bool) Kind {
	k := Classify(stderr)
	switch {
	case k == Unknown && !failed:
		return Informational
	case k == None && failed:
		return Unknown
	}
	return k
}

// FirstLine returns the first non-blank line of text, trimmed.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}

// rootUnremovable are the fragments the tool prints when a recursive delete
// of the device root empties it but cannot remove the mount point itself.
var rootUnremovable = []string{"cannot remove :/", "Operation not permitted"}

// IsRootUnremovable reports whether line is the benign message emitted at
// the end of a whole-device wipe.
func IsRootUnremovable(line string) bool {
	for _, frag := range rootUnremovable {
		if !strings.Contains(line, frag) {
			return false
		}
	}
	return true
}

// WithoutRootUnremovable returns text with every benign root-removal line
// dropped, so the remainder can be classified on its own.
func WithoutRootUnremovable(text string) string {
	var keep []string
	for _, line := range strings.Split(text, "\n") {
		if IsRootUnremovable(line) {
			continue
		}
		keep = append(keep, line)
	}
	return strings.Join(keep, "\n")
}
