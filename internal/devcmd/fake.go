package devcmd

import (
	"context"
	"strings"
	"sync"
)

// Response is one scripted reply of [Fake].
type Response struct {
	Stdout   string
	Stderr   string
	Fail     bool   // return a *Failure instead of an Outcome
	Message  string // failure message; defaults to "exit status 1"
	ExitCode int
}

// Fake is a scripted [Runner] for tests. It records every call (spy) and
// answers from Responses keyed by the space-joined args, falling back to
// Default. Safe for concurrent use.
type Fake struct {
	mu        sync.Mutex
	Responses map[string]Response
	Default   Response
	Calls     [][]string
}

// NewFake returns a Fake whose unscripted calls succeed with no output.
func NewFake() *Fake {
	return &Fake{Responses: make(map[string]Response)}
}

// On scripts the response for the call whose args join to key.
func (f *Fake) On(key string, r Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[key] = r
	return f
}

// Run records the call and returns the scripted response.
func (f *Fake) Run(_ context.Context, args ...string) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, append([]string{}, args...))
	r, ok := f.Responses[strings.Join(args, " ")]
	if !ok {
		r = f.Default
	}
	out := Outcome{Stdout: r.Stdout, Stderr: r.Stderr}
	if !r.Fail {
		return out, nil
	}
	msg := r.Message
	if msg == "" {
		msg = "exit status 1"
	}
	code := r.ExitCode
	if code == 0 {
		code = 1
	}
	return out, &Failure{
		Args:     append([]string{}, args...),
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		Message:  msg,
		ExitCode: code,
	}
}

// CallLines returns the recorded calls as space-joined strings.
func (f *Fake) CallLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = strings.Join(c, " ")
	}
	return lines
}
