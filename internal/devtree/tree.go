// Package devtree presents the device filesystem as a lazily expanded tree
// and serves file contents for read-only viewing.
//
// Nothing is cached. Every expansion and every read goes back to the
// device, which is the single source of truth and may change between
// calls. The cost is redundant tool invocations, which is cheap next to
// human interaction latency.
package devtree

import (
	"context"
	"sync"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/listing"
	"github.com/mpremote-tools/mpfs/internal/notify"
)

// LibRoot holds installed packages. Files below it are browsable but not
// opened for editing.
const LibRoot = "/lib"

// Node is a tree item derived from one entry.
type Node struct {
	listing.Entry
	ID          string // device URI, stable across listings
	Collapsible bool   // directories expand on demand
	Description string // human-readable size for files
	Openable    bool   // false for directories and library files
}

// NodeFor derives the tree node for e.
func NodeFor(e listing.Entry) Node {
	n := Node{
		Entry:       e,
		ID:          URIFor(e.Path),
		Collapsible: e.IsDir(),
	}
	if !e.IsDir() {
		n.Description = FormatSize(e.Size)
		n.Openable = !listing.Within(e.Path, LibRoot)
	}
	return n
}

// FormatSize renders a byte count in binary units ("120B", "4KiB").
func FormatSize(size uint64) string {
	return units.BytesSize(float64(size))
}

// Tree answers expansion requests by re-querying the device.
type Tree struct {
	runner devcmd.Runner
	report notify.Reporter
	log    zerolog.Logger

	mu        sync.Mutex
	listeners []func()
}

// New returns a Tree backed by runner. Surfaced errors go to report.
func New(runner devcmd.Runner, report notify.Reporter, log zerolog.Logger) *Tree {
	if report == nil {
		report = notify.Discard
	}
	return &Tree{runner: runner, report: report, log: log}
}

// Children lists the directory at p ("" or "/" for the root) with one tool
// call. It never fails: absent devices, stale paths and tool errors all
// yield an empty listing, and only the failures a user can act on are
// reported.
func (t *Tree) Children(ctx context.Context, p string) listing.Listing {
	p = listing.CleanPath(p)
	out, err := t.runner.Run(ctx, "ls", p)
	text := out.Stderr
	if err != nil {
		text = devcmd.AsFailure(err).Text()
	}
	kind := classify.Outcome(text, err != nil)
	switch kind {
	case classify.PathNotFound, classify.NotConnected:
		t.log.Debug().Str("path", p).Stringer("kind", kind).Str("stderr", classify.FirstLine(text)).
			Msg("listing absorbed")
		return nil
	case classify.DeviceNotFound, classify.OperationError, classify.Unknown:
		t.report.Report(notify.Failure(kind, "Error reading "+p, text))
		return nil
	case classify.Informational:
		t.log.Info().Str("path", p).Str("stderr", classify.FirstLine(text)).Msg("listing stderr")
	}

	entries, diags := listing.Parse(out.Stdout, p)
	for _, d := range diags {
		t.log.Warn().Str("path", p).Int("line", d.Line).Str("text", d.Text).Msg(d.Reason)
	}
	return entries
}

// Nodes lists p and maps each entry to its tree node.
func (t *Tree) Nodes(ctx context.Context, p string) []Node {
	entries := t.Children(ctx, p)
	nodes := make([]Node, len(entries))
	for i, e := range entries {
		nodes[i] = NodeFor(e)
	}
	return nodes
}

// WalkFunc is called for every entry visited by [Tree.Walk]. depth is 0 for
// children of the starting directory. Returning an error stops the walk.
type WalkFunc func(depth int, e listing.Entry) error

// Walk expands p depth-first, issuing one listing per directory. maxDepth
// limits recursion; a negative value means unlimited.
func (t *Tree) Walk(ctx context.Context, p string, maxDepth int, fn WalkFunc) error {
	return t.walk(ctx, p, 0, maxDepth, fn)
}

func (t *Tree) walk(ctx context.Context, p string, depth, maxDepth int, fn WalkFunc) error {
	for _, e := range t.Children(ctx, p) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(depth, e); err != nil {
			return err
		}
		if e.IsDir() && (maxDepth < 0 || depth < maxDepth) {
			if err := t.walk(ctx, e.Path, depth+1, maxDepth, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnRefresh registers fn to run whenever the device contents are known to
// have changed.
func (t *Tree) OnRefresh(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Refresh tells listeners to re-expand whatever they display. The tree
// holds no state of its own to invalidate.
func (t *Tree) Refresh() {
	t.mu.Lock()
	ls := append([]func(){}, t.listeners...)
	t.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}
