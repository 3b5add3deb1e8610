package devtree

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/listing"
	"github.com/mpremote-tools/mpfs/internal/notify"
)

// RootPlaceholder is returned when asked for the content of the root.
const RootPlaceholder = "// Cannot display content for root directory."

// Content fetches file bodies from the device on demand.
type Content struct {
	runner devcmd.Runner
	report notify.Reporter
	log    zerolog.Logger
}

// NewContent returns a Content backed by runner.
func NewContent(runner devcmd.Runner, report notify.Reporter, log zerolog.Logger) *Content {
	if report == nil {
		report = notify.Discard
	}
	return &Content{runner: runner, report: report, log: log}
}

// Read returns the text of the device file at p with line endings
// normalised to "\n". It never fails: on error it returns a placeholder
// body that embeds the error, so a viewer always has something to show.
func (c *Content) Read(ctx context.Context, p string) string {
	body, _ := c.Load(ctx, p)
	return body
}

// Load is Read that also reports whether body is the file's content
// rather than a placeholder.
func (c *Content) Load(ctx context.Context, p string) (body string, ok bool) {
	if strings.Trim(p, "/") == "" {
		return RootPlaceholder, false
	}
	p = listing.CleanPath(p)
	out, err := c.runner.Run(ctx, "cat", p)
	if err != nil {
		f := devcmd.AsFailure(err)
		c.fail(classify.Outcome(f.Text(), true), p, f.Text())
		if strings.TrimSpace(f.Stderr) == "" {
			return "// Failed to fetch content: " + f.Message, false
		}
		return "// Error reading file: " + classify.FirstLine(f.Stderr), false
	}
	switch kind := classify.Outcome(out.Stderr, false); kind {
	case classify.None:
	case classify.Informational:
		c.log.Info().Str("path", p).Str("stderr", classify.FirstLine(out.Stderr)).Msg("cat stderr")
	default:
		c.fail(kind, p, out.Stderr)
		return "// Error reading file: " + classify.FirstLine(out.Stderr), false
	}
	return strings.ReplaceAll(out.Stdout, "\r", ""), true
}

func (c *Content) fail(kind classify.Kind, p, text string) {
	if kind == classify.PathNotFound {
		c.log.Debug().Str("path", p).Msg("cat: path not found")
		return
	}
	c.report.Report(notify.Failure(kind, "Error reading file "+p, text))
}

// Resolve reads the file addressed by a device URI.
func (c *Content) Resolve(ctx context.Context, uri string) string {
	p, err := ParseURI(uri)
	if err != nil {
		c.report.Report(notify.Notification{Severity: notify.Error, Message: err.Error()})
		return "// Failed to fetch content: " + err.Error()
	}
	return c.Read(ctx, p)
}
