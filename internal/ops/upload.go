package ops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/notify"
)

// UploadSummary is the audit payload of one upload.
type UploadSummary struct {
	Source   string   `json:"source"`
	Uploaded []string `json:"uploaded,omitempty"`
	Ignored  []string `json:"ignored,omitempty"`
	Failed   []string `json:"failed,omitempty"`
}

// Plan lists the entries of localDir that an upload would copy, in name
// order, and those the ignore file excludes.
func (e *Engine) Plan(localDir string) (upload, ignored []string, err error) {
	entries, err := e.fs.ReadDir(localDir)
	if err != nil {
		return nil, nil, err
	}
	ig, err := LoadIgnore(e.fs, filepath.Join(localDir, e.ignoreFile), e.log)
	if err != nil {
		return nil, nil, fmt.Errorf("reading ignore file: %w", err)
	}
	for _, ent := range entries {
		name := ent.Name()
		switch {
		case name == e.ignoreFile:
		case ig.Match(name, ent.IsDir()):
			ignored = append(ignored, name)
		default:
			upload = append(upload, name)
		}
	}
	return upload, ignored, nil
}

// Upload copies every immediate entry of localDir to the device root, one
// tool call per entry. It stops at the first call that shows the device is
// gone or the copy failed outright. Failures the tool does not explain are
// reported and the remaining entries are still tried.
func (e *Engine) Upload(ctx context.Context, localDir string) Result {
	abs, err := filepath.Abs(localDir)
	if err != nil {
		abs = localDir
	}
	sum := UploadSummary{Source: abs}

	if fi, err := e.fs.Stat(abs); err != nil || !fi.IsDir() {
		msg := fmt.Sprintf("Directory %s not found.", abs)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			msg = fmt.Sprintf("Cannot read %s: %v", abs, err)
		}
		e.report.Report(notify.Notification{Severity: notify.Info, Message: msg})
		return e.finish(ctx, events.SyncCompleted, abs, Result{Status: Skipped, Message: msg}, sum)
	}
	names, ignored, err := e.Plan(abs)
	if err != nil {
		n := notify.Notification{Severity: notify.Error, Message: fmt.Sprintf("Cannot read %s: %v", abs, err)}
		e.report.Report(n)
		return e.finish(ctx, events.SyncCompleted, abs, Result{Status: Failed, Kind: classify.Unknown, Message: n.Message}, sum)
	}
	sum.Ignored = ignored
	if len(names) == 0 {
		return e.finish(ctx, events.SyncCompleted, abs, Result{Status: Skipped, Message: "nothing to upload"}, sum)
	}

	if e.progress != nil {
		e.progress.Start(len(names))
		defer e.progress.Finish()
	}
	res := Result{Status: Done}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			res = Result{Status: Cancelled, Message: "upload interrupted"}
			break
		}
		src := filepath.Join(abs, name)
		_, kind, text := e.call(ctx, "cp", "-r", src, ":/")
		if e.progress != nil {
			e.progress.Advance(name)
		}
		stop := false
		entry := Result{Status: Done, Kind: kind}
		switch kind {
		case classify.None:
		case classify.Informational:
			e.log.Info().Str("entry", name).Str("stderr", classify.FirstLine(text)).Msg("upload output")
		case classify.DeviceNotFound, classify.NotConnected, classify.OperationError:
			entry = e.conclude(kind, text, "Error uploading "+name, false)
			stop = true
		default:
			entry = e.conclude(kind, text, "Error uploading "+name, false)
		}
		e.events.Record(events.Event{Type: events.EntryUploaded, Actor: e.actor, Subject: name, Status: entryStatus(entry)})
		if entry.Status == Failed {
			sum.Failed = append(sum.Failed, name)
			res = Result{Status: Failed, Kind: entry.Kind, Message: entry.Message}
		} else {
			sum.Uploaded = append(sum.Uploaded, name)
		}
		if stop {
			break
		}
	}
	if len(sum.Uploaded) > 0 {
		res.Refresh = true
	}
	if res.Status == Done {
		res.Message = fmt.Sprintf("uploaded %d of %d entries", len(sum.Uploaded), len(names))
	}
	return e.finish(ctx, events.SyncCompleted, abs, res, sum)
}

func entryStatus(r Result) string {
	if r.Status == Failed {
		return events.StatusFailed
	}
	return events.StatusDone
}
