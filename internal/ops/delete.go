package ops

import (
	"context"

	"github.com/mpremote-tools/mpfs/internal/confirm"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/listing"
)

// DeleteFile removes one device file after confirmation.
func (e *Engine) DeleteFile(ctx context.Context, p string) Result {
	p = listing.CleanPath(p)
	if p == "/" {
		return Result{Status: Skipped, Message: "the root is not a file"}
	}
	if r := e.gate(ctx, confirm.FileDelete, p); r != nil {
		return e.finish(ctx, events.FileDeleted, p, *r, nil)
	}
	_, kind, text := e.call(ctx, "rm", p)
	return e.finish(ctx, events.FileDeleted, p, e.conclude(kind, text, "Error deleting file "+p, true), nil)
}

// DeleteFolder removes a device directory and everything in it after
// confirmation.
func (e *Engine) DeleteFolder(ctx context.Context, p string) Result {
	p = listing.CleanPath(p)
	if r := e.gate(ctx, confirm.FolderDelete, p); r != nil {
		return e.finish(ctx, events.FolderDeleted, p, *r, nil)
	}
	_, kind, text := e.call(ctx, "rm", "-r", p)
	return e.finish(ctx, events.FolderDeleted, p, e.conclude(kind, text, "Error deleting folder "+p, true), nil)
}
