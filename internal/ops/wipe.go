package ops

import (
	"context"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/confirm"
	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/events"
)

// Wipe deletes everything on the device. It always prompts.
//
// Removing the root recursively empties the device and then fails on the
// mount point itself. That one failure is the expected end state, so it is
// dropped before classifying; anything else in the output still counts.
func (e *Engine) Wipe(ctx context.Context) Result {
	if r := e.gate(ctx, confirm.Wipe, "/"); r != nil {
		return e.finish(ctx, events.Wiped, "/", *r, nil)
	}
	out, err := e.runner.Run(ctx, "rm", "-rv", ":/")
	text := out.Stderr
	if err != nil {
		text = devcmd.AsFailure(err).Text()
	}
	rest := classify.WithoutRootUnremovable(text)
	benign := rest != text
	kind := classify.Outcome(rest, err != nil && !benign)
	if benign {
		e.log.Debug().Msg("root mount point not removable; wipe complete")
	}
	r := e.conclude(kind, rest, "Error wiping device", false)
	if r.Status == Done {
		r.Message = "device wiped"
	}
	return e.finish(ctx, events.Wiped, "/", r, nil)
}
