package ops

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/docker/go-units"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/notify"
)

// Storage is the filesystem usage reported by the device.
type Storage struct {
	Mount   string
	Total   uint64
	Used    uint64
	Avail   uint64
	Percent int
}

// String renders usage as "<used> / <total>  available: <avail>  used: <pct>%".
func (s Storage) String() string {
	return fmt.Sprintf("%s / %s  available: %s  used: %d%%",
		units.BytesSize(float64(s.Used)), units.BytesSize(float64(s.Total)),
		units.BytesSize(float64(s.Avail)), s.Percent)
}

var digitsRe = regexp.MustCompile(`^\d`)

// ParseStorage reads df output: a header line, then a data line whose
// last four columns are total, used, available and use percentage.
func ParseStorage(out string) (Storage, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return Storage{}, fmt.Errorf("too few lines")
	}
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 5 || !digitsRe.MatchString(f[1]) {
			continue
		}
		n := len(f)
		var s Storage
		var err error
		s.Mount = strings.Join(f[:n-4], " ")
		if s.Total, err = strconv.ParseUint(f[n-4], 10, 64); err != nil {
			return Storage{}, fmt.Errorf("total: %w", err)
		}
		if s.Used, err = strconv.ParseUint(f[n-3], 10, 64); err != nil {
			return Storage{}, fmt.Errorf("used: %w", err)
		}
		if s.Avail, err = strconv.ParseUint(f[n-2], 10, 64); err != nil {
			return Storage{}, fmt.Errorf("available: %w", err)
		}
		if s.Percent, err = strconv.Atoi(strings.TrimSuffix(f[n-1], "%")); err != nil {
			return Storage{}, fmt.Errorf("use%%: %w", err)
		}
		return s, nil
	}
	return Storage{}, fmt.Errorf("no data line")
}

// StorageStatus queries filesystem usage. On failure the Result message is
// a short status text and nothing is reported.
func (e *Engine) StorageStatus(ctx context.Context) (Storage, Result) {
	out, kind, text := e.call(ctx, "df")
	switch kind {
	case classify.None, classify.Informational:
	default:
		e.log.Warn().Stringer("kind", kind).Str("stderr", classify.FirstLine(text)).Msg("df failed")
		msg := "Device Storage: error"
		if kind == classify.Unknown {
			msg = "Device Storage: failed"
		}
		return Storage{}, Result{Status: Failed, Kind: kind, Message: msg}
	}
	s, err := ParseStorage(out.Stdout)
	if err != nil {
		e.log.Warn().Err(err).Str("stdout", out.Stdout).Msg("unexpected df output")
		return Storage{}, Result{Status: Failed, Kind: classify.Unknown, Message: "Device Storage: parse error"}
	}
	return s, Result{Status: Done, Kind: kind, Message: s.String()}
}

// SoftReset restarts the interpreter without rebooting the board.
func (e *Engine) SoftReset(ctx context.Context) Result {
	return e.control(ctx, events.SoftReset, "Soft reset", "soft-reset")
}

// HardReset reboots the board.
func (e *Engine) HardReset(ctx context.Context) Result {
	return e.control(ctx, events.HardReset, "Hard reset", "reset")
}

// InstallPackage installs a package with the on-board package manager.
// New files appear under /lib, so the tree is refreshed on success.
func (e *Engine) InstallPackage(ctx context.Context, name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Status: Skipped, Message: "no package name"}
	}
	_, kind, text := e.call(ctx, "mip", "install", name)
	r := e.conclude(kind, text, "Error installing "+name, false)
	if r.Status == Done {
		r.Message = fmt.Sprintf("Package %q installed.", name)
		e.report.Report(notify.Notification{Severity: notify.Info, Message: r.Message})
	}
	return e.finish(ctx, events.PackageInstalled, name, r, nil)
}

// Resetter forgets "don't ask again" answers.
type Resetter interface {
	ResetPreferences(ctx context.Context) error
}

// ResetConfirmations clears the saved confirmation preferences so every
// delete prompts again.
func (e *Engine) ResetConfirmations(ctx context.Context, r Resetter) Result {
	res := Result{Status: Done, Message: "confirmations reset"}
	if err := r.ResetPreferences(ctx); err != nil {
		n := notify.Notification{Severity: notify.Error, Message: "Cannot reset confirmations: " + err.Error()}
		e.report.Report(n)
		res = Result{Status: Failed, Kind: classify.Unknown, Message: n.Message}
	}
	return e.finish(ctx, events.ConfirmReset, "", res, nil)
}

func (e *Engine) control(ctx context.Context, evType, action string, args ...string) Result {
	_, kind, text := e.call(ctx, args...)
	r := e.conclude(kind, text, "Error: "+action, false)
	r.Refresh = false
	if r.Status == Done {
		r.Message = strings.ToLower(action) + " done"
	}
	return e.finish(ctx, evType, "", r, nil)
}
