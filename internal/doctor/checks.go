package doctor

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/mpremote-tools/mpfs/internal/classify"
	"github.com/mpremote-tools/mpfs/internal/config"
	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/events"
	"github.com/mpremote-tools/mpfs/internal/fsys"
	"github.com/mpremote-tools/mpfs/internal/prefs"
)

// --- Project checks ---

// ConfigCheck reports whether mpfs.toml parses. A project without one runs
// on defaults.
type ConfigCheck struct {
	fs   fsys.FS
	path string // empty when no config file was found
}

// NewConfigCheck checks the config file at path.
func NewConfigCheck(fs fsys.FS, path string) *ConfigCheck {
	return &ConfigCheck{fs: fs, path: path}
}

// Name returns the check identifier.
func (c *ConfigCheck) Name() string { return "config" }

// Run loads the file.
func (c *ConfigCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	if c.path == "" {
		r.Message = "no " + config.FileName + "; using defaults"
		return r
	}
	if _, err := config.Load(c.fs, c.path); err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		r.FixHint = "see docs/reference/config.md for valid keys"
		return r
	}
	r.Message = c.path
	return r
}

// CanFix returns false.
func (c *ConfigCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *ConfigCheck) Fix(_ *CheckContext) error { return nil }

// SourceDirCheck warns when the sync source is missing.
type SourceDirCheck struct {
	fs  fsys.FS
	dir string
}

// NewSourceDirCheck checks the sync source dir.
func NewSourceDirCheck(fs fsys.FS, dir string) *SourceDirCheck {
	return &SourceDirCheck{fs: fs, dir: dir}
}

// Name returns the check identifier.
func (c *SourceDirCheck) Name() string { return "sync-source" }

// Run stats the directory.
func (c *SourceDirCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	fi, err := c.fs.Stat(c.dir)
	switch {
	case err != nil:
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("%s not found; mpfs sync has nothing to upload", c.dir)
		r.FixHint = "create it or set sync.source in " + config.FileName
	case !fi.IsDir():
		r.Status = StatusError
		r.Message = c.dir + " is not a directory"
	default:
		r.Message = c.dir
	}
	return r
}

// CanFix returns false.
func (c *SourceDirCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *SourceDirCheck) Fix(_ *CheckContext) error { return nil }

// --- Tool checks ---

// LookPathFunc finds binaries. Defaults to exec.LookPath.
type LookPathFunc func(file string) (string, error)

// ToolCheck verifies the configured device tool can be started.
type ToolCheck struct {
	tool     string
	lookPath LookPathFunc
}

// NewToolCheck checks the device tool command line tool.
func NewToolCheck(tool string, lp LookPathFunc) *ToolCheck {
	if lp == nil {
		lp = exec.LookPath
	}
	return &ToolCheck{tool: tool, lookPath: lp}
}

// Name returns the check identifier.
func (c *ToolCheck) Name() string { return "device-tool" }

// Run parses the command line and looks up its program.
func (c *ToolCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	ex, err := devcmd.New(c.tool)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		return r
	}
	path, err := c.lookPath(ex.Program())
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("%s not found in PATH", ex.Program())
		r.FixHint = "pip install mpremote, or set device.tool in " + config.FileName
		return r
	}
	r.Message = "found " + path
	return r
}

// CanFix returns false.
func (c *ToolCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *ToolCheck) Fix(_ *CheckContext) error { return nil }

// DeviceCheck lists the device root to see whether a board answers.
type DeviceCheck struct {
	runner devcmd.Runner
}

// NewDeviceCheck probes the device through runner.
func NewDeviceCheck(runner devcmd.Runner) *DeviceCheck {
	return &DeviceCheck{runner: runner}
}

// Name returns the check identifier.
func (c *DeviceCheck) Name() string { return "device" }

// Run lists "/".
func (c *DeviceCheck) Run(cc *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	out, err := c.runner.Run(cc.context(), "ls", "/")
	text := out.Stderr
	if err != nil {
		text = devcmd.AsFailure(err).Text()
	}
	kind := classify.Outcome(text, err != nil)
	switch {
	case kind == classify.None || kind == classify.Informational:
		r.Message = "device answered"
		if line := classify.FirstLine(text); line != "" {
			r.Details = append(r.Details, line)
		}
	case kind.DeviceUnavailable():
		r.Status = StatusWarning
		r.Message = "no device connected"
		r.FixHint = "plug in the board, close other programs using its port"
	default:
		r.Status = StatusError
		r.Message = fmt.Sprintf("%s: %s", kind, classify.FirstLine(text))
	}
	return r
}

// CanFix returns false.
func (c *DeviceCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DeviceCheck) Fix(_ *CheckContext) error { return nil }

// --- State checks ---

// StateDirCheck verifies the state directory exists and is writable.
type StateDirCheck struct {
	fs  fsys.FS
	dir string
}

// NewStateDirCheck checks dir.
func NewStateDirCheck(fs fsys.FS, dir string) *StateDirCheck {
	return &StateDirCheck{fs: fs, dir: dir}
}

// Name returns the check identifier.
func (c *StateDirCheck) Name() string { return "state-dir" }

// Run probes dir with a scratch write.
func (c *StateDirCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	fi, err := c.fs.Stat(c.dir)
	if err != nil {
		r.Status = StatusError
		r.Message = c.dir + " does not exist"
		r.FixHint = "run mpfs doctor --fix"
		return r
	}
	if !fi.IsDir() {
		r.Status = StatusError
		r.Message = c.dir + " is not a directory"
		return r
	}
	probe := filepath.Join(c.dir, ".doctor-probe")
	if err := fsys.WriteAtomic(c.fs, probe, nil, 0o600); err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("%s is not writable: %v", c.dir, err)
		return r
	}
	c.fs.Remove(probe) //nolint:errcheck // best-effort cleanup
	r.Message = c.dir
	return r
}

// CanFix returns true.
func (c *StateDirCheck) CanFix() bool { return true }

// Fix creates the directory.
func (c *StateDirCheck) Fix(_ *CheckContext) error {
	return c.fs.MkdirAll(c.dir, 0o755)
}

// PreferencesCheck reports the saved confirmation preferences.
type PreferencesCheck struct {
	store prefs.Store
}

// NewPreferencesCheck reads store.
func NewPreferencesCheck(store prefs.Store) *PreferencesCheck {
	return &PreferencesCheck{store: store}
}

// Name returns the check identifier.
func (c *PreferencesCheck) Name() string { return "preferences" }

// Run loads the record.
func (c *PreferencesCheck) Run(cc *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	p, err := c.store.Load(cc.context())
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		r.FixHint = "fix or remove the preferences file"
		return r
	}
	switch {
	case p.SkipFileDeleteConfirm && p.SkipFolderDeleteConfirm:
		r.Message = "file and folder deletes not confirmed"
	case p.SkipFileDeleteConfirm:
		r.Message = "file deletes not confirmed"
	case p.SkipFolderDeleteConfirm:
		r.Message = "folder deletes not confirmed"
	default:
		r.Message = "all deletes confirmed"
	}
	if p.SkipFileDeleteConfirm || p.SkipFolderDeleteConfirm {
		r.Details = append(r.Details, "mpfs reset-confirmations restores the prompts")
	}
	return r
}

// CanFix returns false.
func (c *PreferencesCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *PreferencesCheck) Fix(_ *CheckContext) error { return nil }

// EventsLogCheck verifies the audit log parses.
type EventsLogCheck struct {
	path string
}

// NewEventsLogCheck checks the log at path.
func NewEventsLogCheck(path string) *EventsLogCheck {
	return &EventsLogCheck{path: path}
}

// Name returns the check identifier.
func (c *EventsLogCheck) Name() string { return "events-log" }

// Run reads the whole log.
func (c *EventsLogCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	evs, err := events.ReadAll(c.path)
	if err != nil {
		r.Status = StatusWarning
		r.Message = err.Error()
		r.FixHint = "move the damaged log aside; mpfs starts a new one"
		return r
	}
	r.Message = fmt.Sprintf("%d events", len(evs))
	return r
}

// CanFix returns false.
func (c *EventsLogCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *EventsLogCheck) Fix(_ *CheckContext) error { return nil }
