package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpremote-tools/mpfs/internal/devcmd"
	"github.com/mpremote-tools/mpfs/internal/fsys"
	"github.com/mpremote-tools/mpfs/internal/prefs"
)

func TestConfigCheck(t *testing.T) {
	fs := fsys.NewFake()
	fs.Files["/p/mpfs.toml"] = []byte("[sync]\nsource = \"app\"\n")
	fs.Files["/q/mpfs.toml"] = []byte("[sync]\nsorce = \"app\"\n")

	if r := NewConfigCheck(fs, "").Run(&CheckContext{}); r.Status != StatusOK || !strings.Contains(r.Message, "defaults") {
		t.Errorf("no file: %+v", r)
	}
	if r := NewConfigCheck(fs, "/p/mpfs.toml").Run(&CheckContext{}); r.Status != StatusOK {
		t.Errorf("valid file: %+v", r)
	}
	r := NewConfigCheck(fs, "/q/mpfs.toml").Run(&CheckContext{})
	if r.Status != StatusError || !strings.Contains(r.Message, "sync.sorce") {
		t.Errorf("typo: %+v", r)
	}
}

func TestSourceDirCheck(t *testing.T) {
	fs := fsys.NewFake()
	fs.Dirs["/p/src"] = true
	fs.Files["/p/file"] = nil

	tests := []struct {
		dir  string
		want CheckStatus
	}{
		{"/p/src", StatusOK},
		{"/p/missing", StatusWarning},
		{"/p/file", StatusError},
	}
	for _, tt := range tests {
		if r := NewSourceDirCheck(fs, tt.dir).Run(&CheckContext{}); r.Status != tt.want {
			t.Errorf("%s: status = %d, want %d (%s)", tt.dir, r.Status, tt.want, r.Message)
		}
	}
}

func TestToolCheck(t *testing.T) {
	found := func(f string) (string, error) { return "/usr/bin/" + f, nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	r := NewToolCheck("mpremote connect /dev/ttyACM0", found).Run(&CheckContext{})
	if r.Status != StatusOK || r.Message != "found /usr/bin/mpremote" {
		t.Errorf("found: %+v", r)
	}
	r = NewToolCheck("mpremote", missing).Run(&CheckContext{})
	if r.Status != StatusError || r.FixHint == "" {
		t.Errorf("missing: %+v", r)
	}
	r = NewToolCheck(`mpremote "unterminated`, found).Run(&CheckContext{})
	if r.Status != StatusError {
		t.Errorf("bad quoting: %+v", r)
	}
}

func TestDeviceCheck(t *testing.T) {
	tests := []struct {
		name string
		resp devcmd.Response
		want CheckStatus
	}{
		{"answers", devcmd.Response{Stdout: "ls :\n         139 boot.py\n"}, StatusOK},
		{"no device", devcmd.Response{Stderr: "mpremote: no device found", Fail: true}, StatusWarning},
		{"tool error", devcmd.Response{Stderr: "Error: bad", Fail: true}, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := devcmd.NewFake()
			f.On("ls /", tt.resp)
			if r := NewDeviceCheck(f).Run(&CheckContext{}); r.Status != tt.want {
				t.Errorf("status = %d, want %d (%s)", r.Status, tt.want, r.Message)
			}
		})
	}
}

func TestStateDirCheck(t *testing.T) {
	fs := fsys.NewFake()
	c := NewStateDirCheck(fs, "/state")
	if r := c.Run(&CheckContext{}); r.Status != StatusError {
		t.Fatalf("missing dir: %+v", r)
	}
	if !c.CanFix() {
		t.Fatal("state dir check should be fixable")
	}
	if err := c.Fix(&CheckContext{}); err != nil {
		t.Fatal(err)
	}
	if r := c.Run(&CheckContext{}); r.Status != StatusOK {
		t.Errorf("after fix: %+v", r)
	}
	if _, ok := fs.Files["/state/.doctor-probe"]; ok {
		t.Error("probe file left behind")
	}

	fs.Errors["/state/.doctor-probe.tmp"] = errors.New("read-only")
	if r := c.Run(&CheckContext{}); r.Status != StatusError || !strings.Contains(r.Message, "not writable") {
		t.Errorf("read-only: %+v", r)
	}
}

func TestStateDirCheckOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	d := &Doctor{}
	d.Register(NewStateDirCheck(fsys.OSFS{}, dir))
	r := d.Run(&CheckContext{}, &strings.Builder{}, true)
	if r.Fixed != 1 {
		t.Errorf("report = %+v, want the directory created", r)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Errorf("state dir entries = %v, %v", entries, err)
	}
}

func TestPreferencesCheck(t *testing.T) {
	store := &prefs.Mem{Prefs: prefs.Preferences{SkipFileDeleteConfirm: true}}
	r := NewPreferencesCheck(store).Run(&CheckContext{})
	if r.Status != StatusOK || r.Message != "file deletes not confirmed" {
		t.Errorf("skip file: %+v", r)
	}
	store.Err = errors.New("bad toml")
	if r := NewPreferencesCheck(store).Run(&CheckContext{}); r.Status != StatusError {
		t.Errorf("broken store: %+v", r)
	}
}

func TestEventsLogCheck(t *testing.T) {
	dir := t.TempDir()
	if r := NewEventsLogCheck(filepath.Join(dir, "none.jsonl")).Run(&CheckContext{}); r.Status != StatusOK || r.Message != "0 events" {
		t.Errorf("missing log: %+v", r)
	}
	p := filepath.Join(dir, "events.jsonl")
	data := `{"seq":1,"type":"device.reset","ts":"2026-01-02T03:04:05Z","actor":"mpfs"}` + "\n"
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := NewEventsLogCheck(p).Run(&CheckContext{}); r.Status != StatusOK || r.Message != "1 events" {
		t.Errorf("one event: %+v", r)
	}
}
