package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mpremote-tools/mpfs/internal/fsys"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Device.Tool != "mpremote" {
		t.Errorf("Device.Tool = %q, want %q", c.Device.Tool, "mpremote")
	}
	if c.Sync.Source != "src" || c.Sync.IgnoreFile != ".mpfsignore" {
		t.Errorf("Sync = %+v", c.Sync)
	}
	if c.Debounce() != 500*time.Millisecond {
		t.Errorf("Debounce = %v", c.Debounce())
	}
}

func TestParse(t *testing.T) {
	data := `
[device]
tool = "mpremote connect /dev/ttyUSB0"

[sync]
source = "firmware"
watch_debounce = "2s"
`
	c, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Device.Tool != "mpremote connect /dev/ttyUSB0" {
		t.Errorf("Device.Tool = %q", c.Device.Tool)
	}
	if c.Sync.Source != "firmware" {
		t.Errorf("Sync.Source = %q, want %q", c.Sync.Source, "firmware")
	}
	if c.Sync.IgnoreFile != DefaultIgnoreFile {
		t.Errorf("Sync.IgnoreFile = %q, want default", c.Sync.IgnoreFile)
	}
	if c.Debounce() != 2*time.Second {
		t.Errorf("Debounce = %v", c.Debounce())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, data, want string
	}{
		{"syntax", "[device\n", "parsing config"},
		{"unknown key", "[sync]\nsorce = \"x\"\n", "unknown keys sync.sorce"},
		{"bad debounce", "[sync]\nwatch_debounce = \"soon\"\n", "sync.watch_debounce"},
		{"negative debounce", "[sync]\nwatch_debounce = \"-1s\"\n", "must not be negative"},
		{"ignore path", "[sync]\nignore_file = \"../x\"\n", "plain file name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	c := Default()
	c.Device.Tool = "mpremote connect auto"
	data, err := c.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "dir =") {
		t.Errorf("empty state dir serialised:\n%s", data)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal output): %v", err)
	}
	if got.Device != c.Device || got.Sync != c.Sync {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}

func TestLoadSetsRoot(t *testing.T) {
	f := fsys.NewFake()
	f.Files["/proj/mpfs.toml"] = []byte("[sync]\nsource = \"app\"\n")
	c, err := Load(f, "/proj/mpfs.toml")
	if err != nil {
		t.Fatal(err)
	}
	if c.Root != "/proj" || c.SourceDir() != "/proj/app" {
		t.Errorf("Root = %q, SourceDir = %q", c.Root, c.SourceDir())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(fsys.NewFake(), "/nope/mpfs.toml")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load err = %v, want not-exist", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	f := fsys.NewFake()
	f.Files["/home/u/proj/mpfs.toml"] = []byte("")
	f.Dirs["/home/u/proj/src/lib"] = true

	p, err := Discover(f, "/home/u/proj/src/lib")
	if err != nil || p != "/home/u/proj/mpfs.toml" {
		t.Errorf("Discover = %q, %v", p, err)
	}
	if _, err := Discover(f, "/home/u"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Discover(outside) err = %v", err)
	}
}

func TestResolve(t *testing.T) {
	f := fsys.NewFake()
	c, err := Resolve(f, "", "/work")
	if err != nil {
		t.Fatal(err)
	}
	if c.Root != "/work" || c.SourceDir() != "/work/src" {
		t.Errorf("defaults = %+v", c)
	}

	f.Files["/etc/mpfs/custom.toml"] = []byte("[device]\ntool = \"fake-tool\"\n")
	c, err = Resolve(f, "/etc/mpfs/custom.toml", "/work")
	if err != nil || c.Device.Tool != "fake-tool" {
		t.Errorf("explicit = %+v, %v", c, err)
	}
}

func TestStateDir(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	c := Default()
	c.Root = "/proj"
	c.State.Dir = ".state"
	if d, _ := c.StateDir(getenv); d != "/proj/.state" {
		t.Errorf("configured relative = %q", d)
	}

	c.State.Dir = ""
	env["MPFS_STATE_DIR"] = "/var/mpfs"
	if d, _ := c.StateDir(getenv); d != "/var/mpfs" {
		t.Errorf("env = %q", d)
	}

	delete(env, "MPFS_STATE_DIR")
	d, err := c.StateDir(getenv)
	if err == nil && filepath.Base(d) != "mpfs" {
		t.Errorf("user dir = %q", d)
	}
}
