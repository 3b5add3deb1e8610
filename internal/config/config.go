// Package config loads mpfs.toml, the per-project configuration.
//
// A project needs no config file at all: every field has a default. When
// present, the file sits at the project root and relative paths in it are
// resolved against that directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mpremote-tools/mpfs/internal/fsys"
)

// FileName is the config file looked for by [Discover].
const FileName = "mpfs.toml"

// Defaults.
const (
	DefaultTool          = "mpremote"
	DefaultSource        = "src"
	DefaultIgnoreFile    = ".mpfsignore"
	DefaultWatchDebounce = "500ms"
)

// ErrNotFound is returned by [Discover] when no config file exists.
var ErrNotFound = errors.New(FileName + " not found")

// Config is the content of mpfs.toml.
type Config struct {
	Device Device `toml:"device"`
	Sync   Sync   `toml:"sync"`
	State  State  `toml:"state"`

	// Root is the directory holding the config file, or the working
	// directory when there is none.
	Root string `toml:"-" json:"-"`
}

// Device selects how the board is reached.
type Device struct {
	// Tool is the device command line, split with shell quoting rules.
	// Connection arguments may follow the program, e.g.
	// "mpremote connect /dev/ttyUSB0".
	Tool string `toml:"tool,omitempty" jsonschema:"default=mpremote"`
}

// Sync configures uploads from the local project.
type Sync struct {
	// Source is the directory whose entries are copied to the device root.
	Source string `toml:"source,omitempty" jsonschema:"default=src"`
	// IgnoreFile names a file inside Source listing glob patterns to skip.
	IgnoreFile string `toml:"ignore_file,omitempty" jsonschema:"default=.mpfsignore"`
	// WatchDebounce is how long sync --watch waits for changes to settle.
	WatchDebounce string `toml:"watch_debounce,omitempty" jsonschema:"default=500ms"`
}

// State locates per-user data: preferences and the event log.
type State struct {
	// Dir overrides the state directory. Defaults to $MPFS_STATE_DIR, then
	// the user config directory.
	Dir string `toml:"dir,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Device.Tool) == "" {
		c.Device.Tool = DefaultTool
	}
	if c.Sync.Source == "" {
		c.Sync.Source = DefaultSource
	}
	if c.Sync.IgnoreFile == "" {
		c.Sync.IgnoreFile = DefaultIgnoreFile
	}
	if c.Sync.WatchDebounce == "" {
		c.Sync.WatchDebounce = DefaultWatchDebounce
	}
}

// Validate checks field values after defaults are applied.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Sync.WatchDebounce)
	if err != nil {
		return fmt.Errorf("sync.watch_debounce: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("sync.watch_debounce: must not be negative")
	}
	if strings.ContainsAny(c.Sync.IgnoreFile, `/\`) {
		return fmt.Errorf("sync.ignore_file %q: must be a plain file name", c.Sync.IgnoreFile)
	}
	return nil
}

// Debounce returns the parsed watch debounce.
func (c *Config) Debounce() time.Duration {
	d, err := time.ParseDuration(c.Sync.WatchDebounce)
	if err != nil {
		d, _ = time.ParseDuration(DefaultWatchDebounce)
	}
	return d
}

// SourceDir returns the absolute sync source.
func (c *Config) SourceDir() string {
	return c.abs(c.Sync.Source)
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// StateDir resolves the state directory: the configured one, then
// $MPFS_STATE_DIR, then <user config dir>/mpfs.
func (c *Config) StateDir(getenv func(string) string) (string, error) {
	if c.State.Dir != "" {
		return c.abs(c.State.Dir), nil
	}
	if d := getenv("MPFS_STATE_DIR"); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating state directory: %w", err)
	}
	return filepath.Join(base, "mpfs"), nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads, defaults and validates the config file at path.
func Load(fs fsys.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.Root = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes, defaults and validates TOML data. Unknown keys are an
// error so that typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("parsing config: unknown keys %s", strings.Join(keys, ", "))
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Discover walks up from dir to the filesystem root looking for
// mpfs.toml and returns its path.
func Discover(fs fsys.FS, dir string) (string, error) {
	dir = filepath.Clean(dir)
	for {
		p := filepath.Join(dir, FileName)
		if fi, err := fs.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Resolve loads the explicit path if given, else the discovered file, else
// defaults rooted at dir.
func Resolve(fs fsys.FS, explicit, dir string) (*Config, error) {
	if explicit != "" {
		return Load(fs, explicit)
	}
	p, err := Discover(fs, dir)
	if errors.Is(err, ErrNotFound) {
		cfg := Default()
		cfg.Root = dir
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return Load(fs, p)
}
