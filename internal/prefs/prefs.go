// Package prefs persists the confirmation preferences: whether deletes of
// non-critical files and folders may skip their confirmation prompt.
package prefs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"

	"github.com/mpremote-tools/mpfs/internal/fsys"
)

// FileName is the preferences file inside the state directory.
const FileName = "preferences.toml"

// Preferences is the persisted record. The zero value asks every time.
type Preferences struct {
	SkipFileDeleteConfirm   bool `toml:"skip_file_delete_confirm"`
	SkipFolderDeleteConfirm bool `toml:"skip_folder_delete_confirm"`
}

// Store loads and updates the preference record.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	// Update applies fn to the current record and persists the result as
	// one read-modify-write.
	Update(ctx context.Context, fn func(*Preferences)) error
}

type locker interface {
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// lockRetry is how often a blocked writer polls the lock file.
const lockRetry = 25 * time.Millisecond

// File stores preferences as TOML. Updates hold an exclusive lock on a
// sibling ".lock" file so concurrent mpfs processes do not lose writes.
type File struct {
	fs   fsys.FS
	path string
	lock locker
}

// NewFile returns a store for the preferences file at path.
func NewFile(fs fsys.FS, path string) *File {
	return &File{fs: fs, path: path, lock: flock.New(path + ".lock")}
}

// Path returns the file the store reads and writes.
func (s *File) Path() string { return s.path }

// Load reads the record. A missing file yields the zero record.
func (s *File) Load(_ context.Context) (Preferences, error) {
	return s.read()
}

func (s *File) read() (Preferences, error) {
	var p Preferences
	data, err := s.fs.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading preferences: %w", err)
	}
	if _, err := toml.Decode(string(data), &p); err != nil {
		return p, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return p, nil
}

// Update locks, re-reads, applies fn and atomically rewrites the file.
func (s *File) Update(ctx context.Context, fn func(*Preferences)) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("locking preferences: %w", err)
	}
	if !ok {
		return fmt.Errorf("locking preferences: %w", ctx.Err())
	}
	defer s.lock.Unlock() //nolint:errcheck // lock file is released on exit anyway

	p, err := s.read()
	if err != nil {
		return err
	}
	fn(&p)
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := fsys.WriteAtomic(s.fs, s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// Mem is an in-memory [Store] for tests and for hosts that do not persist.
type Mem struct {
	mu      sync.Mutex
	Prefs   Preferences
	Err     error // returned by every call when set
	Updates int
}

// Load returns the current record.
func (m *Mem) Load(context.Context) (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Prefs, m.Err
}

// Update applies fn in place.
func (m *Mem) Update(_ context.Context, fn func(*Preferences)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	fn(&m.Prefs)
	m.Updates++
	return nil
}

// Snapshot returns the current record without error injection.
func (m *Mem) Snapshot() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Prefs
}

var (
	_ Store = (*File)(nil)
	_ Store = (*Mem)(nil)
)
