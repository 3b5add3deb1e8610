// Package fsys is the host filesystem seam. Production code uses [OSFS];
// tests use [Fake], an in-memory tree with a call log and error injection.
package fsys

import (
	"os"
)

// FS covers the host filesystem operations mpfs performs: reading the
// project config and ignore file, enumerating the sync source, and
// persisting preferences.
type FS interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadFile(name string) ([]byte, error)
	Stat(name string) (os.FileInfo, error)
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(name string) ([]os.DirEntry, error)
	// Rename atomically replaces newpath with oldpath.
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// OSFS implements [FS] with the os package.
type OSFS struct{}

// MkdirAll delegates to [os.MkdirAll].
func (OSFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// WriteFile delegates to [os.WriteFile].
func (OSFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// ReadFile delegates to [os.ReadFile].
func (OSFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// Stat delegates to [os.Stat].
func (OSFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// ReadDir delegates to [os.ReadDir].
func (OSFS) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

// Rename delegates to [os.Rename].
func (OSFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

// Remove delegates to [os.Remove].
func (OSFS) Remove(name string) error { return os.Remove(name) }

// WriteAtomic writes data to a sibling temp file and renames it over name,
// so readers never observe a partial file.
func WriteAtomic(fs FS, name string, data []byte, perm os.FileMode) error {
	tmp := name + ".tmp"
	if err := fs.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return fs.Rename(tmp, name)
}
