package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Fake is an in-memory [FS]. Populate Dirs, Files and Errors before use;
// every method appends to Calls. Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	Dirs   map[string]bool
	Files  map[string][]byte
	Errors map[string]error // checked before any other effect
	Calls  []Call
}

// Call is one recorded method invocation on [Fake].
type Call struct {
	Method string
	Path   string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Dirs:   make(map[string]bool),
		Files:  make(map[string][]byte),
		Errors: make(map[string]error),
	}
}

func (f *Fake) record(method, path string) error {
	f.Calls = append(f.Calls, Call{Method: method, Path: path})
	return f.Errors[path]
}

// MkdirAll adds path and its parents to Dirs.
func (f *Fake) MkdirAll(path string, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("MkdirAll", path); err != nil {
		return err
	}
	for p := filepath.Clean(path); p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		f.Dirs[p] = true
	}
	return nil
}

// WriteFile stores a copy of data.
func (f *Fake) WriteFile(name string, data []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WriteFile", name); err != nil {
		return err
	}
	f.Files[name] = append([]byte(nil), data...)
	return nil
}

// ReadFile returns a copy of the stored bytes.
func (f *Fake) ReadFile(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadFile", name); err != nil {
		return nil, err
	}
	data, ok := f.Files[name]
	if !ok {
		return nil, &os.PathError{Op: "read", Path: name, Err: os.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Stat reports on Dirs and Files.
func (f *Fake) Stat(name string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Stat", name); err != nil {
		return nil, err
	}
	if f.Dirs[name] {
		return fakeInfo{name: filepath.Base(name), dir: true}, nil
	}
	if data, ok := f.Files[name]; ok {
		return fakeInfo{name: filepath.Base(name), size: int64(len(data))}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

// ReadDir lists the direct children of name. A directory is implied by any
// file or directory stored below it.
func (f *Fake) ReadDir(name string) ([]os.DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadDir", name); err != nil {
		return nil, err
	}
	name = filepath.Clean(name)
	if !f.Dirs[name] && !f.hasChildLocked(name) {
		return nil, &os.PathError{Op: "readdir", Path: name, Err: os.ErrNotExist}
	}
	byName := make(map[string]fakeInfo)
	add := func(p string, info fakeInfo) {
		for ; p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
			if filepath.Dir(p) == name {
				if _, ok := byName[filepath.Base(p)]; !ok {
					byName[filepath.Base(p)] = info
				}
				return
			}
			info = fakeInfo{dir: true}
		}
	}
	for d := range f.Dirs {
		add(d, fakeInfo{dir: true})
	}
	for p, data := range f.Files {
		add(p, fakeInfo{size: int64(len(data))})
	}
	entries := make([]os.DirEntry, 0, len(byName))
	for base, info := range byName {
		info.name = base
		entries = append(entries, fakeEntry{info})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (f *Fake) hasChildLocked(dir string) bool {
	prefix := dir + string(filepath.Separator)
	for p := range f.Files {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			return true
		}
	}
	for p := range f.Dirs {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// Rename moves a file.
func (f *Fake) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Rename", oldpath); err != nil {
		return err
	}
	data, ok := f.Files[oldpath]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldpath, Err: os.ErrNotExist}
	}
	f.Files[newpath] = data
	delete(f.Files, oldpath)
	return nil
}

// Remove deletes a file or an empty directory.
func (f *Fake) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Remove", name); err != nil {
		return err
	}
	if _, ok := f.Files[name]; ok {
		delete(f.Files, name)
		return nil
	}
	if f.Dirs[name] {
		if f.hasChildLocked(name) {
			return &os.PathError{Op: "remove", Path: name, Err: syscall.ENOTEMPTY}
		}
		delete(f.Dirs, name)
		return nil
	}
	return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
}

// Methods returns the recorded method names in order.
func (f *Fake) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Method
	}
	return out
}

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fakeInfo) Name() string { return fi.name }
func (fi fakeInfo) Size() int64  { return fi.size }
func (fi fakeInfo) Mode() os.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (fi fakeInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeInfo) IsDir() bool        { return fi.dir }
func (fi fakeInfo) Sys() any           { return nil }

type fakeEntry struct{ info fakeInfo }

func (e fakeEntry) Name() string               { return e.info.name }
func (e fakeEntry) IsDir() bool                { return e.info.dir }
func (e fakeEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e fakeEntry) Info() (fs.FileInfo, error) { return e.info, nil }

var (
	_ FS = (*Fake)(nil)
	_ FS = OSFS{}
)
