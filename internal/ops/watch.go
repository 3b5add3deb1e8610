package ops

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch uploads localDir whenever something below it changes, once the
// changes have settled for debounce. Changes confined to ignored entries
// do not trigger an upload. onSync receives each upload's result. Watch
// returns nil when ctx ends.
func (e *Engine) Watch(ctx context.Context, localDir string, debounce time.Duration, onSync func(Result)) error {
	abs, err := filepath.Abs(localDir)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck // watcher teardown

	if err := addTree(w, abs); err != nil {
		return fmt.Errorf("watching %s: %w", abs, err)
	}
	e.log.Debug().Str("dir", abs).Dur("debounce", debounce).Msg("watching")

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := e.fs.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						e.log.Warn().Err(err).Str("dir", ev.Name).Msg("watching new directory")
					}
				}
			}
			if ev.Op == fsnotify.Chmod || !e.relevant(abs, ev.Name) {
				continue
			}
			e.log.Debug().Str("path", ev.Name).Stringer("op", ev.Op).Msg("change")
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.log.Warn().Err(err).Msg("watch error")
		case <-timer.C:
			onSync(e.Upload(ctx, abs))
		}
	}
}

// relevant reports whether a change at p affects what an upload of root
// would copy.
func (e *Engine) relevant(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	top := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	if top == e.ignoreFile {
		return true
	}
	ig, err := LoadIgnore(e.fs, filepath.Join(root, e.ignoreFile), e.log)
	if err != nil {
		return true
	}
	isDir := top != filepath.ToSlash(rel)
	if fi, err := e.fs.Stat(filepath.Join(root, top)); err == nil {
		isDir = fi.IsDir()
	}
	return !ig.Match(top, isDir)
}

// addTree watches dir and every directory below it. fsnotify does not
// recurse on its own.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
