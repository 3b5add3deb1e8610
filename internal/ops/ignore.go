package ops

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/mpremote-tools/mpfs/internal/fsys"
)

// Ignore holds the glob patterns of an ignore file. Patterns are matched
// against entry names relative to the upload source; a trailing "/"
// restricts a pattern to directories.
type Ignore struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	glob    string
	dirOnly bool
}

// ParseIgnore reads one pattern per line. Blank lines and lines starting
// with "#" are skipped. Invalid patterns are logged and dropped.
func ParseIgnore(data string, log zerolog.Logger) *Ignore {
	ig := &Ignore{}
	sc := bufio.NewScanner(strings.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := ignorePattern{glob: strings.TrimPrefix(line, "/")}
		if strings.HasSuffix(p.glob, "/") {
			p.dirOnly = true
			p.glob = strings.TrimRight(p.glob, "/")
		}
		if p.glob == "" || !doublestar.ValidatePattern(p.glob) {
			log.Warn().Int("line", n).Str("pattern", line).Msg("invalid ignore pattern")
			continue
		}
		ig.patterns = append(ig.patterns, p)
	}
	return ig
}

// LoadIgnore reads the ignore file at path. A missing file is logged and
// yields an empty set.
func LoadIgnore(fs fsys.FS, path string, log zerolog.Logger) (*Ignore, error) {
	data, err := fs.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no ignore file")
		return &Ignore{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseIgnore(string(data), log), nil
}

// Match reports whether the entry at rel (slash-separated, relative to the
// upload source) is ignored.
func (ig *Ignore) Match(rel string, isDir bool) bool {
	if ig == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range ig.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(p.glob, rel); ok {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (ig *Ignore) Len() int {
	if ig == nil {
		return 0
	}
	return len(ig.patterns)
}
