// Package listing parses the text printed by the device tool's ls command
// into ordered directory entries.
//
// The tool prints one entry per line as "<spaces><size> <name>", with a
// trailing "/" on directories, preceded by an "ls :<path>" header. The
// format is not a stable contract, so the parser is lenient: lines it does
// not understand are reported as diagnostics and dropped, never fatal.
package listing

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind distinguishes files from directories.
type Kind int

const (
	// File is a regular file.
	File Kind = iota
	// Directory is a directory; it has no size.
	Directory
)

// String returns "file" or "directory".
func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// Entry is one filesystem object on the device. Entries are values: they
// are rebuilt from the device on every listing and never updated in place.
type Entry struct {
	Name string
	Kind Kind
	Size uint64 // bytes; zero and meaningless for directories
	Path string // absolute, "/"-rooted
}

// IsDir reports whether e is a directory.
func (e Entry) IsDir() bool { return e.Kind == Directory }

// HasSize reports whether Size carries a value.
func (e Entry) HasSize() bool { return e.Kind == File }

// Listing is the children of one directory in display order.
type Listing []Entry

// Diagnostic describes one line the parser dropped.
type Diagnostic struct {
	Line   int // 1-based line number in the raw output
	Text   string
	Reason string
}

// String formats the diagnostic for logs.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %q", d.Line, d.Reason, d.Text)
}

// lineRe matches "<ws><size><ws><name>[/]".
var lineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)(/)?\s*$`)

// headerPrefix starts the echo line the tool prints before a listing.
const headerPrefix = "ls :"

// Parse turns raw ls output for parent into a sorted Listing. Dropped lines
// are returned as diagnostics.
func Parse(raw, parent string) (Listing, []Diagnostic) {
	parent = CleanPath(parent)
	var (
		entries Listing
		diags   []Diagnostic
		seen    = make(map[string]bool)
	)
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), headerPrefix) {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Reason: "unrecognised line"})
			continue
		}
		name := strings.TrimSpace(m[2])
		if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Reason: "invalid name"})
			continue
		}
		e := Entry{Name: name, Kind: File, Path: Join(parent, name)}
		if m[3] == "/" {
			e.Kind = Directory
		} else {
			size, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				diags = append(diags, Diagnostic{Line: i + 1, Text: line, Reason: "size out of range"})
				continue
			}
			e.Size = size
		}
		if seen[e.Path] {
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Reason: "duplicate entry"})
			continue
		}
		seen[e.Path] = true
		entries = append(entries, e)
	}
	Sort(entries)
	return entries, diags
}

// Less orders directories before files, then names byte-wise ascending.
func Less(a, b Entry) bool {
	if a.IsDir() != b.IsDir() {
		return a.IsDir()
	}
	return a.Name < b.Name
}

// Sort orders l in place by [Less].
func Sort(l Listing) {
	sort.SliceStable(l, func(i, j int) bool { return Less(l[i], l[j]) })
}

// Format renders l back into the tool's ls line format. Directories are
// printed with size 0, which the tool also does on most ports.
func Format(l Listing) string {
	var b strings.Builder
	for _, e := range l {
		if e.IsDir() {
			fmt.Fprintf(&b, "%12d %s/\n", 0, e.Name)
			continue
		}
		fmt.Fprintf(&b, "%12d %s\n", e.Size, e.Name)
	}
	return b.String()
}

// CleanPath normalises a device path: "/"-rooted, no trailing slash, no
// "." or ".." elements. The empty string is the root.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// Join returns the absolute device path of name inside parent.
func Join(parent, name string) string {
	parent = CleanPath(parent)
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// Base returns the last element of a device path.
func Base(p string) string {
	return path.Base(CleanPath(p))
}

// Within reports whether p is root itself or lies anywhere below it.
func Within(p, root string) bool {
	p, root = CleanPath(p), CleanPath(root)
	if root == "/" || p == root {
		return true
	}
	return strings.HasPrefix(p, root+"/")
}
