// Package docsync verifies that the getting-started guide and the testscript
// txtar files cover the same mpfs commands. Every `$ mpfs <verb>` in the
// guide must have a corresponding `exec mpfs <verb>` in some txtar.
package docsync

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

func repoRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

// verbsFromMarkdown extracts the mpfs subcommands shown in code blocks.
func verbsFromMarkdown(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	verbs := make(map[string]bool)
	inCodeBlock := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		after, ok := strings.CutPrefix(line, "$ mpfs ")
		if !inCodeBlock || !ok {
			continue
		}
		if verb := extractVerb(after); verb != "" {
			verbs[verb] = true
		}
	}
	return verbs, scanner.Err()
}

// verbsFromTxtar extracts the subcommands run by exec lines, whether
// expected to pass or fail.
func verbsFromTxtar(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	verbs := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "! ")
		after, ok := strings.CutPrefix(line, "exec mpfs ")
		if !ok {
			continue
		}
		if verb := extractVerb(after); verb != "" {
			verbs[verb] = true
		}
	}
	return verbs, scanner.Err()
}

// extractVerb returns the subcommand at the start of args:
// "rm /old.py" → "rm", "reset-confirmations" → "reset-confirmations".
func extractVerb(args string) string {
	words := strings.Fields(args)
	if len(words) == 0 || !isCommandWord(words[0]) {
		return ""
	}
	return words[0]
}

func isCommandWord(s string) bool {
	if s == "" || s[0] == '-' {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && c != '-' {
			return false
		}
	}
	return true
}

func TestExtractVerb(t *testing.T) {
	tests := map[string]string{
		"rm /old.py":            "rm",
		"reset-confirmations":   "reset-confirmations",
		"--config x.toml ls":    "",
		"open mpremote:%2Fa.py": "open",
		"":                      "",
	}
	for in, want := range tests {
		if got := extractVerb(in); got != want {
			t.Errorf("extractVerb(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGettingStartedCommandSync(t *testing.T) {
	root := repoRoot()
	guide := filepath.Join(root, "docs", "getting-started.md")

	mdVerbs, err := verbsFromMarkdown(guide)
	if err != nil {
		t.Fatalf("parsing guide: %v", err)
	}
	if len(mdVerbs) == 0 {
		t.Fatal("no commands found in guide")
	}

	scripts, err := filepath.Glob(filepath.Join(root, "cmd", "mpfs", "testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	txtarVerbs := make(map[string]bool)
	for _, s := range scripts {
		v, err := verbsFromTxtar(s)
		if err != nil {
			t.Fatalf("parsing %s: %v", s, err)
		}
		for verb := range v {
			txtarVerbs[verb] = true
		}
	}

	var missing []string
	for verb := range mdVerbs {
		if !txtarVerbs[verb] {
			missing = append(missing, verb)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		t.Errorf("mpfs commands in guide but not in any txtar:")
		for _, v := range missing {
			t.Errorf("  mpfs %s", v)
		}
	}
}
