// Package docgen generates the JSON Schema and markdown references for
// mpfs.toml and the mpfs command line.
package docgen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/mpremote-tools/mpfs/internal/config"
)

// ModulePath is the import path doc comments are extracted under.
const ModulePath = "github.com/mpremote-tools/mpfs"

// ModuleRoot walks up from the working directory to the directory holding
// go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		dir = parent
	}
}

// newReflector returns a reflector keyed on TOML names. With withComments,
// Go doc comments of the config package become descriptions. The comment
// walk resolves import paths relative to the working directory, so it runs
// from the module root.
func newReflector(withComments bool) (*jsonschema.Reflector, error) {
	r := &jsonschema.Reflector{FieldNameTag: "toml"}
	if !withComments {
		return r, nil
	}
	root, err := ModuleRoot()
	if err != nil {
		return nil, err
	}
	orig, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.Chdir(root); err != nil {
		return nil, fmt.Errorf("chdir to module root: %w", err)
	}
	defer func() { _ = os.Chdir(orig) }()

	if err := r.AddGoComments(ModulePath, "./internal/config"); err != nil {
		return nil, fmt.Errorf("extracting Go comments: %w", err)
	}
	return r, nil
}

// GenerateConfigSchema reflects [config.Config] into a JSON Schema.
func GenerateConfigSchema(withComments bool) (*jsonschema.Schema, error) {
	r, err := newReflector(withComments)
	if err != nil {
		return nil, err
	}
	s := r.Reflect(&config.Config{})
	s.Title = "mpfs configuration"
	s.Description = "Schema for mpfs.toml, the per-project configuration of the mpfs device bridge."
	return s, nil
}

// writeAtomic renders into a temp file next to path and renames it into
// place.
func writeAtomic(path string, render func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	name := tmp.Name()
	err = render(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// errWriter latches the first write error so renderers can print freely
// and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}

// WriteSchema writes s as indented JSON to path atomically.
func WriteSchema(path string, s *jsonschema.Schema) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	})
}
