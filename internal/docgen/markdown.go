package docgen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

const generatedNote = "> Generated by `go run ./cmd/genschema`. Do not edit.\n\n"

// RenderMarkdown writes one table per schema definition, root type first.
func RenderMarkdown(w io.Writer, s *jsonschema.Schema) error {
	ew := &errWriter{w: w}
	title := s.Title
	if title == "" {
		title = "Configuration Reference"
	}
	ew.printf("# %s\n\n", title)
	if s.Description != "" {
		ew.printf("%s\n\n", s.Description)
	}
	ew.printf(generatedNote)

	root := refName(s.Ref)
	names := make([]string, 0, len(s.Definitions))
	for name := range s.Definitions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == root) != (names[j] == root) {
			return names[i] == root
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		def := s.Definitions[name]
		if def == nil || def.Properties == nil {
			continue
		}
		ew.printf("## %s\n\n", name)
		if def.Description != "" {
			ew.printf("%s\n\n", def.Description)
		}
		required := make(map[string]bool, len(def.Required))
		for _, r := range def.Required {
			required[r] = true
		}
		ew.printf("| Field | Type | Required | Default | Description |\n")
		ew.printf("|-------|------|----------|---------|-------------|\n")
		for pair := def.Properties.Oldest(); pair != nil; pair = pair.Next() {
			req := ""
			if required[pair.Key] {
				req = "**yes**"
			}
			ew.printf("| `%s` | %s | %s | %s | %s |\n",
				pair.Key, typeString(pair.Value), req, defaultString(pair.Value), tableCell(pair.Value.Description))
		}
		ew.printf("\n")
	}
	return ew.err
}

// WriteMarkdown renders s to path atomically.
func WriteMarkdown(path string, s *jsonschema.Schema) error {
	return writeAtomic(path, func(w io.Writer) error { return RenderMarkdown(w, s) })
}

func typeString(p *jsonschema.Schema) string {
	switch {
	case p.Ref != "":
		return refName(p.Ref)
	case p.Type == "array" && p.Items != nil:
		return "[]" + typeString(p.Items)
	case p.Type == "object" && p.AdditionalProperties != nil:
		return "map[string]" + typeString(p.AdditionalProperties)
	case p.Type != "":
		return p.Type
	}
	return "any"
}

func refName(ref string) string {
	if ref == "" {
		return ""
	}
	return ref[strings.LastIndex(ref, "/")+1:]
}

func defaultString(p *jsonschema.Schema) string {
	if p.Default == nil {
		return ""
	}
	return fmt.Sprintf("`%v`", p.Default)
}

// tableCell flattens text for a markdown table cell.
func tableCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", `\|`)
}
