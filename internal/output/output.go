// Package output writes export results in the configured format.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/hookdoc/internal/export"
	"github.com/phobologic/hookdoc/internal/toon"
)

// Failure stands in for a file whose export failed, so consumers can tell
// which files are missing and why.
type Failure struct {
	Path  string `json:"path" yaml:"path"`
	Root  string `json:"root" yaml:"root"`
	Error string `json:"error" yaml:"error"`
}

// Entries lines up results with what is encoded: the record of every
// exported file, or a Failure for each one that failed. Failure paths are
// made root-relative like record paths.
func Entries(root string, results []export.Result) []any {
	out := make([]any, 0, len(results))
	for _, r := range results {
		if r.Err != nil || r.Record == nil {
			msg := "no record"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			out = append(out, Failure{Path: export.RelativePath(r.Path, root), Root: root, Error: msg})
			continue
		}
		out = append(out, r.Record)
	}
	return out
}

// Write encodes results to w as json, yaml or toon.
func Write(w io.Writer, format, root string, results []export.Result) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(Entries(root, results)); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Entries(root, results)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return nil

	case "toon":
		if _, err := fmt.Fprintln(w, toon.Encode(root, results)); err != nil {
			return fmt.Errorf("writing toon: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}
