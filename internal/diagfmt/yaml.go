package diagfmt

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"raven/internal/diag"
	"raven/internal/source"
)

// YAML writes the same document as JSON, encoded as YAML.
func YAML(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(BuildDiagnosticsOutput(bag, fs, opts)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
