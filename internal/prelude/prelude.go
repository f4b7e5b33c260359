// Package prelude embeds the core namespace: the operator traits and their
// builtin implementations. It is parsed like any other source file.
package prelude

import (
	_ "embed"

	"raven/internal/source"
)

//go:embed core.rv
var core []byte

// Path is the virtual file name of the prelude.
const Path = "<core>/core.rv"

// Source returns the prelude text.
func Source() []byte { return core }

// Add places the prelude into fs under the core namespace.
func Add(fs *source.FileSet) (source.FileID, error) {
	return fs.AddNamespaced(Path, source.PreludeNamespace, core)
}
