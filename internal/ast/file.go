package ast

import "raven/internal/source"

// File is the parse result of one source file.
type File struct {
	ID        source.FileID
	Namespace string
	Imports   []*Import
	Units     []*Unit // impl methods follow their impl
	Span      source.Span
}

// Import is `import a::b::c;`.
type Import struct {
	Path []string
	Span source.Span
}

// String returns the qualified import path.
func (i *Import) String() string {
	return joinPath(i.Path)
}
