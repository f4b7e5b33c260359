package parser

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
)

type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
	// OnHeader получает полное имя юнита, как только разобран его заголовок.
	OnHeader func(name string, span source.Span)
}

// Result is the outcome of parsing one file.
type Result struct {
	File *ast.File
	// Errors counts syntax errors reported plus invalid lexemes consumed.
	Errors uint
}
