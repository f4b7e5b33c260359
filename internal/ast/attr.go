package ast

import "raven/internal/source"

// Attr описывает атрибут вида `#[name(arg)]`.
type Attr struct {
	Name    string
	Arg     int64
	HasArg  bool
	Span    source.Span
	ArgSpan source.Span
}

// Known attribute names.
const (
	AttrPriority = "priority"
)
