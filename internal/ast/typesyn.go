package ast

import (
	"strings"

	"raven/internal/source"
)

// TypeExpr is a syntactic type: a path with optional generic arguments.
type TypeExpr struct {
	Path []string
	Args []*TypeExpr
	Span source.Span
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "void"
	}
	var sb strings.Builder
	sb.WriteString(joinPath(t.Path))
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	return sb.String()
}

func joinPath(p []string) string {
	return strings.Join(p, source.Separator)
}
