package parser

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"raven/internal/ast"
	"raven/internal/diag"
)

// applyAttrs проверяет атрибуты юнита и переносит #[priority(N)] в Unit.Priority.
func (p *Parser) applyAttrs(u *ast.Unit) {
	seen := false
	for _, a := range u.Attrs {
		switch a.Name {
		case ast.AttrPriority:
			if u.Kind != ast.UnitImpl {
				p.warnAt(diag.SynBadAttribute, a.Span, "#[priority] only applies to impls and is ignored here")
				continue
			}
			if seen {
				p.errAt(diag.SynBadAttribute, a.Span, "duplicate #[priority] attribute")
				continue
			}
			seen = true
			if !a.HasArg {
				p.errAt(diag.SynBadAttribute, a.Span, "#[priority] requires an integer argument")
				continue
			}
			prio, err := safecast.Conv[int8](a.Arg)
			if err != nil {
				p.errAt(diag.SynBadAttribute, a.ArgSpan,
					fmt.Sprintf("priority %d does not fit in int8 (-128..127)", a.Arg))
				continue
			}
			u.Priority = prio
		default:
			p.warnAt(diag.SynUnknownAttribute, a.Span, "unknown attribute #["+a.Name+"]")
		}
	}
}

func parseIntText(text string, neg bool) (int64, error) {
	text = strings.ReplaceAll(text, "_", "")
	if neg {
		text = "-" + text
	}
	return strconv.ParseInt(text, 10, 64)
}
