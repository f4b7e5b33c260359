package hir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"raven/internal/types"
)

// Printer writes units as indented pseudo-source. Output depends only on
// the units, never on when they were finalized.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Dump prints units in slice order separated by blank lines.
func Dump(w io.Writer, units []*Unit) error {
	p := NewPrinter(w)
	for i, u := range units {
		if i > 0 {
			p.printf("\n")
		}
		p.PrintUnit(u)
	}
	return p.err
}

// Print renders one unit to a string.
func Print(u *Unit) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.PrintUnit(u)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

// PrintUnit writes u.
func (p *Printer) PrintUnit(u *Unit) {
	switch u.Kind {
	case UnitFunc:
		p.printFunc(u)
	case UnitStruct:
		p.line("struct %s%s {", u.Name, typeParams(u.Struct.TypeParams))
		p.indent++
		for _, f := range u.Struct.Fields {
			p.line("%s: %s,", f.Name, f.Type)
		}
		p.indent--
		p.line("}")
	case UnitTrait:
		p.line("trait %s%s {", u.Name, typeParams(u.Trait.TypeParams))
		p.indent++
		for _, m := range u.Trait.Methods {
			p.line("fn %s(%s) -> %s;", m.Name, params(m.Params), m.Result)
		}
		p.indent--
		p.line("}")
	case UnitImpl:
		im := u.Impl
		p.line("impl%s %s for %s priority %d {", typeParams(im.TypeParams), im.Trait, im.Target, im.Priority)
		p.indent++
		for _, m := range im.Methods {
			p.line("%s => %s", m.Name, m.Unit)
		}
		p.indent--
		p.line("}")
	}
	if len(u.Refs) > 0 {
		p.line("// refs: %s", strings.Join(u.Refs, ", "))
	}
}

func (p *Printer) printFunc(u *Unit) {
	f := u.Func
	head := fmt.Sprintf("fn %s%s(%s) -> %s", u.Name, typeParams(f.TypeParams), params(f.Params), f.Result)
	if f.Internal || f.Body == nil {
		p.line("internal %s;", head)
		return
	}
	p.line("%s {", head)
	p.block(f.Body)
	p.line("}")
}

func (p *Printer) block(b *Block) {
	p.indent++
	for _, s := range b.Stmts {
		p.stmt(s)
	}
	p.indent--
}

func (p *Printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Let:
		p.line("let %s: %s = %s;", s.Name, s.Type, ExprString(s.Value))
	case *Assign:
		p.line("%s = %s;", ExprString(s.Target), ExprString(s.Value))
	case *Return:
		if s.Value == nil {
			p.line("return;")
		} else {
			p.line("return %s;", ExprString(s.Value))
		}
	case *If:
		p.line("if %s {", ExprString(s.Cond))
		p.block(s.Then)
		if s.Else != nil {
			p.line("} else {")
			p.block(s.Else)
		}
		p.line("}")
	case *While:
		p.line("while %s {", ExprString(s.Cond))
		p.block(s.Body)
		p.line("}")
	case *ExprStmt:
		p.line("%s;", ExprString(s.X))
	}
}

// ExprString renders an expression on one line.
func ExprString(e Expr) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case *Literal:
		if e.Kind == LitString {
			return strconv.Quote(e.Text)
		}
		return e.Text
	case *Local:
		return e.Name
	case *Call:
		return TargetString(e.Target) + "(" + exprList(e.Args) + ")"
	case *FieldAccess:
		return ExprString(e.X) + "." + e.Field
	case *StructLit:
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Name + ": " + ExprString(f.Value)
		}
		return fmt.Sprintf("new %s { %s }", e.Ty, strings.Join(parts, ", "))
	case *Joined:
		var sb strings.Builder
		sb.WriteString("joined(")
		for i, o := range e.Operands {
			if i > 0 {
				sb.WriteString(" " + TargetString(e.Ops[i-1]) + " ")
			}
			sb.WriteString(ExprString(o))
		}
		sb.WriteString(")")
		return sb.String()
	}
	return "<?>"
}

// TargetString renders a call target.
func TargetString(t Target) string {
	switch {
	case t.Resolved():
		return t.Unit
	case t.Trait != nil:
		return fmt.Sprintf("<%s as %s>::%s", t.Self, t.Trait, t.Method)
	case t.Generic != "":
		return types.InstanceName(t.Generic, t.TypeArgs)
	}
	return "<unresolved>"
}

func exprList(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func params(ps []Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Name + ": " + p.Type.String()
	}
	return strings.Join(parts, ", ")
}

func typeParams(tps []TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.Name
		if len(tp.Bounds) > 0 {
			bs := make([]string, len(tp.Bounds))
			for j, b := range tp.Bounds {
				bs[j] = b.String()
			}
			parts[i] += ": " + strings.Join(bs, " + ")
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
