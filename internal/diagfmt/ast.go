package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"raven/internal/ast"
	"raven/internal/source"
)

type treeNode struct {
	label    string
	children []*treeNode
}

func (n *treeNode) add(label string, children ...*treeNode) *treeNode {
	c := &treeNode{label: label, children: children}
	n.children = append(n.children, c)
	return c
}

// FormatASTPretty печатает дерево разобранного файла.
func FormatASTPretty(w io.Writer, file *ast.File, fs *source.FileSet) error {
	if file == nil {
		return fmt.Errorf("file not found")
	}
	header := "File"
	if f := lookupFile(fs, file.ID); f != nil {
		header = formatPath(f, PathModeAuto, fs.BaseDir())
	}
	root := &treeNode{label: fmt.Sprintf("%s (namespace: %s, span: %s)", header, file.Namespace, formatSpan(file.Span, fs))}
	for _, imp := range file.Imports {
		root.add("Import: " + imp.String())
	}
	for i, u := range file.Units {
		root.children = append(root.children, unitNode(u, fs, i))
	}

	var sb strings.Builder
	sb.WriteString(root.label)
	sb.WriteByte('\n')
	writeChildren(&sb, root.children, "")
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeChildren(sb *strings.Builder, children []*treeNode, prefix string) {
	for i, c := range children {
		branch, next := "├─ ", "│  "
		if i == len(children)-1 {
			branch, next = "└─ ", "   "
		}
		sb.WriteString(prefix)
		sb.WriteString(branch)
		sb.WriteString(c.label)
		sb.WriteByte('\n')
		writeChildren(sb, c.children, prefix+next)
	}
}

func formatSpan(span source.Span, fs *source.FileSet) string {
	if lookupFile(fs, span.File) == nil {
		return span.String()
	}
	start, end := fs.Resolve(span)
	return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
}

func unitNode(u *ast.Unit, fs *source.FileSet, idx int) *treeNode {
	label := fmt.Sprintf("Unit[%d]: %s %s (span: %s)", idx, u.Kind, u.FullName(), formatSpan(u.Span, fs))
	var flags []string
	if u.Public() {
		flags = append(flags, "pub")
	}
	if u.Internal {
		flags = append(flags, "internal")
	}
	if u.Poisoned {
		flags = append(flags, "poisoned")
	}
	if len(flags) > 0 {
		label += " [" + strings.Join(flags, ", ") + "]"
	}
	node := &treeNode{label: label}
	for _, a := range u.Attrs {
		if a.HasArg {
			node.add(fmt.Sprintf("Attr: %s(%d)", a.Name, a.Arg))
		} else {
			node.add("Attr: " + a.Name)
		}
	}
	if u.Owner != nil {
		node.add("Owner: " + u.Owner.FullName())
	}

	switch u.Kind {
	case ast.UnitFunc:
		if u.Func != nil {
			fnChildren(node, u.Func)
		}
	case ast.UnitStruct:
		if u.Struct != nil {
			typeParams(node, u.Struct.TypeParams)
			fields := node.add("Fields")
			for _, f := range u.Struct.Fields {
				fields.add(fmt.Sprintf("%s: %s", f.Name, f.Type))
			}
		}
	case ast.UnitTrait:
		if u.Trait != nil {
			typeParams(node, u.Trait.TypeParams)
			methods := node.add("Methods")
			for _, m := range u.Trait.Methods {
				methods.add(signature(m))
			}
		}
	case ast.UnitImpl:
		if u.Impl != nil {
			typeParams(node, u.Impl.TypeParams)
			if u.Impl.Trait != nil {
				node.add("Trait: " + u.Impl.Trait.String())
			}
			node.add("Target: " + u.Impl.Target.String())
			if u.Priority != 0 {
				node.add(fmt.Sprintf("Priority: %d", u.Priority))
			}
		}
	}
	return node
}

func typeParams(node *treeNode, tps []*ast.TypeParam) {
	if len(tps) == 0 {
		return
	}
	gen := node.add("Generics")
	for _, tp := range tps {
		gen.add(typeParamString(tp))
	}
}

func typeParamString(tp *ast.TypeParam) string {
	if len(tp.Bounds) == 0 {
		return tp.Name
	}
	bounds := make([]string, len(tp.Bounds))
	for i, b := range tp.Bounds {
		bounds[i] = b.String()
	}
	return tp.Name + ": " + strings.Join(bounds, " + ")
}

func signature(fn *ast.FnDecl) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		if p.Self {
			params[i] = "self"
			continue
		}
		params[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	return fmt.Sprintf("fn %s(%s) -> %s", fn.Name, strings.Join(params, ", "), fn.Result)
}

func fnChildren(node *treeNode, fn *ast.FnDecl) {
	typeParams(node, fn.TypeParams)
	node.add("Signature: " + signature(fn))
	if fn.Body == nil {
		node.add("Body: <none>")
		return
	}
	body := node.add("Body")
	for _, s := range fn.Body.Stmts {
		body.children = append(body.children, stmtNode(s))
	}
}

func blockNode(label string, b *ast.Block) *treeNode {
	n := &treeNode{label: label}
	if b == nil {
		return n
	}
	for _, s := range b.Stmts {
		n.children = append(n.children, stmtNode(s))
	}
	return n
}

func stmtNode(s ast.Stmt) *treeNode {
	switch s := s.(type) {
	case *ast.LetStmt:
		label := "Let " + s.Name
		if s.Type != nil {
			label += ": " + s.Type.String()
		}
		return &treeNode{label: label + " = " + exprString(s.Value)}
	case *ast.AssignStmt:
		return &treeNode{label: fmt.Sprintf("Assign %s = %s", exprString(s.Target), exprString(s.Value))}
	case *ast.ReturnStmt:
		if s.Value == nil {
			return &treeNode{label: "Return"}
		}
		return &treeNode{label: "Return " + exprString(s.Value)}
	case *ast.IfStmt:
		n := &treeNode{label: "If " + exprString(s.Cond)}
		n.children = append(n.children, blockNode("Then", s.Then))
		switch e := s.Else.(type) {
		case *ast.Block:
			n.children = append(n.children, blockNode("Else", e))
		case *ast.IfStmt:
			n.add("Else", stmtNode(e))
		}
		return n
	case *ast.WhileStmt:
		n := &treeNode{label: "While " + exprString(s.Cond)}
		n.children = append(n.children, blockNode("Body", s.Body))
		return n
	case *ast.ExprStmt:
		return &treeNode{label: "Expr " + exprString(s.X)}
	case *ast.Block:
		return blockNode("Block", s)
	}
	return &treeNode{label: fmt.Sprintf("<%T>", s)}
}

func exprString(e ast.Expr) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case *ast.Literal:
		if e.Kind == ast.LitString {
			return fmt.Sprintf("%q", e.Text)
		}
		return e.Text
	case *ast.PathExpr:
		return strings.Join(e.Segments, source.Separator)
	case *ast.SelfExpr:
		return "self"
	case *ast.CallExpr:
		return exprString(e.Callee) + "(" + exprList(e.Args) + ")"
	case *ast.MethodCallExpr:
		return fmt.Sprintf("%s.%s(%s)", exprString(e.Recv), e.Method, exprList(e.Args))
	case *ast.FieldExpr:
		return exprString(e.X) + "." + e.Field
	case *ast.StructLit:
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = f.Name + ": " + exprString(f.Value)
		}
		return fmt.Sprintf("new %s { %s }", e.Type, strings.Join(fields, ", "))
	case *ast.UnaryExpr:
		return e.Op.String() + exprString(e.X)
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", exprString(e.X), e.Op, exprString(e.Y))
	case *ast.JoinedExpr:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, op := range e.Operands {
			if i > 0 {
				fmt.Fprintf(&sb, " %s ", e.Ops[i-1])
			}
			sb.WriteString(exprString(op))
		}
		sb.WriteByte(')')
		return sb.String()
	case *ast.BadExpr:
		return "<bad>"
	}
	return fmt.Sprintf("<%T>", e)
}

func exprList(es []ast.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = exprString(e)
	}
	return strings.Join(parts, ", ")
}
