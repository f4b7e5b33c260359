package hir

// WalkExprs calls fn for every expression in b, parents before children.
func WalkExprs(b *Block, fn func(Expr)) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		walkStmt(s, fn)
	}
}

func walkStmt(s Stmt, fn func(Expr)) {
	switch s := s.(type) {
	case *Let:
		walkExpr(s.Value, fn)
	case *Assign:
		walkExpr(s.Target, fn)
		walkExpr(s.Value, fn)
	case *Return:
		walkExpr(s.Value, fn)
	case *If:
		walkExpr(s.Cond, fn)
		WalkExprs(s.Then, fn)
		WalkExprs(s.Else, fn)
	case *While:
		walkExpr(s.Cond, fn)
		WalkExprs(s.Body, fn)
	case *ExprStmt:
		walkExpr(s.X, fn)
	}
}

func walkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch e := e.(type) {
	case *Call:
		for _, a := range e.Args {
			walkExpr(a, fn)
		}
	case *FieldAccess:
		walkExpr(e.X, fn)
	case *StructLit:
		for _, f := range e.Fields {
			walkExpr(f.Value, fn)
		}
	case *Joined:
		for _, o := range e.Operands {
			walkExpr(o, fn)
		}
	}
}

// Targets lists every call target in b, including joined comparisons.
func Targets(b *Block) []Target {
	var out []Target
	WalkExprs(b, func(e Expr) {
		switch e := e.(type) {
		case *Call:
			out = append(out, e.Target)
		case *Joined:
			out = append(out, e.Ops...)
		}
	})
	return out
}
