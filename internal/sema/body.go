package sema

import (
	"fmt"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/types"
)

func (uc *unitChecker) checkBody(b *ast.Block, params []hir.Param, result types.Type) (*hir.Block, error) {
	uc.result = result
	uc.vars.push()
	defer uc.vars.pop()
	for _, p := range params {
		uc.vars.declare(p.Name, p.Type)
	}
	out, err := uc.block(b)
	if err != nil {
		return nil, err
	}
	if result.IsValid() && !result.IsVoid() && !terminates(b) {
		uc.report(diag.SemaMissingReturn, uc.raw.NameSpan, "`%s` may finish without returning `%s`", uc.raw.Func.Name, result)
	}
	return out, nil
}

func (uc *unitChecker) block(b *ast.Block) (*hir.Block, error) {
	uc.vars.push()
	defer uc.vars.pop()
	out := &hir.Block{Stmts: make([]hir.Stmt, 0, len(b.Stmts))}
	for _, s := range b.Stmts {
		hs, err := uc.stmt(s)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, hs)
	}
	return out, nil
}

func (uc *unitChecker) stmt(s ast.Stmt) (hir.Stmt, error) {
	switch s := s.(type) {
	case *ast.LetStmt:
		return uc.let(s)
	case *ast.AssignStmt:
		return uc.assign(s)
	case *ast.ReturnStmt:
		return uc.ret(s)
	case *ast.IfStmt:
		return uc.ifStmt(s)
	case *ast.WhileStmt:
		cond, err := uc.condition(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := uc.block(s.Body)
		if err != nil {
			return nil, err
		}
		return &hir.While{Cond: cond, Body: body}, nil
	case *ast.ExprStmt:
		x, err := uc.expr(s.X)
		if err != nil {
			return nil, err
		}
		return &hir.ExprStmt{X: x}, nil
	case *ast.Block:
		// a bare block lowers to an unconditional if
		b, err := uc.block(s)
		if err != nil {
			return nil, err
		}
		return &hir.If{Cond: &hir.Literal{Kind: hir.LitBool, Text: "true", Ty: types.Bool}, Then: b}, nil
	}
	return nil, fmt.Errorf("unexpected statement %T", s)
}

func (uc *unitChecker) let(s *ast.LetStmt) (hir.Stmt, error) {
	v, err := uc.expr(s.Value)
	if err != nil {
		return nil, err
	}
	t := v.Type()
	if s.Type != nil {
		declared, err := uc.resolveType(uc.scope, s.Type)
		if err := uc.soft(err); err != nil {
			return nil, err
		}
		if typeMismatch(declared, t) {
			uc.report(diag.SemaTypeMismatch, s.Value.Pos(), "cannot use `%s` as `%s`", t, declared)
		}
		t = declared
	}
	if t.IsVoid() {
		uc.report(diag.SemaTypeMismatch, s.Value.Pos(), "`%s` cannot hold a void value", s.Name)
	}
	uc.vars.declare(s.Name, t)
	return &hir.Let{Name: s.Name, Type: t, Value: v}, nil
}

func (uc *unitChecker) assign(s *ast.AssignStmt) (hir.Stmt, error) {
	switch tgt := s.Target.(type) {
	case *ast.PathExpr, *ast.FieldExpr, *ast.SelfExpr:
	default:
		uc.report(diag.SemaKindMismatch, tgt.Pos(), "cannot assign to this expression")
	}
	target, err := uc.expr(s.Target)
	if err != nil {
		return nil, err
	}
	v, err := uc.expr(s.Value)
	if err != nil {
		return nil, err
	}
	if typeMismatch(target.Type(), v.Type()) {
		uc.report(diag.SemaTypeMismatch, s.Value.Pos(), "cannot assign `%s` to a place of type `%s`", v.Type(), target.Type())
	}
	return &hir.Assign{Target: target, Value: v}, nil
}

func (uc *unitChecker) ret(s *ast.ReturnStmt) (hir.Stmt, error) {
	if s.Value == nil {
		if uc.result.IsValid() && !uc.result.IsVoid() {
			uc.report(diag.SemaTypeMismatch, s.Span, "missing return value of type `%s`", uc.result)
		}
		return &hir.Return{}, nil
	}
	v, err := uc.expr(s.Value)
	if err != nil {
		return nil, err
	}
	switch {
	case uc.result.IsVoid():
		uc.report(diag.SemaTypeMismatch, s.Value.Pos(), "`%s` returns no value", uc.raw.Func.Name)
	case typeMismatch(uc.result, v.Type()):
		uc.report(diag.SemaTypeMismatch, s.Value.Pos(), "cannot return `%s` from a function returning `%s`", v.Type(), uc.result)
	}
	return &hir.Return{Value: v}, nil
}

func (uc *unitChecker) ifStmt(s *ast.IfStmt) (*hir.If, error) {
	cond, err := uc.condition(s.Cond)
	if err != nil {
		return nil, err
	}
	then, err := uc.block(s.Then)
	if err != nil {
		return nil, err
	}
	out := &hir.If{Cond: cond, Then: then}
	switch els := s.Else.(type) {
	case nil:
	case *ast.Block:
		if out.Else, err = uc.block(els); err != nil {
			return nil, err
		}
	case *ast.IfStmt:
		nested, err := uc.ifStmt(els)
		if err != nil {
			return nil, err
		}
		out.Else = &hir.Block{Stmts: []hir.Stmt{nested}}
	}
	return out, nil
}

func (uc *unitChecker) condition(e ast.Expr) (hir.Expr, error) {
	x, err := uc.expr(e)
	if err != nil {
		return nil, err
	}
	if typeMismatch(types.Bool, x.Type()) {
		uc.report(diag.SemaTypeMismatch, e.Pos(), "condition must be `bool`, found `%s`", x.Type())
	}
	return x, nil
}

// terminates reports whether every path through b ends in a return.
func terminates(b *ast.Block) bool {
	for _, s := range b.Stmts {
		if stmtTerminates(s) {
			return true
		}
	}
	return false
}

func stmtTerminates(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Block:
		return terminates(s)
	case *ast.IfStmt:
		return s.Else != nil && terminates(s.Then) && stmtTerminates(s.Else)
	}
	return false
}
