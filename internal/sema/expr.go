package sema

import (
	"fmt"
	"strconv"
	"strings"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/types"
)

// invalid stands in for an expression whose error is already recorded.
func invalid() hir.Expr { return &hir.Local{Name: "_", Ty: types.Invalid} }

func (uc *unitChecker) expr(e ast.Expr) (hir.Expr, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return uc.literal(e), nil
	case *ast.PathExpr:
		return uc.value(e), nil
	case *ast.SelfExpr:
		t, ok := uc.vars.lookup("self")
		if !ok {
			uc.report(diag.SemaUnresolvedName, e.Span, "`self` outside a method")
		}
		return &hir.Local{Name: "self", Ty: t}, nil
	case *ast.CallExpr:
		return uc.call(e)
	case *ast.MethodCallExpr:
		return uc.methodCall(e)
	case *ast.FieldExpr:
		return uc.field(e)
	case *ast.StructLit:
		return uc.structLit(e)
	case *ast.UnaryExpr:
		return uc.unary(e)
	case *ast.BinaryExpr:
		return uc.binary(e)
	case *ast.JoinedExpr:
		return uc.joined(e)
	case *ast.BadExpr:
		return invalid(), nil
	}
	return nil, fmt.Errorf("unexpected expression %T", e)
}

func (uc *unitChecker) exprs(es []ast.Expr) ([]hir.Expr, error) {
	out := make([]hir.Expr, len(es))
	for i, e := range es {
		x, err := uc.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (uc *unitChecker) literal(e *ast.Literal) hir.Expr {
	lit := &hir.Literal{Text: e.Text}
	switch e.Kind {
	case ast.LitInt:
		lit.Kind, lit.Ty = hir.LitInt, types.I64
		if _, err := strconv.ParseInt(e.Text, 10, 64); err != nil {
			uc.report(diag.SemaTypeMismatch, e.Span, "integer literal `%s` does not fit `i64`", e.Text)
		}
	case ast.LitFloat:
		lit.Kind, lit.Ty = hir.LitFloat, types.F64
	case ast.LitString:
		lit.Kind, lit.Ty = hir.LitString, types.Str
	case ast.LitBool:
		lit.Kind, lit.Ty = hir.LitBool, types.Bool
	}
	return lit
}

// value resolves a path used as a value. Only locals are values.
func (uc *unitChecker) value(e *ast.PathExpr) hir.Expr {
	if len(e.Segments) == 1 {
		if t, ok := uc.vars.lookup(e.Segments[0]); ok {
			return &hir.Local{Name: e.Segments[0], Ty: t}
		}
	}
	uc.report(diag.SemaUnresolvedName, e.Span, "cannot find value `%s`", strings.Join(e.Segments, source.Separator))
	return invalid()
}

// structOf awaits the finalized definition of the struct called name.
// It returns nil, after recording the failure, when that struct failed.
func (uc *unitChecker) structOf(name string, span source.Span) (*hir.Struct, error) {
	snap, err := uc.c.reg.AwaitFinalized(name, uc.w)
	if err != nil {
		return nil, err
	}
	if snap.Unit == nil || snap.Unit.Struct == nil {
		uc.errs = append(uc.errs, uc.dependencyFailed(span, name, snap.Err))
		return nil, nil
	}
	return snap.Unit.Struct, nil
}

func (uc *unitChecker) field(e *ast.FieldExpr) (hir.Expr, error) {
	x, err := uc.expr(e.X)
	if err != nil {
		return nil, err
	}
	out := &hir.FieldAccess{X: x, Field: e.Field, Ty: types.Invalid}
	xt := x.Type()
	if !xt.IsValid() {
		return out, nil
	}
	if xt.Kind != types.KindNamed {
		uc.report(diag.SemaUnknownField, e.FieldSpan, "type `%s` has no fields", xt)
		return out, nil
	}
	st, err := uc.structOf(xt.Name, e.X.Pos())
	if err != nil || st == nil {
		return out, err
	}
	f, ok := st.Field(e.Field)
	if !ok {
		uc.report(diag.SemaUnknownField, e.FieldSpan, "`%s` has no field `%s`", xt, e.Field)
		return out, nil
	}
	out.Ty = f.Type.Apply(types.Bind(hir.ParamNames(st.TypeParams), xt.Args))
	return out, nil
}

// structLit checks `new T { ... }`. Type arguments left out are inferred
// from the field values.
func (uc *unitChecker) structLit(e *ast.StructLit) (hir.Expr, error) {
	te := e.Type
	var (
		name     string
		explicit []types.Type
		params   int
	)
	if len(te.Path) == 1 && te.Path[0] == "Self" && uc.scope.self.Kind == types.KindNamed {
		name, explicit = uc.scope.self.Name, uc.scope.self.Args
		params = len(explicit)
	} else {
		snap, err := uc.lookupKind(uc.scope, te.Path, te.Span, ast.UnitStruct)
		if err := uc.soft(err); err != nil {
			return nil, err
		}
		if snap.Raw == nil || snap.Raw.Kind != ast.UnitStruct {
			return uc.discard(e)
		}
		name, params = snap.Name, len(snap.Raw.TypeParams())
		if len(te.Args) > 0 {
			if len(te.Args) != params {
				uc.report(diag.SemaArityMismatch, te.Span, "`%s` expects %d type arguments, got %d", name, params, len(te.Args))
				return uc.discard(e)
			}
			args, err := uc.resolveTypes(uc.scope, te.Args)
			if err := uc.soft(err); err != nil {
				return nil, err
			}
			if args == nil {
				return uc.discard(e)
			}
			explicit = args
		}
	}

	st, err := uc.structOf(name, te.Span)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return uc.discard(e)
	}
	paramNames := hir.ParamNames(st.TypeParams)
	vars := types.VarSet(paramNames)
	bind := types.Subst{}
	if explicit != nil {
		bind = types.Bind(paramNames, explicit)
	}

	values := map[string]hir.Expr{}
	given := map[string]source.Span{}
	for _, fi := range e.Fields {
		v, err := uc.expr(fi.Value)
		if err != nil {
			return nil, err
		}
		if prev, dup := given[fi.Name]; dup {
			uc.report(diag.SemaDuplicateField, fi.Span, "field `%s` given twice", fi.Name).WithNote(prev, "first given here")
			continue
		}
		given[fi.Name] = fi.Span
		f, ok := st.Field(fi.Name)
		if !ok {
			uc.report(diag.SemaUnknownField, fi.Span, "`%s` has no field `%s`", name, fi.Name)
			continue
		}
		values[fi.Name] = v
		vt := v.Type()
		if !vt.IsValid() {
			continue
		}
		var fits bool
		if explicit != nil {
			fits = f.Type.Apply(bind).Equal(vt)
		} else {
			fits = types.Match(f.Type, vt, vars, bind)
		}
		if !fits {
			uc.report(diag.SemaTypeMismatch, fi.Value.Pos(), "field `%s` expects `%s`, found `%s`", fi.Name, f.Type.Apply(bind), vt)
		}
	}

	out := &hir.StructLit{Ty: types.Invalid}
	complete := true
	for _, f := range st.Fields {
		v, ok := values[f.Name]
		if !ok {
			uc.report(diag.SemaUnknownField, e.Span, "missing field `%s` in `new %s`", f.Name, name)
			complete = false
			continue
		}
		out.Fields = append(out.Fields, hir.FieldInit{Name: f.Name, Value: v})
	}
	args := explicit
	if args == nil && params > 0 {
		args = make([]types.Type, len(paramNames))
		for i, p := range paramNames {
			t, ok := bind[p]
			if !ok {
				uc.report(diag.SemaCannotInfer, te.Span, "cannot infer type parameter `%s` of `%s`", p, name)
				complete = false
				continue
			}
			args[i] = t
		}
	}
	if complete {
		out.Ty = types.Named(name, args...)
	}
	return out, nil
}

// discard still checks the field values of a literal whose type is broken.
func (uc *unitChecker) discard(e *ast.StructLit) (hir.Expr, error) {
	for _, fi := range e.Fields {
		if _, err := uc.expr(fi.Value); err != nil {
			return nil, err
		}
	}
	return invalid(), nil
}
