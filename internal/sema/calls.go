package sema

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/parser"
	"raven/internal/source"
	"raven/internal/traits"
	"raven/internal/types"
)

func callOf(args []hir.Expr, span source.Span) *hir.Call {
	return &hir.Call{Args: args, Ty: types.Invalid, Span: span}
}

func (uc *unitChecker) call(e *ast.CallExpr) (hir.Expr, error) {
	args, err := uc.exprs(e.Args)
	if err != nil {
		return nil, err
	}
	out := callOf(args, e.Span)
	path, ok := e.Callee.(*ast.PathExpr)
	if !ok {
		uc.report(diag.SemaKindMismatch, e.Callee.Pos(), "expression is not callable")
		return out, nil
	}
	if len(path.Segments) == 1 {
		if _, local := uc.vars.lookup(path.Segments[0]); local {
			uc.report(diag.SemaKindMismatch, path.Span, "`%s` is a variable, not a function", path.Segments[0])
			return out, nil
		}
	}
	snap, err := uc.lookupKind(uc.scope, path.Segments, path.Span, ast.UnitFunc)
	if err != nil {
		return out, uc.soft(err)
	}
	sig, err := uc.calleeSignature(snap.Raw, snap.Name, path.Span)
	if err != nil {
		return out, uc.soft(err)
	}
	if len(args) != len(sig.params) {
		uc.report(diag.SemaArityMismatch, e.Span, "`%s` takes %d arguments, got %d", snap.Name, len(sig.params), len(args))
		return out, nil
	}

	vars, bind := sig.vars(), types.Subst{}
	ok = true
	for i, p := range sig.params {
		at := args[i].Type()
		if !at.IsValid() {
			ok = false
			continue
		}
		if !types.Match(p, at, vars, bind) {
			uc.report(diag.SemaTypeMismatch, e.Args[i].Pos(), "argument %d of `%s` expects `%s`, found `%s`",
				i+1, snap.Name, p.Apply(bind), at)
			ok = false
		}
	}
	if !ok {
		return out, nil
	}

	typeArgs := make([]types.Type, len(sig.typeParams))
	for i, tp := range sig.typeParams {
		t, bound := bind[tp.Name]
		if !bound {
			uc.report(diag.SemaCannotInfer, e.Span, "cannot infer type parameter `%s` of `%s`", tp.Name, snap.Name)
			ok = false
			continue
		}
		typeArgs[i] = t
	}
	if !ok {
		return out, nil
	}
	for i, tp := range sig.typeParams {
		for _, b := range tp.Bounds {
			_, err := uc.c.engine.Resolve(uc.w, uc.name, typeArgs[i], b.Apply(bind), uc.env)
			if err == nil {
				continue
			}
			if isPending(err) {
				return nil, err
			}
			ok = false
			if err := uc.adopt(err, e.Span); err != nil {
				return nil, err
			}
		}
	}
	if !ok {
		return out, nil
	}

	target, err := uc.funcTarget(snap.Name, typeArgs, e.Span)
	if err != nil {
		return nil, err
	}
	out.Target, out.Ty = target, sig.result.Apply(bind)
	return out, nil
}

// funcTarget names the function to call. Concrete generic calls are
// degenericed right away; the rest wait for the enclosing instantiation.
func (uc *unitChecker) funcTarget(fn string, args []types.Type, span source.Span) (hir.Target, error) {
	if len(args) == 0 {
		return hir.Target{Unit: fn}, nil
	}
	deferred := hir.Target{Generic: fn, TypeArgs: args}
	if !types.AllConcrete(args) || uc.c.inst == nil {
		return deferred, nil
	}
	inst, err := uc.c.inst.InstantiateFunc(uc.name, fn, args)
	if err != nil {
		return deferred, uc.adopt(err, span)
	}
	return hir.Target{Unit: inst, Generic: fn, TypeArgs: args}, nil
}

// traitTarget turns a resolved trait obligation into a call target.
// Receivers that are not concrete keep dispatching through the trait.
func (uc *unitChecker) traitTarget(ref types.TraitRef, m traits.Match, self types.Type, method string, span source.Span) (hir.Target, error) {
	if m.Assumed || !self.IsConcrete() {
		tr := ref
		return hir.Target{Trait: &tr, Self: self, Method: method}, nil
	}
	fn, args, ok := m.MethodUnit(method)
	if !ok {
		uc.report(diag.SemaInvalidImpl, span, "`%s` does not provide `%s`", m.Impl, method)
		return hir.Target{}, nil
	}
	return uc.funcTarget(fn, args, span)
}

func (uc *unitChecker) methodCall(e *ast.MethodCallExpr) (hir.Expr, error) {
	recv, err := uc.expr(e.Recv)
	if err != nil {
		return nil, err
	}
	args, err := uc.exprs(e.Args)
	if err != nil {
		return nil, err
	}
	out := callOf(append([]hir.Expr{recv}, args...), e.Span)
	rt := recv.Type()
	if !rt.IsValid() {
		return out, nil
	}
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}
	mm, err := uc.c.engine.ResolveMethod(uc.w, uc.name, rt, e.Method, argTypes, uc.env)
	if err != nil {
		if isPending(err) {
			return nil, err
		}
		return out, uc.adopt(err, e.MethodSpan)
	}
	params := mm.Sig.Params[1:]
	if len(params) != len(args) {
		uc.report(diag.SemaArityMismatch, e.Span, "method `%s` takes %d arguments, got %d", e.Method, len(params), len(args))
		return out, nil
	}
	for i, p := range params {
		if typeMismatch(p.Type, argTypes[i]) {
			uc.report(diag.SemaTypeMismatch, e.Args[i].Pos(), "argument %d of `%s` expects `%s`, found `%s`",
				i+1, e.Method, p.Type, argTypes[i])
			return out, nil
		}
	}
	target, err := uc.traitTarget(mm.Trait, mm.Match, rt, e.Method, e.MethodSpan)
	if err != nil {
		return nil, err
	}
	out.Target, out.Ty = target, mm.Sig.Result
	return out, nil
}

func (uc *unitChecker) unary(e *ast.UnaryExpr) (hir.Expr, error) {
	x, err := uc.expr(e.X)
	if err != nil {
		return nil, err
	}
	out := callOf([]hir.Expr{x}, e.Span)
	op, ok := parser.PrefixOp(e.Op)
	if !ok {
		uc.report(diag.SemaKindMismatch, e.Span, "`%s` is not a prefix operator", e.Op)
		return out, nil
	}
	out.Target, out.Ty, err = uc.operator(op, out.Args, e.Span)
	return out, err
}

func (uc *unitChecker) binary(e *ast.BinaryExpr) (hir.Expr, error) {
	args, err := uc.exprs([]ast.Expr{e.X, e.Y})
	if err != nil {
		return nil, err
	}
	out := callOf(args, e.Span)
	op, ok := parser.BinaryOp(e.Op)
	if !ok {
		uc.report(diag.SemaKindMismatch, e.OpSpan, "`%s` is not a binary operator", e.Op)
		return out, nil
	}
	out.Target, out.Ty, err = uc.operator(op, args, e.OpSpan)
	return out, err
}

// joined checks `a < b <= c` as one comparison per adjacent pair. Every
// link must produce bool.
func (uc *unitChecker) joined(e *ast.JoinedExpr) (hir.Expr, error) {
	operands, err := uc.exprs(e.Operands)
	if err != nil {
		return nil, err
	}
	out := &hir.Joined{Operands: operands, Ops: make([]hir.Target, len(e.Ops))}
	for i, k := range e.Ops {
		op, ok := parser.BinaryOp(k)
		if !ok {
			uc.report(diag.SemaKindMismatch, e.OpSpans[i], "`%s` is not a binary operator", k)
			continue
		}
		target, res, err := uc.operator(op, operands[i:i+2], e.OpSpans[i])
		if err != nil {
			return nil, err
		}
		if typeMismatch(types.Bool, res) {
			uc.report(diag.SemaTypeMismatch, e.OpSpans[i], "comparison `%s` must produce `bool`, found `%s`", k, res)
		}
		out.Ops[i] = target
	}
	return out, nil
}

// operator resolves an operator application through its core trait. The
// first operand is the receiver.
func (uc *unitChecker) operator(op parser.Operator, operands []hir.Expr, span source.Span) (hir.Target, types.Type, error) {
	for _, x := range operands {
		if !x.Type().IsValid() {
			return hir.Target{}, types.Invalid, nil
		}
	}
	self := operands[0].Type()
	traitName := op.TraitName()
	snap, err := uc.c.reg.AwaitFinalized(traitName, uc.w)
	if err != nil {
		return hir.Target{}, types.Invalid, err
	}
	if snap.Raw == nil {
		uc.report(diag.SemaUnresolvedName, span, "operator `%s` needs trait `%s`", op.Token, traitName)
		return hir.Target{}, types.Invalid, nil
	}
	if snap.Unit == nil || snap.Unit.Trait == nil {
		uc.errs = append(uc.errs, uc.dependencyFailed(span, traitName, snap.Err))
		return hir.Target{}, types.Invalid, nil
	}
	tr := snap.Unit.Trait
	msig, ok := tr.Method(op.Method)
	if !ok {
		uc.report(diag.SemaUnknownMethod, span, "trait `%s` has no method `%s`", traitName, op.Method)
		return hir.Target{}, types.Invalid, nil
	}
	sig := traits.Signature(tr, msig, self, nil)
	if len(sig.Params) != len(operands) {
		uc.report(diag.SemaArityMismatch, span, "`%s::%s` takes %d operands, operator `%s` has %d",
			traitName, op.Method, len(sig.Params), op.Token, len(operands))
		return hir.Target{}, types.Invalid, nil
	}
	for i := 1; i < len(operands); i++ {
		if typeMismatch(sig.Params[i].Type, operands[i].Type()) {
			uc.report(diag.SemaTypeMismatch, span, "operator `%s` on `%s` expects `%s`, found `%s`",
				op.Token, self, sig.Params[i].Type, operands[i].Type())
			return hir.Target{}, types.Invalid, nil
		}
	}
	ref := types.TraitRef{Name: traitName}
	m, err := uc.c.engine.Resolve(uc.w, uc.name, self, ref, uc.env)
	if err != nil {
		if isPending(err) {
			return hir.Target{}, types.Invalid, err
		}
		return hir.Target{}, types.Invalid, uc.adopt(err, span)
	}
	target, err := uc.traitTarget(ref, m, self, op.Method, span)
	return target, sig.Result, err
}
