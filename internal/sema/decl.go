package sema

import (
	"fmt"
	"slices"
	"strings"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/traits"
	"raven/internal/types"
)

func (uc *unitChecker) checkStruct() (*hir.Struct, error) {
	decl := uc.raw.Struct
	tps, _, err := uc.typeParams(uc.scope, decl.TypeParams, uc.soft)
	if err != nil {
		return nil, err
	}
	out := &hir.Struct{TypeParams: tps}
	seen := map[string]source.Span{}
	for _, f := range decl.Fields {
		if prev, dup := seen[f.Name]; dup {
			uc.report(diag.SemaDuplicateField, f.Span, "field `%s` declared twice", f.Name).
				WithNote(prev, "first declared here")
			continue
		}
		seen[f.Name] = f.Span
		t, err := uc.resolveType(uc.scope, f.Type)
		if err := uc.soft(err); err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, hir.Field{Name: f.Name, Type: t})
	}
	return out, nil
}

func (uc *unitChecker) checkTrait() (*hir.Trait, error) {
	decl := uc.raw.Trait
	uc.scope.self = types.Self
	tps, _, err := uc.typeParams(uc.scope, decl.TypeParams, uc.soft)
	if err != nil {
		return nil, err
	}
	out := &hir.Trait{TypeParams: tps}
	seen := map[string]source.Span{}
	for _, m := range decl.Methods {
		if prev, dup := seen[m.Name]; dup {
			uc.report(diag.SemaDuplicateDefinition, m.Span, "method `%s` declared twice", m.Name).
				WithNote(prev, "first declared here")
			continue
		}
		seen[m.Name] = m.Span
		if len(m.Params) == 0 || !m.Params[0].Self {
			uc.report(diag.SemaKindMismatch, m.Span, "trait method `%s` must take `self` first", m.Name)
			continue
		}
		params, err := uc.params(m.Params, types.Self)
		if err != nil {
			return nil, err
		}
		res, err := uc.resolveType(uc.scope, m.Result)
		if err := uc.soft(err); err != nil {
			return nil, err
		}
		out.Methods = append(out.Methods, hir.MethodSig{Name: m.Name, Params: params, Result: res})
	}
	return out, nil
}

// params resolves value parameters; self takes selfType.
func (uc *unitChecker) params(ps []*ast.Param, selfType types.Type) ([]hir.Param, error) {
	out := make([]hir.Param, 0, len(ps))
	seen := map[string]source.Span{}
	for _, p := range ps {
		if prev, dup := seen[p.Name]; dup {
			uc.report(diag.SemaDuplicateDefinition, p.Span, "parameter `%s` declared twice", p.Name).
				WithNote(prev, "first declared here")
		}
		seen[p.Name] = p.Span
		if p.Self {
			if !selfType.IsValid() {
				uc.report(diag.SemaKindMismatch, p.Span, "`self` parameter outside an impl")
			}
			out = append(out, hir.Param{Name: "self", Type: selfType})
			continue
		}
		t, err := uc.resolveType(uc.scope, p.Type)
		if err := uc.soft(err); err != nil {
			return nil, err
		}
		out = append(out, hir.Param{Name: p.Name, Type: t})
	}
	return out, nil
}

func (uc *unitChecker) checkImpl() (*hir.Impl, error) {
	decl := uc.raw.Impl
	sc := uc.scope
	tps, _, err := uc.typeParams(sc, decl.TypeParams, uc.soft)
	if err != nil {
		return nil, err
	}
	out := &hir.Impl{TypeParams: tps, Priority: uc.raw.Priority}
	ref, err := uc.resolveTraitRef(sc, decl.Trait)
	if err := uc.soft(err); err != nil {
		return nil, err
	}
	target, err := uc.resolveType(sc, decl.Target)
	if err := uc.soft(err); err != nil {
		return nil, err
	}
	if ref.Name == "" || !target.IsValid() {
		return out, nil
	}
	out.Trait, out.Target = ref, target

	for _, tp := range decl.TypeParams {
		if !target.Mentions(tp.Name) && !slices.ContainsFunc(ref.Args, func(a types.Type) bool { return a.Mentions(tp.Name) }) {
			uc.report(diag.SemaInvalidImpl, tp.Span, "type parameter `%s` is not used by the impl header", tp.Name)
		}
	}

	snap, err := uc.c.reg.AwaitFinalized(ref.Name, uc.w)
	if err != nil {
		return nil, err
	}
	if snap.State != symbols.StateFinalized {
		uc.errs = append(uc.errs, uc.dependencyFailed(decl.Trait.Span, ref.Name, snap.Err))
		return out, nil
	}
	tr := snap.Unit.Trait

	sc.self = target
	byName := map[string]*ast.FnDecl{}
	for _, m := range decl.Methods {
		byName[m.Name] = m
	}
	for _, sig := range tr.Methods {
		m, ok := byName[sig.Name]
		if !ok {
			uc.report(diag.SemaInvalidImpl, uc.raw.NameSpan, "missing method `%s` of `%s`", sig.Name, ref)
			continue
		}
		want := traits.Signature(tr, sig, target, ref.Args)
		params, err := uc.params(m.Params, target)
		if err != nil {
			return nil, err
		}
		res, err := uc.resolveType(sc, m.Result)
		if err := uc.soft(err); err != nil {
			return nil, err
		}
		got := hir.MethodSig{Name: m.Name, Params: params, Result: res}
		if !sameSignature(want, got) {
			uc.report(diag.SemaInvalidImpl, m.Span, "method `%s` has signature `%s`, `%s` expects `%s`",
				m.Name, sigString(got), ref, sigString(want))
		}
		out.Methods = append(out.Methods, hir.ImplMethod{Name: sig.Name, Unit: uc.name + source.Separator + sig.Name})
	}
	for _, m := range decl.Methods {
		if _, ok := tr.Method(m.Name); !ok {
			uc.report(diag.SemaInvalidImpl, m.Span, "`%s` is not a method of `%s`", m.Name, ref)
		}
	}
	slices.SortFunc(out.Methods, func(a, b hir.ImplMethod) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func sameSignature(a, b hir.MethodSig) bool {
	if len(a.Params) != len(b.Params) || !a.Result.Equal(b.Result) {
		return false
	}
	for i := range a.Params {
		if !a.Params[i].Type.Equal(b.Params[i].Type) {
			return false
		}
	}
	return true
}

func sigString(s hir.MethodSig) string {
	ts := make([]types.Type, len(s.Params))
	for i, p := range s.Params {
		ts[i] = p.Type
	}
	str := fmt.Sprintf("fn(%s)", types.ListString(ts))
	if !s.Result.IsVoid() {
		str += " -> " + s.Result.String()
	}
	return str
}

func (uc *unitChecker) checkFunc() (*hir.Func, error) {
	raw, fd := uc.raw, uc.raw.Func
	f := &hir.Func{Internal: raw.Internal}
	selfType := types.Invalid

	if owner := raw.Owner; owner != nil {
		f.Owner = owner.FullName()
		f.Method = fd.Name
		f.Internal = fd.Body == nil
		if owner.Poisoned {
			uc.errs = append(uc.errs, uc.dependencyFailed(raw.NameSpan, f.Owner,
				&diag.Error{Code: diag.SemaPoisonedUnit, Unit: f.Owner}))
			return f, nil
		}
		// the impl reports header errors under its own name
		var q quiet
		tps, env, err := uc.typeParams(uc.scope, owner.Impl.TypeParams, q.sink)
		if err != nil {
			return nil, err
		}
		target, err := uc.resolveType(uc.scope, owner.Impl.Target)
		if err := q.sink(err); err != nil {
			return nil, err
		}
		if q.first != nil {
			uc.errs = append(uc.errs, uc.dependencyFailed(raw.NameSpan, f.Owner, q.first))
			return f, nil
		}
		f.TypeParams, uc.env = tps, env
		selfType = target
		uc.scope.self = target
	} else {
		tps, env, err := uc.typeParams(uc.scope, fd.TypeParams, uc.soft)
		if err != nil {
			return nil, err
		}
		f.TypeParams, uc.env = tps, env
		switch {
		case fd.Body == nil && !raw.Internal:
			uc.report(diag.SemaInvalidInternal, raw.NameSpan, "function `%s` has no body; only `internal` functions may omit it", fd.Name)
		case fd.Body != nil && raw.Internal:
			uc.report(diag.SemaInvalidInternal, raw.NameSpan, "`internal` function `%s` must not have a body", fd.Name)
		}
	}

	params, err := uc.params(fd.Params, selfType)
	if err != nil {
		return nil, err
	}
	res, err := uc.resolveType(uc.scope, fd.Result)
	if err := uc.soft(err); err != nil {
		return nil, err
	}
	f.Params, f.Result = params, res
	if fd.Body == nil || f.Internal {
		return f, nil
	}
	body, err := uc.checkBody(fd.Body, params, res)
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f, nil
}
