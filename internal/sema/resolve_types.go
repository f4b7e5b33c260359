package sema

import (
	"strings"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/traits"
	"raven/internal/types"
)

// sink decides what happens to a resolution error: record it, collect it
// quietly, or unwind.
type sink func(error) error

// lookupUnit awaits the candidates for path one after another. The first
// one that exists wins.
func (uc *unitChecker) lookupUnit(sc *nameScope, path []string, span source.Span) (symbols.Snapshot, error) {
	for _, cand := range sc.candidates(path) {
		snap, err := uc.c.reg.AwaitDeclared(cand, uc.w)
		if isPending(err) {
			return snap, err
		}
		if err != nil || snap.Raw == nil {
			continue
		}
		if snap.Raw.Namespace != sc.ns && !snap.Raw.Public() {
			return snap, uc.errorf(diag.SemaPrivateUnit, span, "`%s` is private to `%s`", cand, snap.Raw.Namespace)
		}
		return snap, nil
	}
	return symbols.Snapshot{}, uc.errorf(diag.SemaUnresolvedName, span, "cannot find `%s`", strings.Join(path, source.Separator))
}

func (uc *unitChecker) lookupKind(sc *nameScope, path []string, span source.Span, kind ast.UnitKind) (symbols.Snapshot, error) {
	snap, err := uc.lookupUnit(sc, path, span)
	if err != nil {
		return snap, err
	}
	if snap.Raw.Kind != kind {
		return snap, uc.errorf(diag.SemaKindMismatch, span, "`%s` is a %s, expected a %s", snap.Name, snap.Raw.Kind, kind)
	}
	return snap, nil
}

// resolveType turns syntax into a type term. Named types only need their
// unit to be declared.
func (uc *unitChecker) resolveType(sc *nameScope, te *ast.TypeExpr) (types.Type, error) {
	if te == nil {
		return types.Void, nil
	}
	if len(te.Path) == 1 {
		n := te.Path[0]
		if t, ok := types.LookupBuiltin(n); ok {
			return t, uc.noArgs(te)
		}
		if sc.params[n] {
			return types.Param(n), uc.noArgs(te)
		}
		if n == "Self" {
			if !sc.self.IsValid() {
				return types.Invalid, uc.errorf(diag.SemaUnresolvedName, te.Span, "`Self` is not available here")
			}
			return sc.self, uc.noArgs(te)
		}
	}
	snap, err := uc.lookupKind(sc, te.Path, te.Span, ast.UnitStruct)
	if err != nil {
		return types.Invalid, err
	}
	if want := len(snap.Raw.TypeParams()); want != len(te.Args) {
		return types.Invalid, uc.errorf(diag.SemaArityMismatch, te.Span,
			"`%s` expects %d type arguments, got %d", snap.Name, want, len(te.Args))
	}
	args, err := uc.resolveTypes(sc, te.Args)
	if err != nil {
		return types.Invalid, err
	}
	return types.Named(snap.Name, args...), nil
}

func (uc *unitChecker) resolveTypes(sc *nameScope, tes []*ast.TypeExpr) ([]types.Type, error) {
	if len(tes) == 0 {
		return nil, nil
	}
	out := make([]types.Type, len(tes))
	for i, a := range tes {
		t, err := uc.resolveType(sc, a)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (uc *unitChecker) noArgs(te *ast.TypeExpr) error {
	if len(te.Args) == 0 {
		return nil
	}
	return uc.errorf(diag.SemaArityMismatch, te.Span, "`%s` takes no type arguments", te.Path[0])
}

// resolveTraitRef resolves `Trait<Args>`.
func (uc *unitChecker) resolveTraitRef(sc *nameScope, te *ast.TypeExpr) (types.TraitRef, error) {
	snap, err := uc.lookupKind(sc, te.Path, te.Span, ast.UnitTrait)
	if err != nil {
		return types.TraitRef{}, err
	}
	if want := len(snap.Raw.TypeParams()); want != len(te.Args) {
		return types.TraitRef{}, uc.errorf(diag.SemaArityMismatch, te.Span,
			"trait `%s` expects %d type arguments, got %d", snap.Name, want, len(te.Args))
	}
	args, err := uc.resolveTypes(sc, te.Args)
	if err != nil {
		return types.TraitRef{}, err
	}
	return types.TraitRef{Name: snap.Name, Args: args}, nil
}

// typeParams resolves generic parameters and their bounds and returns the
// bounds as assumptions. A bound that fails to resolve is dropped.
func (uc *unitChecker) typeParams(sc *nameScope, tps []*ast.TypeParam, on sink) ([]hir.TypeParam, traits.Assumptions, error) {
	if len(tps) == 0 {
		return nil, nil, nil
	}
	out := make([]hir.TypeParam, len(tps))
	var env traits.Assumptions
	seen := map[string]source.Span{}
	for i, tp := range tps {
		if prev, dup := seen[tp.Name]; dup {
			err := uc.errorf(diag.SemaDuplicateDefinition, tp.Span, "type parameter `%s` declared twice", tp.Name)
			if err := on(err.WithNote(prev, "first declared here")); err != nil {
				return nil, nil, err
			}
		}
		seen[tp.Name] = tp.Span
		out[i].Name = tp.Name
		for _, b := range tp.Bounds {
			ref, err := uc.resolveTraitRef(sc, b)
			if err != nil {
				if err := on(err); err != nil {
					return nil, nil, err
				}
				continue
			}
			out[i].Bounds = append(out[i].Bounds, ref)
			env = append(env, types.Bound{Param: tp.Name, Trait: ref})
		}
	}
	return out, env, nil
}
