package sema

import (
	"errors"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/types"
)

// signature is a callee's interface resolved from its raw syntax.
type signature struct {
	name       string
	typeParams []hir.TypeParam
	params     []types.Type
	result     types.Type
}

func (s *signature) vars() map[string]bool {
	return types.VarSet(hir.ParamNames(s.typeParams))
}

// quiet collects the first resolution error instead of reporting it.
type quiet struct {
	first *diag.Error
}

func (q *quiet) sink(err error) error {
	var de *diag.Error
	if !errors.As(err, &de) {
		return err
	}
	if q.first == nil {
		q.first = de
	}
	return nil
}

// calleeSignature resolves the signature of the function unit snap in the
// callee's own scope. It never waits for the callee to be finalized, so
// call cycles cannot deadlock. A callee whose signature does not resolve
// fails the call with DependencyFailed; the callee reports the details itself.
func (uc *unitChecker) calleeSignature(raw *ast.Unit, name string, span source.Span) (*signature, error) {
	if sig, ok := uc.sigs[name]; ok {
		return sig, nil
	}
	if raw.Poisoned {
		return nil, uc.dependencyFailed(span, name, &diag.Error{Code: diag.SemaPoisonedUnit, Unit: name})
	}
	sc := scopeOf(raw)
	var q quiet
	tps, _, err := uc.typeParams(sc, raw.Func.TypeParams, q.sink)
	if err != nil {
		return nil, err
	}
	sig := &signature{name: name, typeParams: tps}
	for _, p := range raw.Func.Params {
		if p.Self {
			_ = q.sink(uc.errorf(diag.SemaKindMismatch, p.Span, "`self` outside an impl"))
			continue
		}
		t, err := uc.resolveType(sc, p.Type)
		if err := q.sink(err); err != nil {
			return nil, err
		}
		sig.params = append(sig.params, t)
	}
	res, err := uc.resolveType(sc, raw.Func.Result)
	if err := q.sink(err); err != nil {
		return nil, err
	}
	sig.result = res
	if q.first != nil {
		return nil, uc.dependencyFailed(span, name, q.first)
	}
	uc.sigs[name] = sig
	return sig, nil
}
