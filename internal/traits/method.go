package traits

import (
	"errors"
	"strings"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/types"
)

var zeroSpan source.Span

// MethodMatch is the resolution of `recv.method(...)`.
type MethodMatch struct {
	Trait types.TraitRef
	// Sig has Self and the trait parameters substituted; Params[0] is the receiver.
	Sig   hir.MethodSig
	Match Match
}

// Deferred reports whether dispatch waits for instantiation.
func (m MethodMatch) Deferred() bool { return m.Match.Assumed }

// ResolveMethod finds the trait providing method for self. A type
// parameter receiver is answered from its declared bounds. When several
// trait instantiations provide the method, args (the non-receiver
// argument types) pick the one whose signature fits.
func (e *Engine) ResolveMethod(w asyncrt.Waker, owner string, self types.Type, method string, args []types.Type, env Assumptions) (MethodMatch, error) {
	var refs []types.TraitRef
	if self.Kind == types.KindParam || self.Kind == types.KindSelf {
		refs = env.Of(self.Name)
	} else {
		recs, err := e.records(w, "")
		if err != nil {
			return MethodMatch{}, err
		}
		for _, rec := range recs {
			bind := types.Subst{}
			if !types.Match(rec.impl.Target, self, types.VarSet(hir.ParamNames(rec.impl.TypeParams)), bind) {
				continue
			}
			refs = appendUnique(refs, rec.impl.Trait.Apply(bind))
		}
	}

	var found []MethodMatch
	pending := false
	for _, ref := range refs {
		tr, err := e.trait(w, ref.Name)
		if errors.Is(err, asyncrt.ErrPending) {
			pending = true
			continue
		}
		if err != nil {
			return MethodMatch{}, err
		}
		if tr == nil {
			continue
		}
		sig, ok := tr.Method(method)
		if !ok {
			continue
		}
		found = append(found, MethodMatch{Trait: ref, Sig: Signature(tr, sig, self, ref.Args)})
	}
	if pending {
		return MethodMatch{}, asyncrt.ErrPending
	}
	if len(found) > 1 && args != nil {
		found = filterByArgs(found, args)
	}

	switch len(found) {
	case 0:
		err := diag.Errorf(diag.SemaUnknownMethod, zeroSpan, "no method `%s` for type `%s`", method, self)
		err.Unit = owner
		return MethodMatch{}, err
	case 1:
	default:
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = f.Trait.String()
		}
		err := diag.Errorf(diag.SemaAmbiguousImpl, zeroSpan,
			"method `%s` of `%s` is provided by several traits: %s", method, self, strings.Join(names, ", "))
		err.Unit = owner
		return MethodMatch{}, err
	}

	mm := found[0]
	m, err := e.Resolve(w, owner, self, mm.Trait, env)
	if err != nil {
		return MethodMatch{}, err
	}
	mm.Match = m
	return mm, nil
}

func (e *Engine) trait(w asyncrt.Waker, name string) (*hir.Trait, error) {
	snap, err := e.units.AwaitFinalized(name, w)
	if err != nil {
		return nil, err
	}
	if snap.State != symbols.StateFinalized || snap.Unit == nil || snap.Unit.Trait == nil {
		return nil, nil
	}
	return snap.Unit.Trait, nil
}

// Signature instantiates a trait method signature for self and the trait
// arguments.
func Signature(tr *hir.Trait, sig hir.MethodSig, self types.Type, args []types.Type) hir.MethodSig {
	s := types.Bind(hir.ParamNames(tr.TypeParams), args)
	out := hir.MethodSig{Name: sig.Name, Params: make([]hir.Param, len(sig.Params))}
	for i, p := range sig.Params {
		out.Params[i] = hir.Param{Name: p.Name, Type: p.Type.Apply(s).ReplaceSelf(self)}
	}
	out.Result = sig.Result.Apply(s).ReplaceSelf(self)
	return out
}

func filterByArgs(found []MethodMatch, args []types.Type) []MethodMatch {
	var out []MethodMatch
	for _, f := range found {
		if len(f.Sig.Params) == 0 {
			continue
		}
		params := f.Sig.Params[1:]
		if len(params) != len(args) {
			continue
		}
		fits := true
		for i, p := range params {
			if args[i].IsValid() && !p.Type.Equal(args[i]) {
				fits = false
				break
			}
		}
		if fits {
			out = append(out, f)
		}
	}
	return out
}

func appendUnique(refs []types.TraitRef, ref types.TraitRef) []types.TraitRef {
	for _, r := range refs {
		if r.Equal(ref) {
			return refs
		}
	}
	return append(refs, ref)
}
