package traits

import (
	"errors"
	"slices"
	"strings"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/types"
)

// Match is the implementation selected for Self: Trait.
type Match struct {
	Self  types.Type
	Trait types.TraitRef
	// Impl and Record are empty when Assumed.
	Impl   string
	Record *hir.Impl
	// Args are the impl's type arguments in declaration order.
	Args []types.Type
	// Assumed is set when Self is a type parameter bounded by Trait; the
	// concrete impl is chosen once the parameter is substituted.
	Assumed bool
}

// MethodUnit returns the function implementing method and the type
// arguments it must be instantiated with.
func (m Match) MethodUnit(method string) (string, []types.Type, bool) {
	if m.Record == nil {
		return "", nil, false
	}
	unit, ok := m.Record.Method(method)
	return unit, m.Args, ok
}

// errCycle marks a goal that is already being proven higher up the stack.
var errCycle = errors.New("cyclic trait obligation")

type candidate struct {
	rec  record
	args []types.Type
}

func (c candidate) specificity() int {
	n := c.rec.impl.Target.Specificity()
	for _, a := range c.rec.impl.Trait.Args {
		n += a.Specificity()
	}
	return n
}

// Resolve selects the impl of trait for self. The highest priority wins;
// among equal priorities a strictly more specific pattern wins; any
// remaining tie is AmbiguousImpl. No candidate is UnsatisfiedBound.
func (e *Engine) Resolve(w asyncrt.Waker, owner string, self types.Type, trait types.TraitRef, env Assumptions) (Match, error) {
	m, err := e.resolve(w, owner, self, trait, env, nil)
	if errors.Is(err, errCycle) {
		return Match{}, unsatisfied(owner, self, trait)
	}
	return m, err
}

func (e *Engine) resolve(w asyncrt.Waker, owner string, self types.Type, trait types.TraitRef, env Assumptions, stack []string) (Match, error) {
	if self.Kind == types.KindParam || self.Kind == types.KindSelf {
		if env.Holds(self.Name, trait) {
			return Match{Self: self, Trait: trait, Assumed: true}, nil
		}
		return Match{}, unsatisfied(owner, self, trait)
	}

	goal := self.String() + ": " + trait.String()
	if slices.Contains(stack, goal) {
		return Match{}, errCycle
	}
	stack = append(stack, goal)

	recs, err := e.records(w, trait.Name)
	if err != nil {
		return Match{}, err
	}
	var cands []candidate
	for _, rec := range recs {
		args, ok, err := e.try(w, owner, rec, self, trait, env, stack)
		if err != nil {
			return Match{}, err
		}
		if ok {
			cands = append(cands, candidate{rec: rec, args: args})
		}
	}
	best, err := selectBest(owner, self, trait, cands)
	if err != nil {
		return Match{}, err
	}
	return Match{Self: self, Trait: trait, Impl: best.rec.name, Record: best.rec.impl, Args: best.args}, nil
}

// try matches one impl record structurally and proves its sub-bounds.
func (e *Engine) try(w asyncrt.Waker, owner string, rec record, self types.Type, trait types.TraitRef, env Assumptions, stack []string) ([]types.Type, bool, error) {
	impl := rec.impl
	vars := types.VarSet(hir.ParamNames(impl.TypeParams))
	bind := types.Subst{}
	if !types.Match(impl.Target, self, vars, bind) || !types.MatchAll(impl.Trait.Args, trait.Args, vars, bind) {
		return nil, false, nil
	}
	args := make([]types.Type, len(impl.TypeParams))
	for i, tp := range impl.TypeParams {
		a, ok := bind[tp.Name]
		if !ok {
			return nil, false, nil
		}
		args[i] = a
	}
	for i, tp := range impl.TypeParams {
		for _, b := range tp.Bounds {
			_, err := e.resolve(w, owner, args[i], b.Apply(bind), env, stack)
			switch {
			case err == nil:
			case errors.Is(err, errCycle), diag.CodeOf(err) == diag.SemaUnsatisfiedBound:
				return nil, false, nil
			default:
				return nil, false, err
			}
		}
	}
	return args, true, nil
}

func selectBest(owner string, self types.Type, trait types.TraitRef, cands []candidate) (candidate, error) {
	if len(cands) == 0 {
		return candidate{}, unsatisfied(owner, self, trait)
	}
	top := cands[0].rec.impl.Priority
	for _, c := range cands[1:] {
		top = max(top, c.rec.impl.Priority)
	}
	var tied []candidate
	bestSpec := -1
	for _, c := range cands {
		if c.rec.impl.Priority != top {
			continue
		}
		switch spec := c.specificity(); {
		case spec > bestSpec:
			bestSpec = spec
			tied = append(tied[:0], c)
		case spec == bestSpec:
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}
	names := make([]string, len(tied))
	for i, c := range tied {
		names[i] = c.rec.name
	}
	err := diag.Errorf(diag.SemaAmbiguousImpl, tied[0].rec.span,
		"ambiguous implementations of `%s` for `%s` (priority %d): %s",
		trait, self, top, strings.Join(names, ", "))
	err.Unit = owner
	for _, c := range tied {
		err.WithNote(c.rec.span, "candidate `"+c.rec.name+"`")
	}
	return candidate{}, err
}

func unsatisfied(owner string, self types.Type, trait types.TraitRef) *diag.Error {
	err := diag.Errorf(diag.SemaUnsatisfiedBound, zeroSpan, "type `%s` does not implement `%s`", self, trait)
	err.Unit = owner
	return err
}
