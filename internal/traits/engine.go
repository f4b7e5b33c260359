package traits

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"raven/internal/ast"
	"raven/internal/asyncrt"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/types"
)

// Units is the part of the symbol registry the engine reads.
type Units interface {
	AwaitSealed(w asyncrt.Waker) error
	AwaitFinalized(name string, w asyncrt.Waker) (symbols.Snapshot, error)
	Range(fn func(symbols.Snapshot) bool)
}

// Assumptions are the bounds declared on the type parameters in scope.
type Assumptions []types.Bound

// Holds reports whether param is declared to implement trait.
func (a Assumptions) Holds(param string, trait types.TraitRef) bool {
	for _, b := range a {
		if b.Param == param && b.Trait.Equal(trait) {
			return true
		}
	}
	return false
}

// Of lists the bounds declared on param.
func (a Assumptions) Of(param string) []types.TraitRef {
	var out []types.TraitRef
	for _, b := range a {
		if b.Param == param {
			out = append(out, b.Trait)
		}
	}
	return out
}

// Engine answers "which impl provides trait T for type X".
type Engine struct {
	units Units

	once  sync.Once
	impls []string // sorted impl unit names, fixed after seal
	// последний сегмент пути трейта, как он записан в исходнике
	written map[string]string
}

// NewEngine creates an engine over units.
func NewEngine(units Units) *Engine {
	return &Engine{units: units}
}

// implNames lists all impl units. Valid only once the registry is sealed.
func (e *Engine) implNames() []string {
	e.once.Do(func() {
		e.written = map[string]string{}
		e.units.Range(func(s symbols.Snapshot) bool {
			if s.Raw != nil && s.Raw.Kind == ast.UnitImpl {
				e.impls = append(e.impls, s.Name)
				if s.Raw.Impl != nil {
					e.written[s.Name] = lastSegment(s.Raw.Impl.Trait)
				}
			}
			return true
		})
		slices.Sort(e.impls)
	})
	return e.impls
}

// lastSegment is "" for inherent impls.
func lastSegment(t *ast.TypeExpr) string {
	if t == nil || len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// mayImplement reports whether impl can resolve to trait. Resolution
// keeps the last path segment, so impls written against another name are
// skipped without waiting for them.
func (e *Engine) mayImplement(impl, trait string) bool {
	written, ok := e.written[impl]
	if !ok || trait == "" {
		return true
	}
	if written == "" {
		return false
	}
	if i := strings.LastIndex(trait, source.Separator); i >= 0 {
		trait = trait[i+len(source.Separator):]
	}
	return written == trait
}

// records awaits every impl record of trait. Failed impls are skipped:
// they carry their own diagnostics.
func (e *Engine) records(w asyncrt.Waker, trait string) ([]record, error) {
	if err := e.units.AwaitSealed(w); err != nil {
		return nil, err
	}
	var out []record
	var pending bool
	for _, name := range e.implNames() {
		if !e.mayImplement(name, trait) {
			continue
		}
		snap, err := e.units.AwaitFinalized(name, w)
		if errors.Is(err, asyncrt.ErrPending) {
			// продолжаем, чтобы один проход зарегистрировал waker везде
			pending = true
			continue
		}
		if err != nil {
			return nil, err
		}
		if snap.State != symbols.StateFinalized || snap.Unit == nil || snap.Unit.Impl == nil {
			continue
		}
		if trait == "" || snap.Unit.Impl.Trait.Name == trait {
			out = append(out, record{name: name, span: snap.Unit.Span, impl: snap.Unit.Impl})
		}
	}
	if pending {
		return nil, asyncrt.ErrPending
	}
	return out, nil
}

type record struct {
	name string
	span source.Span
	impl *hir.Impl
}
