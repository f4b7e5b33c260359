package hir

import (
	"slices"

	"raven/internal/types"
)

// RefSet accumulates referenced unit names.
type RefSet map[string]struct{}

// Add records name.
func (r RefSet) Add(name string) {
	if name != "" {
		r[name] = struct{}{}
	}
}

// AddType records the struct units a type mentions: the instance name for
// concrete generic types, the generic itself otherwise.
func (r RefSet) AddType(t types.Type) {
	if t.Kind != types.KindNamed {
		return
	}
	if len(t.Args) > 0 && t.IsConcrete() {
		r.Add(types.InstanceName(t.Name, t.Args))
	} else {
		r.Add(t.Name)
	}
	for _, a := range t.Args {
		r.AddType(a)
	}
}

// AddTarget records the units a call target depends on.
func (r RefSet) AddTarget(t Target) {
	r.Add(t.Unit)
	r.Add(t.Generic)
	if t.Trait != nil {
		r.Add(t.Trait.Name)
	}
}

// Sorted returns the names in order.
func (r RefSet) Sorted() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// VisitTypes calls fn for every type written in the unit's signature and
// body: parameters, results, fields, lets, literal types, expression
// types and bound arguments. Nested arguments are not visited separately.
func VisitTypes(u *Unit, fn func(types.Type)) {
	bounds := func(tps []TypeParam) {
		for _, tp := range tps {
			for _, b := range tp.Bounds {
				for _, a := range b.Args {
					fn(a)
				}
			}
		}
	}
	switch u.Kind {
	case UnitFunc:
		f := u.Func
		bounds(f.TypeParams)
		for _, p := range f.Params {
			fn(p.Type)
		}
		fn(f.Result)
		walkLets(f.Body, func(l *Let) { fn(l.Type) })
		WalkExprs(f.Body, func(e Expr) { fn(e.Type()) })
	case UnitStruct:
		bounds(u.Struct.TypeParams)
		for _, fld := range u.Struct.Fields {
			fn(fld.Type)
		}
	case UnitTrait:
		bounds(u.Trait.TypeParams)
		for _, m := range u.Trait.Methods {
			for _, p := range m.Params {
				fn(p.Type)
			}
			fn(m.Result)
		}
	case UnitImpl:
		bounds(u.Impl.TypeParams)
		for _, a := range u.Impl.Trait.Args {
			fn(a)
		}
		fn(u.Impl.Target)
	}
}

// CollectRefs computes the sorted dependency list of u.
func CollectRefs(u *Unit) []string {
	refs := RefSet{}
	VisitTypes(u, refs.AddType)
	for _, tp := range u.TypeParams() {
		for _, b := range tp.Bounds {
			refs.Add(b.Name)
		}
	}
	switch u.Kind {
	case UnitFunc:
		refs.Add(u.Func.Owner)
		for _, t := range Targets(u.Func.Body) {
			refs.AddTarget(t)
		}
	case UnitImpl:
		refs.Add(u.Impl.Trait.Name)
	}
	delete(refs, u.Name)
	return refs.Sorted()
}

// ConcreteInstances lists every concrete generic struct type mentioned by
// u, outermost first, deduplicated by instance name.
func ConcreteInstances(u *Unit) []types.Type {
	seen := map[string]bool{}
	var out []types.Type
	var visit func(t types.Type)
	visit = func(t types.Type) {
		if t.Kind != types.KindNamed {
			return
		}
		if len(t.Args) > 0 && t.IsConcrete() {
			name := types.InstanceName(t.Name, t.Args)
			if !seen[name] {
				seen[name] = true
				out = append(out, t)
			}
		}
		for _, a := range t.Args {
			visit(a)
		}
	}
	VisitTypes(u, visit)
	return out
}

func walkLets(b *Block, fn func(*Let)) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *Let:
			fn(s)
		case *If:
			walkLets(s.Then, fn)
			walkLets(s.Else, fn)
		case *While:
			walkLets(s.Body, fn)
		}
	}
}
