package hir

import (
	"strings"
	"testing"

	"raven/internal/types"
)

func identity() *Unit {
	tp := types.Param("T")
	return &Unit{
		Name: "main::identity",
		Kind: UnitFunc,
		Func: &Func{
			TypeParams: []TypeParam{{Name: "T"}},
			Params:     []Param{{Name: "x", Type: tp}},
			Result:     tp,
			Body: &Block{Stmts: []Stmt{
				&Let{Name: "y", Type: tp, Value: &Local{Name: "x", Ty: tp}},
				&Return{Value: &Call{
					Target: Target{Trait: &types.TraitRef{Name: "core::Add", Args: []types.Type{tp}}, Self: tp, Method: "add"},
					Args:   []Expr{&Local{Name: "y", Ty: tp}, &Local{Name: "x", Ty: tp}},
					Ty:     tp,
				}},
			}},
		},
	}
}

func TestPrintIsStable(t *testing.T) {
	u := identity()
	u.Refs = CollectRefs(u)
	want := strings.Join([]string{
		"fn main::identity<T>(x: T) -> T {",
		"  let y: T = x;",
		"  return <T as core::Add<T>>::add(y, x);",
		"}",
		"// refs: core::Add",
		"",
	}, "\n")
	if got := Print(u); got != want {
		t.Fatalf("Print =\n%s\nwant\n%s", got, want)
	}
}

func TestInstantiateSubstitutesAndResolves(t *testing.T) {
	u := identity()
	var seen []string
	inst, err := Instantiate(u, "main::identity<i64>", []types.Type{types.I64}, func(t Target) (Target, error) {
		seen = append(seen, TargetString(t))
		return Target{Unit: "core::impl#0::add"}, nil
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if len(seen) != 1 || seen[0] != "<i64 as core::Add<i64>>::add" {
		t.Fatalf("resolver saw %v", seen)
	}
	if inst.Origin != "main::identity" || inst.IsGeneric() {
		t.Fatalf("unexpected instance %+v", inst)
	}
	inst.Refs = CollectRefs(inst)
	got := Print(inst)
	if !strings.Contains(got, "fn main::identity<i64>(x: i64) -> i64 {") ||
		!strings.Contains(got, "return core::impl#0::add(y, x);") ||
		!strings.Contains(got, "// refs: core::impl#0::add") {
		t.Fatalf("unexpected instance:\n%s", got)
	}
	// the generic is untouched
	if !strings.Contains(Print(u), "<T as core::Add<T>>::add") {
		t.Fatalf("generic body was mutated")
	}
}

func TestConcreteInstances(t *testing.T) {
	box := types.Named("main::Box", types.Named("main::Box", types.I64))
	u := &Unit{
		Name: "main::f",
		Kind: UnitFunc,
		Func: &Func{
			Result: box,
			Body: &Block{Stmts: []Stmt{
				&Return{Value: &StructLit{Ty: box}},
			}},
		},
	}
	var names []string
	for _, ty := range ConcreteInstances(u) {
		names = append(names, types.InstanceName(ty.Name, ty.Args))
	}
	if strings.Join(names, ";") != "main::Box<main::Box<i64>>;main::Box<i64>" {
		t.Fatalf("instances = %v", names)
	}
	refs := CollectRefs(u)
	if strings.Join(refs, ";") != "main::Box<i64>;main::Box<main::Box<i64>>" {
		t.Fatalf("refs = %v", refs)
	}
}
