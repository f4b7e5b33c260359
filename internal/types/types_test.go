package types

import "testing"

func TestStringAndInstanceName(t *testing.T) {
	box := Named("main::Box", Named("main::Pair", I64, Param("T")))
	if got := box.String(); got != "main::Box<main::Pair<i64, T>>" {
		t.Fatalf("String = %q", got)
	}
	if got := InstanceName("main::identity", []Type{I64}); got != "main::identity<i64>" {
		t.Fatalf("InstanceName = %q", got)
	}
	if got := InstanceName("main::f", nil); got != "main::f" {
		t.Fatalf("InstanceName without args = %q", got)
	}
}

func TestDepthAndSpecificity(t *testing.T) {
	tests := []struct {
		name  string
		ty    Type
		depth int
		spec  int
	}{
		{"builtin", I64, 1, 1},
		{"param", Param("T"), 1, 0},
		{"nested", Named("W", Named("W", I64)), 3, 3},
		{"generic pattern", Named("W", Param("T")), 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ty.Depth(); got != tt.depth {
				t.Errorf("Depth = %d, want %d", got, tt.depth)
			}
			if got := tt.ty.Specificity(); got != tt.spec {
				t.Errorf("Specificity = %d, want %d", got, tt.spec)
			}
		})
	}
}

func TestMatchBindsOnlyVars(t *testing.T) {
	vars := VarSet([]string{"T"})
	bind := Subst{}
	pattern := Named("main::Pair", Param("T"), Param("T"))
	if !Match(pattern, Named("main::Pair", I64, I64), vars, bind) {
		t.Fatalf("expected match")
	}
	if !bind["T"].Equal(I64) {
		t.Fatalf("T bound to %s", bind["T"])
	}
	if Match(pattern, Named("main::Pair", I64, Bool), vars, Subst{}) {
		t.Fatalf("inconsistent binding must not match")
	}
	// U is rigid
	if Match(Param("U"), I64, vars, Subst{}) {
		t.Fatalf("rigid param matched a builtin")
	}
	if !Match(Param("U"), Param("U"), vars, Subst{}) {
		t.Fatalf("rigid param must match itself")
	}
}

func TestApplyAndSelf(t *testing.T) {
	ty := Named("main::Box", Param("T"), Self)
	got := ty.Apply(Subst{"T": Str}).ReplaceSelf(I64)
	if got.String() != "main::Box<str, i64>" || !got.IsConcrete() {
		t.Fatalf("got %s", got)
	}
	if ty.IsConcrete() {
		t.Fatalf("pattern reported concrete")
	}
	ref := TraitRef{Name: "core::Add", Args: []Type{Self}}
	if r := ref.ReplaceSelf(F64); r.String() != "core::Add<f64>" {
		t.Fatalf("trait ref = %s", r)
	}
}
