package textir

import (
	"context"
	"slices"
	"strings"
	"testing"

	"raven/internal/hir"
	"raven/internal/types"
)

func local(name string, t types.Type) *hir.Local { return &hir.Local{Name: name, Ty: t} }

func call(unit string, ty types.Type, args ...hir.Expr) *hir.Call {
	return &hir.Call{Target: hir.Target{Unit: unit}, Args: args, Ty: ty}
}

func i64Params(names ...string) []hir.Param {
	out := make([]hir.Param, len(names))
	for i, n := range names {
		out[i] = hir.Param{Name: n, Type: types.I64}
	}
	return out
}

func emit(t *testing.T, u *hir.Unit) (string, []string) {
	t.Helper()
	b := New()
	refs, err := b.Emit(context.Background(), u)
	if err != nil {
		t.Fatalf("emit %s: %v", u.Name, err)
	}
	text, _ := b.Text(u.Name)
	return text, refs
}

func lines(ls ...string) string { return strings.Join(ls, "\n") + "\n" }

func TestEmitFunctions(t *testing.T) {
	tests := []struct {
		name string
		unit *hir.Unit
		want string
		refs []string
	}{
		{
			name: "internal",
			unit: &hir.Unit{Name: "core::impl#0::add", Kind: hir.UnitFunc, Func: &hir.Func{
				Params: i64Params("self", "other"), Result: types.I64, Internal: true,
			}},
			want: lines("declare @core::impl#0::add(i64, i64) -> i64"),
		},
		{
			name: "if",
			unit: &hir.Unit{Name: "main::max", Kind: hir.UnitFunc, Func: &hir.Func{
				Params: i64Params("a", "b"), Result: types.I64,
				Body: &hir.Block{Stmts: []hir.Stmt{
					&hir.If{
						Cond: call("core::impl#2::less", types.Bool, local("a", types.I64), local("b", types.I64)),
						Then: &hir.Block{Stmts: []hir.Stmt{&hir.Return{Value: local("b", types.I64)}}},
					},
					&hir.Return{Value: local("a", types.I64)},
				}},
			}},
			want: lines(
				"define @main::max(i64, i64) -> i64 {",
				"bb0:",
				"  local %a: i64 = param 0",
				"  local %b: i64 = param 1",
				"  %0 = load %a",
				"  %1 = load %b",
				"  %2 = call @core::impl#2::less(%0, %1) : bool",
				"  br %2, bb1, bb2",
				"bb1:",
				"  %3 = load %b",
				"  ret %3",
				"bb2:",
				"  %4 = load %a",
				"  ret %4",
				"}",
			),
			refs: []string{"core::impl#2::less"},
		},
		{
			name: "joined",
			unit: &hir.Unit{Name: "main::between", Kind: hir.UnitFunc, Func: &hir.Func{
				Params: i64Params("a", "b", "c"), Result: types.Bool,
				Body: &hir.Block{Stmts: []hir.Stmt{&hir.Return{Value: &hir.Joined{
					Operands: []hir.Expr{local("a", types.I64), local("b", types.I64), local("c", types.I64)},
					Ops:      []hir.Target{{Unit: "core::impl#2::less"}, {Unit: "core::impl#3::less_equal"}},
				}}}},
			}},
			want: lines(
				"define @main::between(i64, i64, i64) -> bool {",
				"bb0:",
				"  local %a: i64 = param 0",
				"  local %b: i64 = param 1",
				"  local %c: i64 = param 2",
				"  local %join: bool",
				"  %0 = load %a",
				"  %1 = load %b",
				"  %2 = call @core::impl#2::less(%0, %1) : bool",
				"  store %join, %2",
				"  br %2, bb2, bb1",
				"bb2:",
				"  %3 = load %c",
				"  %4 = call @core::impl#3::less_equal(%1, %3) : bool",
				"  store %join, %4",
				"  jmp bb1",
				"bb1:",
				"  %5 = load %join",
				"  ret %5",
				"}",
			),
			refs: []string{"core::impl#2::less", "core::impl#3::less_equal"},
		},
		{
			name: "while and void",
			unit: &hir.Unit{Name: "main::spin", Kind: hir.UnitFunc, Func: &hir.Func{
				Params: i64Params("n"), Result: types.Void,
				Body: &hir.Block{Stmts: []hir.Stmt{&hir.While{
					Cond: call("core::impl#2::less", types.Bool, local("n", types.I64), &hir.Literal{Kind: hir.LitInt, Text: "10", Ty: types.I64}),
					Body: &hir.Block{Stmts: []hir.Stmt{&hir.Assign{
						Target: local("n", types.I64),
						Value:  call("core::impl#0::add", types.I64, local("n", types.I64), &hir.Literal{Kind: hir.LitInt, Text: "1", Ty: types.I64}),
					}}},
				}}},
			}},
			want: lines(
				"define @main::spin(i64) -> void {",
				"bb0:",
				"  local %n: i64 = param 0",
				"  jmp bb1",
				"bb1:",
				"  %0 = load %n",
				"  %1 = const i64 10",
				"  %2 = call @core::impl#2::less(%0, %1) : bool",
				"  br %2, bb2, bb3",
				"bb2:",
				"  %3 = load %n",
				"  %4 = const i64 1",
				"  %5 = call @core::impl#0::add(%3, %4) : i64",
				"  store %n, %5",
				"  jmp bb1",
				"bb3:",
				"  ret void",
				"}",
			),
			refs: []string{"core::impl#2::less", "core::impl#0::add"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, refs := emit(t, tt.unit)
			if got != tt.want {
				t.Fatalf("got:\n%s\nwant:\n%s", got, tt.want)
			}
			if !slices.Equal(refs, tt.refs) {
				t.Fatalf("refs = %v, want %v", refs, tt.refs)
			}
		})
	}
}

func TestEmitStructReportsFieldTypes(t *testing.T) {
	boxed := types.Named("main::Box", types.Named("main::Point"))
	u := &hir.Unit{Name: "main::Line", Kind: hir.UnitStruct, Struct: &hir.Struct{Fields: []hir.Field{
		{Name: "from", Type: boxed},
		{Name: "len", Type: types.I64},
	}}}
	got, refs := emit(t, u)
	if want := lines("struct @main::Line {", "  from: main::Box<main::Point>", "  len: i64", "}"); got != want {
		t.Fatalf("got:\n%s", got)
	}
	if !slices.Equal(refs, []string{"main::Point", "main::Box<main::Point>"}) {
		t.Fatalf("refs = %v", refs)
	}
}

func TestShadowedLetsGetDistinctSlots(t *testing.T) {
	one := &hir.Literal{Kind: hir.LitInt, Text: "1", Ty: types.I64}
	u := &hir.Unit{Name: "main::f", Kind: hir.UnitFunc, Func: &hir.Func{Result: types.I64, Body: &hir.Block{Stmts: []hir.Stmt{
		&hir.Let{Name: "x", Type: types.I64, Value: one},
		&hir.If{
			Cond: &hir.Literal{Kind: hir.LitBool, Text: "true", Ty: types.Bool},
			Then: &hir.Block{Stmts: []hir.Stmt{&hir.Let{Name: "x", Type: types.I64, Value: one}}},
		},
		&hir.Return{Value: local("x", types.I64)},
	}}}}
	got, _ := emit(t, u)
	if !strings.Contains(got, "local %x.1: i64") || !strings.Contains(got, "load %x\n") {
		t.Fatalf("got:\n%s", got)
	}
}

func TestEmitRejectsUnfinishedUnits(t *testing.T) {
	b := New()
	generic := &hir.Unit{Name: "main::id", Kind: hir.UnitFunc, Func: &hir.Func{
		TypeParams: []hir.TypeParam{{Name: "T"}}, Result: types.Param("T"),
	}}
	if _, err := b.Emit(context.Background(), generic); err == nil {
		t.Fatalf("generic unit accepted")
	}
	deferred := &hir.Unit{Name: "main::g", Kind: hir.UnitFunc, Func: &hir.Func{Result: types.Void, Body: &hir.Block{Stmts: []hir.Stmt{
		&hir.ExprStmt{X: &hir.Call{Target: hir.Target{Generic: "main::id", TypeArgs: []types.Type{types.Param("T")}}, Ty: types.Void}},
	}}}}
	if _, err := b.Emit(context.Background(), deferred); err == nil || !strings.Contains(err.Error(), "main::id<T>") {
		t.Fatalf("err = %v", err)
	}
	if len(b.Units()) != 0 {
		t.Fatalf("failed units recorded: %v", b.Units())
	}
}

func TestProgramKeepsEmissionOrder(t *testing.T) {
	b := New()
	for _, n := range []string{"main::main", "main::b", "main::a"} {
		u := &hir.Unit{Name: n, Kind: hir.UnitFunc, Func: &hir.Func{Result: types.Void, Internal: true}}
		if _, err := b.Emit(context.Background(), u); err != nil {
			t.Fatal(err)
		}
	}
	want := "declare @main::main() -> void\n\ndeclare @main::b() -> void\n\ndeclare @main::a() -> void\n"
	if got := b.Program(); got != want {
		t.Fatalf("program:\n%s", got)
	}
}
