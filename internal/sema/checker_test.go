package sema

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/lexer"
	"raven/internal/parser"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/traits"
	"raven/internal/types"
)

const testPrelude = `
pub trait Add { fn add(self, other: Self) -> Self; }
pub trait Sub { fn sub(self, other: Self) -> Self; }
pub trait Less { fn less(self, other: Self) -> bool; }
pub trait LessEqual { fn less_equal(self, other: Self) -> bool; }
impl Add for i64 { fn add(self, other: i64) -> i64; }
impl Sub for i64 { fn sub(self, other: i64) -> i64; }
impl Less for i64 { fn less(self, other: i64) -> bool; }
impl LessEqual for i64 { fn less_equal(self, other: i64) -> bool; }
`

type srcFile struct {
	ns   string
	text string
}

// fakeInstances names instances without building them.
type fakeInstances struct {
	mu      sync.Mutex
	funcs   []string
	structs []string
}

func (f *fakeInstances) InstantiateFunc(_, generic string, args []types.Type) (string, error) {
	name := types.InstanceName(generic, args)
	f.mu.Lock()
	if !slices.Contains(f.funcs, name) {
		f.funcs = append(f.funcs, name)
	}
	f.mu.Unlock()
	return name, nil
}

func (f *fakeInstances) InstantiateStruct(_, generic string, args []types.Type) (string, error) {
	name := types.InstanceName(generic, args)
	f.mu.Lock()
	if !slices.Contains(f.structs, name) {
		f.structs = append(f.structs, name)
	}
	f.mu.Unlock()
	return name, nil
}

type fixture struct {
	reg  *symbols.Registry
	inst *fakeInstances
}

// check parses files next to the test prelude and runs one check job per
// unit. A non-zero seed fuzzes the schedule.
func check(t *testing.T, seed uint64, files ...srcFile) *fixture {
	t.Helper()
	fs := source.NewFileSet("")
	reg := symbols.NewRegistry()
	inst := &fakeInstances{}
	c := New(Config{Registry: reg, Engine: traits.NewEngine(reg), Instances: inst})
	exec := asyncrt.NewExecutor(asyncrt.Config{Workers: 4, Fuzz: seed != 0, Seed: seed})
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	for _, f := range append([]srcFile{{source.PreludeNamespace, testPrelude}}, files...) {
		path := strings.ReplaceAll(f.ns, source.Separator, "/") + ".rv"
		id, err := fs.AddNamespaced(path, f.ns, []byte(f.text))
		if err != nil {
			t.Fatal(err)
		}
		file := fs.Get(id)
		res := parser.ParseFile(file, lexer.New(file, lexer.Options{Reporter: rep}), parser.Options{Reporter: rep})
		for _, u := range res.File.Units {
			name := u.FullName()
			if err := reg.Register(name, u); err != nil {
				t.Fatalf("register %s: %v", name, err)
			}
			exec.Spawn("check "+name, c.Job(name))
		}
	}
	reg.Seal()
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if st := exec.Stalled(); len(st) != 0 {
		t.Fatalf("stalled jobs: %+v", st)
	}
	if failed := exec.Failed(); len(failed) != 0 {
		t.Fatalf("failed jobs: %+v", failed[0].Err)
	}
	return &fixture{reg: reg, inst: inst}
}

func (f *fixture) unit(t *testing.T, name string) *hir.Unit {
	t.Helper()
	s, ok := f.reg.Lookup(name)
	if !ok || s.State != symbols.StateFinalized {
		t.Fatalf("%s: state %v, err %v", name, s.State, s.Err)
	}
	return s.Unit
}

// failure returns the codes and messages a unit failed with.
func (f *fixture) failure(t *testing.T, name string) []*diag.Error {
	t.Helper()
	s, ok := f.reg.Lookup(name)
	if !ok || s.State != symbols.StateFailed {
		t.Fatalf("%s: expected failure, state %v", name, s.State)
	}
	return diag.Flatten(s.Err)
}

func codes(errs []*diag.Error) []diag.Code {
	out := make([]diag.Code, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestCallAcrossNamespaces(t *testing.T) {
	f := check(t, 0,
		srcFile{"main", `import util; fn main() -> i64 { return util::twice(2); }`},
		srcFile{"util", `pub fn twice(x: i64) -> i64 { return x + x; }`},
	)
	want := strings.Join([]string{
		"fn util::twice(x: i64) -> i64 {",
		"  return core::impl#0::add(x, x);",
		"}",
		"// refs: core::impl#0::add",
		"",
	}, "\n")
	if got := hir.Print(f.unit(t, "util::twice")); got != want {
		t.Fatalf("twice:\n%s\nwant:\n%s", got, want)
	}
	main := f.unit(t, "main::main")
	if !slices.Equal(main.Refs, []string{"util::twice"}) {
		t.Fatalf("main refs = %v", main.Refs)
	}
	method := f.unit(t, "core::impl#0::add")
	if !method.Func.Internal || method.Func.Owner != "core::impl#0" || !slices.Contains(method.Refs, "core::impl#0") {
		t.Fatalf("impl method = %+v refs %v", method.Func, method.Refs)
	}
	impl := f.unit(t, "core::impl#0")
	if m, ok := impl.Impl.Method("add"); !ok || m != "core::impl#0::add" {
		t.Fatalf("impl methods = %+v", impl.Impl.Methods)
	}
}

func TestImportedNameLookup(t *testing.T) {
	f := check(t, 0,
		srcFile{"main", `import lib::math; fn main() -> i64 { return math::one() + one(); }`},
		srcFile{"lib::math", `pub fn one() -> i64 { return 1; }`},
	)
	if got := f.unit(t, "main::main").Refs; !slices.Equal(got, []string{"core::impl#0::add", "lib::math::one"}) {
		t.Fatalf("refs = %v", got)
	}
}

func TestMutualRecursionFinalizes(t *testing.T) {
	src := `
fn even(n: i64) -> bool {
    if n < 1 { return true; }
    return odd(n - 1);
}
fn odd(n: i64) -> bool {
    if n < 1 { return false; }
    return even(n - 1);
}`
	for _, seed := range []uint64{0, 1, 7, 99} {
		f := check(t, seed, srcFile{"main", src})
		if got := f.unit(t, "main::even").Refs; !slices.Contains(got, "main::odd") {
			t.Fatalf("seed %d: even refs %v", seed, got)
		}
		f.unit(t, "main::odd")
	}
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		unit string
		want diag.Code
	}{
		{"unresolved", `fn main() { missing(); }`, "main::main", diag.SemaUnresolvedName},
		{"let mismatch", `fn main() { let x: bool = 1; }`, "main::main", diag.SemaTypeMismatch},
		{"missing return", `fn f(x: i64) -> i64 { if x < 1 { return 0; } }`, "main::f", diag.SemaMissingReturn},
		{"no body", `fn f() -> i64;`, "main::f", diag.SemaInvalidInternal},
		{"arity", `fn g(x: i64) {} fn f() { g(); }`, "main::f", diag.SemaArityMismatch},
		{"argument type", `fn g(x: i64) {} fn f() { g(true); }`, "main::f", diag.SemaTypeMismatch},
		{"condition", `fn f() { if 1 { } }`, "main::f", diag.SemaTypeMismatch},
		{"void return value", `fn f() { return 1; }`, "main::f", diag.SemaTypeMismatch},
		{"cannot infer", `fn make<T>() -> i64 { return 0; } fn f() -> i64 { return make(); }`, "main::f", diag.SemaCannotInfer},
		{"operator missing impl", `fn f() -> bool { return true + false; }`, "main::f", diag.SemaUnsatisfiedBound},
		{"operator operand", `fn f() -> i64 { return 1 + true; }`, "main::f", diag.SemaTypeMismatch},
		{"unknown field", `struct P { x: i64 } fn f(p: P) -> i64 { return p.y; }`, "main::f", diag.SemaUnknownField},
		{"missing field", `struct P { x: i64, y: i64 } fn f() -> P { return new P { x: 1 }; }`, "main::f", diag.SemaUnknownField},
		{"duplicate field", `struct P { x: i64, x: i64 }`, "main::P", diag.SemaDuplicateField},
		{"type as function", `struct P { x: i64 } fn f() { P(); }`, "main::f", diag.SemaKindMismatch},
		{"self outside impl", `fn f(self) {}`, "main::f", diag.SemaKindMismatch},
		{"trait without self", `trait T { fn m() -> i64; }`, "main::T", diag.SemaKindMismatch},
		{"type arity", `struct B<T> { v: T } fn f(b: B) {}`, "main::f", diag.SemaArityMismatch},
		{"unknown local", `fn f() -> i64 { return y; }`, "main::f", diag.SemaUnresolvedName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := check(t, 0, srcFile{"main", tt.src})
			got := f.failure(t, tt.unit)
			if len(got) != 1 || got[0].Code != tt.want {
				t.Fatalf("codes = %v (%v), want [%v]", codes(got), got, tt.want)
			}
			if got[0].Unit != tt.unit {
				t.Fatalf("error unit = %q", got[0].Unit)
			}
		})
	}
}

func TestPrivateUnit(t *testing.T) {
	f := check(t, 0,
		srcFile{"main", `import util; fn main() -> i64 { return util::secret(); }`},
		srcFile{"util", `fn secret() -> i64 { return 1; }`},
	)
	got := f.failure(t, "main::main")
	if len(got) != 1 || got[0].Code != diag.SemaPrivateUnit {
		t.Fatalf("got %v", got)
	}
	f.unit(t, "util::secret")
}

// Errors are committed once, however many times the job was replayed.
func TestDiagnosticsNotDuplicatedByReplays(t *testing.T) {
	src := `
struct P { x: i64 }
fn f(p: P) -> i64 {
    let a: bool = 1;
    return p.x + p.z;
}`
	for _, seed := range []uint64{0, 3, 11} {
		f := check(t, seed, srcFile{"main", src})
		got := codes(f.failure(t, "main::f"))
		if !slices.Equal(got, []diag.Code{diag.SemaTypeMismatch, diag.SemaUnknownField}) {
			t.Fatalf("seed %d: codes %v", seed, got)
		}
	}
}

func TestGenericCallsRequestInstances(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { return x; }
fn wrap<T>(x: T) -> T { return identity(x); }
fn main() -> i64 {
    let s: str = identity("a");
    return identity(5);
}`
	f := check(t, 0, srcFile{"main", src})
	slices.Sort(f.inst.funcs)
	if !slices.Equal(f.inst.funcs, []string{"main::identity<i64>", "main::identity<str>"}) {
		t.Fatalf("instances = %v", f.inst.funcs)
	}
	wrap := f.unit(t, "main::wrap")
	ret := wrap.Func.Body.Stmts[0].(*hir.Return).Value.(*hir.Call)
	if ret.Target.Resolved() || ret.Target.Generic != "main::identity" || !ret.Target.TypeArgs[0].Equal(types.Param("T")) {
		t.Fatalf("deferred target = %+v", ret.Target)
	}
	if got := f.unit(t, "main::main").Refs; !slices.Equal(got, []string{"main::identity", "main::identity<i64>", "main::identity<str>"}) {
		t.Fatalf("main refs = %v", got)
	}
}

func TestBoundsAndDeferredDispatch(t *testing.T) {
	src := `
trait Show { fn show(self) -> str; }
struct Point { x: i64 }
impl Show for Point { fn show(self) -> str { return "point"; } }
fn describe<T: Show>(v: T) -> str { return v.show(); }
fn good() -> str { return describe(new Point { x: 1 }); }
fn bad() -> str { return describe(1); }`
	f := check(t, 0, srcFile{"main", src})
	d := f.unit(t, "main::describe")
	call := d.Func.Body.Stmts[0].(*hir.Return).Value.(*hir.Call)
	if got := hir.TargetString(call.Target); got != "<T as main::Show>::show" {
		t.Fatalf("describe dispatch = %s", got)
	}
	f.unit(t, "main::good")
	got := f.failure(t, "main::bad")
	if len(got) != 1 || got[0].Code != diag.SemaUnsatisfiedBound || got[0].Span.Empty() {
		t.Fatalf("bad = %v", got)
	}
	if m := f.unit(t, "main::impl#0::show"); m.Func.Internal || m.Func.Params[0].Type.Name != "main::Point" {
		t.Fatalf("method = %+v", m.Func)
	}
}

func TestMethodCallOnConcreteType(t *testing.T) {
	src := `
trait Area { fn area(self, scale: i64) -> i64; }
struct Sq { side: i64 }
impl Area for Sq { fn area(self, scale: i64) -> i64 { return self.side + scale; } }
fn main() -> i64 { let s = new Sq { side: 3 }; return s.area(2); }`
	f := check(t, 0, srcFile{"main", src})
	m := f.unit(t, "main::main")
	if !slices.Contains(m.Refs, "main::impl#0::area") {
		t.Fatalf("refs = %v", m.Refs)
	}
}

func TestImplValidation(t *testing.T) {
	tests := []struct {
		name string
		impl string
	}{
		{"missing method", `impl Show for i64 { }`},
		{"extra method", `impl Show for i64 { fn show(self) -> str { return "x"; } fn more(self) {} }`},
		{"wrong signature", `impl Show for i64 { fn show(self) -> i64 { return 1; } }`},
		{"unused parameter", `impl<T> Show for i64 { fn show(self) -> str { return "x"; } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := check(t, 0, srcFile{"main", "trait Show { fn show(self) -> str; }\n" + tt.impl})
			got := f.failure(t, "main::impl#0")
			if got[0].Code != diag.SemaInvalidImpl {
				t.Fatalf("codes = %v", codes(got))
			}
		})
	}
}

func TestStructLiteralInference(t *testing.T) {
	src := `
struct Box<T> { value: T }
fn main() -> i64 {
    let b = new Box { value: 4 };
    let c: Box<str> = new Box<str> { value: "s" };
    return b.value;
}`
	f := check(t, 0, srcFile{"main", src})
	f.unit(t, "main::main")
	slices.Sort(f.inst.structs)
	if !slices.Equal(f.inst.structs, []string{"main::Box<i64>", "main::Box<str>"}) {
		t.Fatalf("struct instances = %v", f.inst.structs)
	}
}

func TestJoinedComparison(t *testing.T) {
	f := check(t, 0, srcFile{"main", `fn between(a: i64, b: i64, c: i64) -> bool { return a < b <= c; }`})
	u := f.unit(t, "main::between")
	want := "joined(a core::impl#2::less b core::impl#3::less_equal c)"
	if got := hir.ExprString(u.Func.Body.Stmts[0].(*hir.Return).Value); got != want {
		t.Fatalf("got %s", got)
	}
}

func TestDependencyFailedNamesRoot(t *testing.T) {
	src := `
struct Broken { x: Nope }
fn read(b: Broken) -> i64 { return b.x; }`
	f := check(t, 0, srcFile{"main", src})
	if got := f.failure(t, "main::Broken"); got[0].Code != diag.SemaUnresolvedName {
		t.Fatalf("broken = %v", got)
	}
	got := f.failure(t, "main::read")
	if len(got) != 1 || got[0].Code != diag.SemaDependencyFailed || !strings.Contains(got[0].Message, "main::Broken") {
		t.Fatalf("read = %v", got)
	}
}

func TestPoisonedUnits(t *testing.T) {
	src := `
fn broken() -> i64 { return 1 + ; }
fn user() -> i64 { return broken(); }`
	f := check(t, 0, srcFile{"main", src})
	if got := f.failure(t, "main::broken"); got[0].Code != diag.SemaPoisonedUnit {
		t.Fatalf("broken = %v", got)
	}
	got := f.failure(t, "main::user")
	if got[0].Code != diag.SemaDependencyFailed {
		t.Fatalf("user = %v", got)
	}
}
