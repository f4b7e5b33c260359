package mono

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/lexer"
	"raven/internal/parser"
	"raven/internal/sema"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/traits"
	"raven/internal/types"
)

const prelude = `
pub trait Add { fn add(self, other: Self) -> Self; }
impl Add for i64 { fn add(self, other: i64) -> i64; }
`

type harness struct {
	reg   *symbols.Registry
	exec  *asyncrt.Executor
	cache *Cache
}

func build(t *testing.T, maxDepth int, src string) *harness {
	t.Helper()
	fs := source.NewFileSet("")
	reg := symbols.NewRegistry()
	engine := traits.NewEngine(reg)
	exec := asyncrt.NewExecutor(asyncrt.Config{Workers: 4})
	cache := New(Options{Registry: reg, Engine: engine, Spawner: exec, MaxDepth: maxDepth})
	checker := sema.New(sema.Config{Registry: reg, Engine: engine, Instances: cache})
	bag := diag.NewBag(50)
	rep := diag.BagReporter{Bag: bag}
	for _, f := range []struct{ ns, text string }{{source.PreludeNamespace, prelude}, {"main", src}} {
		id, err := fs.AddNamespaced(f.ns+".rv", f.ns, []byte(f.text))
		if err != nil {
			t.Fatal(err)
		}
		file := fs.Get(id)
		res := parser.ParseFile(file, lexer.New(file, lexer.Options{Reporter: rep}), parser.Options{Reporter: rep})
		for _, u := range res.File.Units {
			if err := reg.Register(u.FullName(), u); err != nil {
				t.Fatal(err)
			}
			exec.Spawn("check "+u.FullName(), checker.Job(u.FullName()))
		}
	}
	if bag.HasErrors() {
		t.Fatalf("syntax errors: %+v", bag.Items())
	}
	reg.Seal()
	h := &harness{reg: reg, exec: exec, cache: cache}
	h.run(t)
	return h
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	if err := h.exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if st := h.exec.Stalled(); len(st) != 0 {
		t.Fatalf("stalled: %+v", st)
	}
	if failed := h.exec.Failed(); len(failed) != 0 {
		t.Fatalf("failed jobs: %v", failed[0].Err)
	}
}

func (h *harness) instance(t *testing.T, name string) *hir.Unit {
	t.Helper()
	inst, ok := h.cache.Lookup(name)
	if !ok || !inst.Done || inst.Err != nil || inst.Unit == nil {
		t.Fatalf("%s: %+v", name, inst)
	}
	return inst.Unit
}

func TestIdentityInstances(t *testing.T) {
	h := build(t, 0, `
fn identity<T>(x: T) -> T { return x; }
fn main() -> i64 {
    let flag: bool = identity(true);
    return identity(1) + identity(2);
}`)
	if h.cache.Len() != 2 {
		t.Fatalf("instances = %v", h.cache.Instances())
	}
	u := h.instance(t, "main::identity<i64>")
	if u.Origin != "main::identity" || !u.Func.Params[0].Type.Equal(types.I64) || u.IsGeneric() {
		t.Fatalf("instance = %+v", u.Func)
	}
	h.instance(t, "main::identity<bool>")
	inst, _ := h.cache.Lookup("main::identity<i64>")
	if len(inst.Requesters) != 1 || inst.Requesters[0] != "main::main" {
		t.Fatalf("requesters = %v", inst.Requesters)
	}
}

func TestDeferredDispatchResolvedPerInstance(t *testing.T) {
	h := build(t, 0, `
pub trait Show { fn show(self) -> i64; }
impl Show for i64 { fn show(self) -> i64 { return 1; } }
fn call<T: Show>(x: T) -> i64 { return x.show() + 1; }
fn main() -> i64 { return call(5); }`)
	got := hir.Print(h.instance(t, "main::call<i64>"))
	for _, want := range []string{"main::impl#0::show(x)", "// refs: core::impl#0::add, main::impl#0::show"} {
		if !strings.Contains(got, want) {
			t.Fatalf("instance body:\n%s\nmissing %q", got, want)
		}
	}
}

func TestUnsatisfiedBoundFailsInstance(t *testing.T) {
	h := build(t, 0, `
pub trait Show { fn show(self) -> i64; }
fn call<T: Show>(x: T) -> i64 { return x.show(); }`)
	name, err := h.cache.InstantiateFunc("test", "main::call", []types.Type{types.Bool})
	if err != nil {
		t.Fatal(err)
	}
	h.run(t)
	inst, _ := h.cache.Lookup(name)
	if !inst.Done || diag.CodeOf(inst.Err) != diag.SemaUnsatisfiedBound {
		t.Fatalf("instance = %+v", inst)
	}
	if failed := h.cache.Failed(); len(failed) != 1 || failed[0].Name != "main::call<bool>" {
		t.Fatalf("failed = %+v", failed)
	}
}

func TestRecursionLimit(t *testing.T) {
	h := build(t, 8, `
struct Box<T> { v: T }
fn grow<T>(x: T) -> i64 { return grow(new Box { v: x }); }
fn main() -> i64 { return grow(1); }`)
	failed := h.cache.Failed()
	if len(failed) != 1 || diag.CodeOf(failed[0].Err) != diag.SemaGenericRecursionLimit {
		t.Fatalf("failed = %+v", failed)
	}
	if d := types.MaxDepth(failed[0].TypeArgs); d != 8 {
		t.Fatalf("failing instance depth = %d", d)
	}
	for _, inst := range h.cache.Instances() {
		if types.MaxDepth(inst.TypeArgs) > 8 {
			t.Fatalf("instance over the limit: %s", inst.Name)
		}
	}
}

type countSpawner struct{ n atomic.Int32 }

func (s *countSpawner) Spawn(string, asyncrt.Job) asyncrt.TaskID {
	return asyncrt.TaskID(s.n.Add(1))
}

func TestConcurrentRequestsShareOneEntry(t *testing.T) {
	sp := &countSpawner{}
	c := New(Options{Spawner: sp})
	args := []types.Type{types.Named("main::Box", types.I64)}
	var wg sync.WaitGroup
	names := make([]string, 64)
	for i := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names[i], _ = c.InstantiateFunc("main::main", "main::id", args)
		}()
	}
	wg.Wait()
	if sp.n.Load() != 1 || c.Len() != 1 {
		t.Fatalf("spawned %d jobs for %d entries", sp.n.Load(), c.Len())
	}
	for _, n := range names {
		if n != "main::id<main::Box<i64>>" {
			t.Fatalf("name = %q", n)
		}
	}
	if _, err := c.InstantiateStruct("main::main", "main::id", args); diag.CodeOf(err) != diag.SemaKindMismatch {
		t.Fatalf("kind clash: %v", err)
	}
}

func TestDepthGuardLeavesNoEntry(t *testing.T) {
	c := New(Options{Spawner: &countSpawner{}, MaxDepth: 2})
	deep := types.Named("main::Box", types.Named("main::Box", types.I64))
	_, err := c.InstantiateFunc("main::f", "main::g", []types.Type{deep})
	var de *diag.Error
	if diag.CodeOf(err) != diag.SemaGenericRecursionLimit || !errors.As(err, &de) || de.Unit != "main::f" {
		t.Fatalf("err = %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("entries = %d", c.Len())
	}
	if _, err := c.InstantiateFunc("main::f", "main::g", []types.Type{types.Param("T")}); err == nil {
		t.Fatalf("non-concrete request accepted")
	}
}

func TestNameVisibleOnClaimAndCommitIsFinal(t *testing.T) {
	c := New(Options{Spawner: &countSpawner{}})
	name, err := c.InstantiateFunc("main::main", "main::id", []types.Type{types.I64})
	if err != nil {
		t.Fatal(err)
	}
	inst, ok := c.Lookup(name)
	if !ok || inst.Done || inst.Generic != "main::id" {
		t.Fatalf("claimed instance = %+v, %v", inst, ok)
	}

	e, _ := c.byName.Load(name)
	c.commit(e, &hir.Unit{Name: name, Kind: hir.UnitFunc}, nil)
	c.commit(e, nil, errors.New("late"))
	if c.Abort(name, errors.New("stalled")) {
		t.Fatal("abort after commit must report false")
	}
	inst, _ = c.Lookup(name)
	if !inst.Done || inst.Unit == nil || inst.Err != nil {
		t.Fatalf("inst = %+v", inst)
	}
	if _, ok := c.Lookup("main::nope<i64>"); ok {
		t.Fatal("unknown instance found")
	}
}

type flagWaker struct{ woke atomic.Bool }

func (w *flagWaker) Wake() { w.woke.Store(true) }

func TestAwaitParksUntilCommit(t *testing.T) {
	c := New(Options{Spawner: &countSpawner{}})
	name, err := c.InstantiateFunc("main::main", "main::id", []types.Type{types.I64})
	if err != nil {
		t.Fatal(err)
	}
	w := &flagWaker{}
	if _, err := c.Await(name, w); !errors.Is(err, asyncrt.ErrPending) {
		t.Fatalf("await = %v", err)
	}
	if _, err := c.Await(name, nil); !errors.Is(err, asyncrt.ErrPending) {
		t.Fatalf("poll = %v", err)
	}
	e, _ := c.byName.Load(name)
	c.commit(e, &hir.Unit{Name: name, Kind: hir.UnitFunc}, nil)
	if !w.woke.Load() {
		t.Fatalf("waker not fired")
	}
	inst, err := c.Await(name, w)
	if err != nil || inst.Unit == nil || inst.Generic != "main::id" {
		t.Fatalf("inst = %+v err %v", inst, err)
	}
	if _, err := c.Await("main::nope<i64>", w); diag.CodeOf(err) != diag.SemaUnresolvedName {
		t.Fatalf("unknown = %v", err)
	}
}
