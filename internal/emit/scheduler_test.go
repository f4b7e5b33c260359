package emit

import (
	"context"
	"errors"
	"slices"
	"testing"

	"raven/internal/diag"
	"raven/internal/hir"
)

type unitMap map[string]*hir.Unit

func (m unitMap) Finalized(name string) (*hir.Unit, error) {
	if u, ok := m[name]; ok {
		return u, nil
	}
	return nil, &diag.Error{Code: diag.SemaEntryNotFound, Unit: name, Message: "not found"}
}

func fn(name string, refs ...string) *hir.Unit {
	return &hir.Unit{Name: name, Kind: hir.UnitFunc, Func: &hir.Func{}, Refs: refs}
}

// refsBackend records emission and reports Refs as callees.
type refsBackend struct{ got []string }

func (b *refsBackend) Emit(_ context.Context, u *hir.Unit) ([]string, error) {
	b.got = append(b.got, u.Name)
	return u.Refs, nil
}

func TestEachReachableUnitEmittedOnce(t *testing.T) {
	units := unitMap{
		"main::main":   fn("main::main", "main::foo", "main::bar"),
		"main::foo":    fn("main::foo", "main::bar", "main::main"),
		"main::bar":    fn("main::bar", "main::foo"),
		"main::unused": fn("main::unused"),
	}
	be := &refsBackend{}
	var progress []int
	s := NewScheduler(Config{Backend: be, Units: units, OnEmit: func(_ string, n, _ int) { progress = append(progress, n) }})
	res, err := s.Run(context.Background(), "main::main")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"main::main", "main::foo", "main::bar"}
	if !slices.Equal(be.got, want) || !slices.Equal(res.Emitted, want) {
		t.Fatalf("emitted %v, result %v", be.got, res.Emitted)
	}
	if !slices.Equal(progress, []int{1, 2, 3}) {
		t.Fatalf("progress = %v", progress)
	}
}

func TestMissingEntryNeverStarts(t *testing.T) {
	be := &refsBackend{}
	_, err := NewScheduler(Config{Backend: be, Units: unitMap{}}).Run(context.Background(), "main::main")
	if diag.CodeOf(err) != diag.SemaEntryNotFound {
		t.Fatalf("err = %v", err)
	}
	if len(be.got) != 0 {
		t.Fatalf("backend called for %v", be.got)
	}
}

func TestBackendErrorStopsRun(t *testing.T) {
	units := unitMap{
		"main::main": fn("main::main", "main::a", "main::b"),
		"main::a":    fn("main::a"),
		"main::b":    fn("main::b"),
	}
	var calls []string
	be := BackendFunc(func(_ context.Context, u *hir.Unit) ([]string, error) {
		calls = append(calls, u.Name)
		if u.Name == "main::a" {
			return nil, errors.New("register allocation exploded")
		}
		return u.Refs, nil
	})
	res, err := NewScheduler(Config{Backend: be, Units: units}).Run(context.Background(), "main::main")
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.BackendError || de.Unit != "main::a" || de.Message != "register allocation exploded" {
		t.Fatalf("err = %#v", err)
	}
	if !slices.Equal(calls, []string{"main::main", "main::a"}) || len(res.Emitted) != 1 {
		t.Fatalf("calls = %v emitted = %v", calls, res.Emitted)
	}
}

func TestMissingCalleeIsReported(t *testing.T) {
	units := unitMap{"main::main": fn("main::main", "main::gone")}
	_, err := NewScheduler(Config{Backend: &refsBackend{}, Units: units}).Run(context.Background(), "main::main")
	if diag.CodeOf(err) != diag.SemaEntryNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	units := unitMap{"main::main": fn("main::main")}
	if _, err := NewScheduler(Config{Backend: &refsBackend{}, Units: units}).Run(ctx, "main::main"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
