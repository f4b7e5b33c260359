package sema

import (
	"errors"
	"fmt"

	"raven/internal/ast"
	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/symbols"
	"raven/internal/trace"
	"raven/internal/traits"
	"raven/internal/types"
)

// Instantiator hands out degenericed instances. Both calls return the
// instance name immediately; the instance itself is built asynchronously.
type Instantiator interface {
	InstantiateFunc(owner, generic string, args []types.Type) (string, error)
	InstantiateStruct(owner, generic string, args []types.Type) (string, error)
}

// Config wires a Checker to its collaborators.
type Config struct {
	Registry  *symbols.Registry
	Engine    *traits.Engine
	Instances Instantiator
	Tracer    trace.Tracer
}

// Checker finalizes units registered in the registry.
type Checker struct {
	reg    *symbols.Registry
	engine *traits.Engine
	inst   Instantiator
	tracer trace.Tracer
}

// New creates a checker.
func New(cfg Config) *Checker {
	tr := cfg.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	return &Checker{reg: cfg.Registry, engine: cfg.Engine, inst: cfg.Instances, tracer: tr}
}

// Job returns the check job for the unit called name.
func (c *Checker) Job(name string) asyncrt.Job {
	return asyncrt.JobFunc(func(jc *asyncrt.JobContext) error {
		return c.Finalize(jc.Waker(), jc.ID(), name)
	})
}

// Finalize runs one attempt at finalizing name. It returns
// asyncrt.ErrPending when the attempt parked w; semantic errors end in
// the registry as the unit's failure and Finalize returns nil.
func (c *Checker) Finalize(w asyncrt.Waker, owner asyncrt.TaskID, name string) error {
	snap, err := c.reg.AwaitDeclared(name, w)
	if err != nil {
		if errors.Is(err, asyncrt.ErrPending) {
			return err
		}
		return nil // placeholder that never got registered
	}
	if snap.State.Terminal() {
		return nil
	}
	if err := c.reg.MarkFinalizing(name, owner); err != nil {
		if errors.Is(err, symbols.ErrAlreadyInProgress) {
			return nil
		}
		return fmt.Errorf("check %s: %w", name, err)
	}

	raw := snap.Raw
	if raw.Poisoned {
		return c.reg.Fail(name, diag.Errors{{
			Code:    diag.SemaPoisonedUnit,
			Unit:    name,
			Span:    raw.NameSpan,
			Message: fmt.Sprintf("`%s` contains syntax errors", name),
		}})
	}

	span := trace.Begin(c.tracer, trace.ScopeUnit, "check", 0).WithExtra("unit", name)
	uc := newUnitChecker(c, w, raw)
	unit, err := uc.finalize()
	if errors.Is(err, asyncrt.ErrPending) {
		span.End("pending")
		return err
	}
	if err != nil {
		span.End("internal error")
		return c.reg.Fail(name, &diag.Error{Code: diag.UnknownCode, Unit: name, Message: err.Error(), Err: err})
	}
	if len(uc.errs) == 0 {
		if err := uc.requestStructInstances(unit); err != nil {
			span.End("internal error")
			return err
		}
	}
	if len(uc.errs) > 0 {
		span.End("failed")
		return c.reg.Fail(name, uc.errs)
	}
	span.End("ok")
	return c.reg.Complete(name, unit)
}

// finalize dispatches on the unit kind.
func (uc *unitChecker) finalize() (*hir.Unit, error) {
	u := &hir.Unit{
		Name:   uc.name,
		Span:   uc.raw.NameSpan,
		Public: uc.raw.Public(),
	}
	var err error
	switch uc.raw.Kind {
	case ast.UnitStruct:
		u.Kind = hir.UnitStruct
		u.Struct, err = uc.checkStruct()
	case ast.UnitTrait:
		u.Kind = hir.UnitTrait
		u.Trait, err = uc.checkTrait()
	case ast.UnitImpl:
		u.Kind = hir.UnitImpl
		u.Impl, err = uc.checkImpl()
	case ast.UnitFunc:
		u.Kind = hir.UnitFunc
		u.Func, err = uc.checkFunc()
	default:
		return nil, fmt.Errorf("unit %s has unknown kind %d", uc.name, uc.raw.Kind)
	}
	if err != nil {
		return nil, err
	}
	u.Refs = hir.CollectRefs(u)
	return u, nil
}

// requestStructInstances asks for every concrete generic struct the unit
// mentions so their layouts reach the backend.
func (uc *unitChecker) requestStructInstances(u *hir.Unit) error {
	if uc.c.inst == nil {
		return nil
	}
	for _, t := range hir.ConcreteInstances(u) {
		if _, err := uc.c.inst.InstantiateStruct(uc.name, t.Name, t.Args); err != nil {
			if err := uc.adopt(err, u.Span); err != nil {
				return err
			}
		}
	}
	return nil
}
