package mono

import (
	"errors"
	"fmt"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/trace"
	"raven/internal/types"
)

// instanceJob builds one entry. It is replayable: everything before the
// commit is recomputed on each poll.
type instanceJob struct {
	cache *Cache
	entry *InstEntry
}

func (j *instanceJob) Poll(jc *asyncrt.JobContext) error {
	c, e := j.cache, j.entry
	w := jc.Waker()

	snap, err := c.reg.AwaitFinalized(e.Key.Generic, w)
	if err != nil {
		return err
	}
	if snap.State != symbols.StateFinalized {
		c.commit(e, nil, diag.DependencyFailed(e.Name, snap.Span, e.Key.Generic, snap.Err))
		return nil
	}
	generic := snap.Unit

	span := trace.Begin(c.tracer, trace.ScopeUnit, "instantiate", 0).WithExtra("unit", e.Name)
	b := &builder{cache: c, w: w, name: e.Name, span: generic.Span}
	u, err := b.build(generic, e)
	if errors.Is(err, asyncrt.ErrPending) {
		span.End("pending")
		return err
	}
	if err != nil {
		span.End("internal error")
		c.commit(e, nil, &diag.Error{Code: diag.UnknownCode, Unit: e.Name, Message: err.Error(), Err: err})
		return nil
	}
	if len(b.errs) > 0 {
		span.End("failed")
		c.commit(e, nil, b.errs)
		return nil
	}
	span.End("ok")
	c.commit(e, u, nil)
	return nil
}

type builder struct {
	cache *Cache
	w     asyncrt.Waker
	name  string
	span  source.Span
	errs  diag.Errors
}

func (b *builder) report(err error) {
	var de *diag.Error
	if !errors.As(err, &de) {
		de = &diag.Error{Code: diag.UnknownCode, Message: err.Error(), Err: err}
	}
	if de.Unit == "" {
		de.Unit = b.name
	}
	if de.Span.Empty() {
		de.Span = b.span
	}
	b.errs = append(b.errs, de)
}

// soft records compiler errors and passes everything else through.
func (b *builder) soft(err error) error {
	if err == nil || errors.Is(err, asyncrt.ErrPending) {
		return err
	}
	var de *diag.Error
	var list diag.Errors
	if errors.As(err, &de) || errors.As(err, &list) {
		for _, d := range diag.Flatten(err) {
			b.report(d)
		}
		return nil
	}
	return err
}

func (b *builder) build(generic *hir.Unit, e *InstEntry) (*hir.Unit, error) {
	wantKind := hir.UnitFunc
	if e.Kind == InstType {
		wantKind = hir.UnitStruct
	}
	if generic.Kind != wantKind {
		b.report(diag.Errorf(diag.SemaKindMismatch, generic.Span, "`%s` is a %s, not a %s", generic.Name, generic.Kind, e.Kind))
		return nil, nil
	}
	tps := generic.TypeParams()
	if len(tps) != len(e.TypeArgs) {
		b.report(diag.Errorf(diag.SemaArityMismatch, generic.Span, "`%s` takes %d type arguments, got %d",
			generic.Name, len(tps), len(e.TypeArgs)))
		return nil, nil
	}
	if err := b.checkBounds(tps, e.TypeArgs); err != nil {
		return nil, err
	}
	if len(b.errs) > 0 {
		return nil, nil
	}

	u, err := hir.Instantiate(generic, e.Name, e.TypeArgs, b.resolve)
	if err != nil {
		return nil, err
	}
	u.Refs = hir.CollectRefs(u)
	for _, t := range hir.ConcreteInstances(u) {
		if _, err := b.cache.InstantiateStruct(e.Name, t.Name, t.Args); err != nil {
			if err := b.soft(err); err != nil {
				return nil, err
			}
		}
	}
	return u, nil
}

func (b *builder) checkBounds(tps []hir.TypeParam, args []types.Type) error {
	s := types.Bind(hir.ParamNames(tps), args)
	for i, tp := range tps {
		for _, bound := range tp.Bounds {
			_, err := b.cache.engine.Resolve(b.w, b.name, args[i], bound.Apply(s), nil)
			if err := b.soft(err); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolve finalizes call targets once the type arguments are substituted.
func (b *builder) resolve(t hir.Target) (hir.Target, error) {
	switch {
	case t.Trait != nil:
		if !t.Self.IsConcrete() {
			return t, nil
		}
		m, err := b.cache.engine.Resolve(b.w, b.name, t.Self, *t.Trait, nil)
		if err != nil {
			return t, b.soft(err)
		}
		fn, args, ok := m.MethodUnit(t.Method)
		if !ok {
			b.report(diag.Errorf(diag.SemaInvalidImpl, b.span, "`%s` does not provide `%s`", m.Impl, t.Method))
			return t, nil
		}
		return b.funcTarget(fn, args)
	case t.Generic != "":
		if !types.AllConcrete(t.TypeArgs) {
			return t, nil
		}
		return b.funcTarget(t.Generic, t.TypeArgs)
	}
	return t, nil
}

func (b *builder) funcTarget(fn string, args []types.Type) (hir.Target, error) {
	if len(args) == 0 {
		return hir.Target{Unit: fn}, nil
	}
	inst, err := b.cache.InstantiateFunc(b.name, fn, args)
	if err != nil {
		return hir.Target{Generic: fn, TypeArgs: args}, b.soft(err)
	}
	return hir.Target{Unit: inst, Generic: fn, TypeArgs: args}, nil
}

func (e *InstEntry) String() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Name)
}
