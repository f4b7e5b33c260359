package emit

import (
	"context"
	"fmt"
	"time"

	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/trace"
)

// Backend turns one finalized unit into output. It returns the names of
// the units the output refers to; the scheduler emits each of them once.
type Backend interface {
	Emit(ctx context.Context, u *hir.Unit) ([]string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, u *hir.Unit) ([]string, error)

func (f BackendFunc) Emit(ctx context.Context, u *hir.Unit) ([]string, error) { return f(ctx, u) }

// Units finds finalized units by name, instances included. Missing or
// failed units come back as errors.
type Units interface {
	Finalized(name string) (*hir.Unit, error)
}

// Config wires a Scheduler.
type Config struct {
	Backend Backend
	Units   Units
	Tracer  trace.Tracer
	// OnEmit is called after each unit reaches the backend.
	OnEmit func(name string, emitted, queued int)
}

// Result lists emitted units in emission order.
type Result struct {
	Emitted []string
	Elapsed time.Duration
}

// Scheduler is single-use: call Run once.
type Scheduler struct {
	cfg    Config
	tracer trace.Tracer

	queue []string
	seen  map[string]bool
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg Config) *Scheduler {
	tr := cfg.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	return &Scheduler{cfg: cfg, tracer: tr, seen: make(map[string]bool)}
}

// Run emits entry and everything it reaches. When entry cannot be found
// the backend is never called and the lookup error is returned as is.
func (s *Scheduler) Run(ctx context.Context, entry string) (Result, error) {
	var res Result
	start := time.Now()
	if s.cfg.Backend == nil || s.cfg.Units == nil {
		return res, fmt.Errorf("emit: scheduler needs a backend and a unit source")
	}
	first, err := s.cfg.Units.Finalized(entry)
	if err != nil {
		return res, err
	}
	span := trace.Begin(s.tracer, trace.ScopePass, "emit", 0).WithExtra("entry", entry)
	defer func() {
		res.Elapsed = time.Since(start)
		span.End(fmt.Sprintf("%d units", len(res.Emitted)))
	}()

	s.push(entry)
	for len(s.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name := s.queue[0]
		s.queue = s.queue[1:]

		u := first
		if name != entry {
			if u, err = s.cfg.Units.Finalized(name); err != nil {
				return res, fmt.Errorf("emit %s: %w", name, err)
			}
		}
		refs, err := s.cfg.Backend.Emit(ctx, u)
		if err != nil {
			return res, &diag.Error{Code: diag.BackendError, Unit: name, Message: err.Error(), Err: err}
		}
		res.Emitted = append(res.Emitted, name)
		trace.Point(s.tracer, trace.ScopeUnit, "emitted", name)
		for _, ref := range refs {
			s.push(ref)
		}
		if s.cfg.OnEmit != nil {
			s.cfg.OnEmit(name, len(res.Emitted), len(s.queue))
		}
	}
	return res, nil
}

func (s *Scheduler) push(name string) {
	if name == "" || s.seen[name] {
		return
	}
	s.seen[name] = true
	s.queue = append(s.queue, name)
}
