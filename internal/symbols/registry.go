// Package symbols implements the symbol registry: the shared table of
// compilation units and their resolution states. Jobs that need a unit
// that is not ready yet park on the unit's entry and are woken on its
// next transition.
package symbols

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"raven/internal/ast"
	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/shard"
	"raven/internal/source"
)

// Snapshot is a point-in-time copy of an entry.
type Snapshot struct {
	Name  string
	State State
	Span  source.Span
	Raw   *ast.Unit
	Unit  *hir.Unit
	Err   error
	Owner asyncrt.TaskID
}

type entry struct {
	mu      sync.Mutex
	name    string
	state   State
	span    source.Span
	raw     *ast.Unit
	unit    *hir.Unit
	err     error
	owner   asyncrt.TaskID
	waiters asyncrt.WaitList
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{Name: e.name, State: e.state, Span: e.span, Raw: e.raw, Unit: e.unit, Err: e.err, Owner: e.owner}
}

// Registry maps qualified unit names to entries.
type Registry struct {
	entries *shard.Map[string, *entry]

	sealMu      sync.Mutex
	sealed      atomic.Bool
	sealWaiters asyncrt.WaitList
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: shard.New[string, *entry](0)}
}

func (r *Registry) get(name string) *entry {
	e, _ := r.entries.LoadOrStore(name, func() *entry {
		return &entry{name: name, state: StateUnparsed}
	})
	return e
}

func unresolved(name string) *diag.Error {
	return &diag.Error{Code: diag.SemaUnresolvedName, Unit: name, Message: fmt.Sprintf("unresolved name `%s`", name)}
}

// failIfSealed turns a placeholder into a failure once no parse job can
// still register it. Callers hold e.mu and wake the returned wakers.
func (r *Registry) failIfSealed(e *entry) []asyncrt.Waker {
	if e.state != StateUnparsed || !r.sealed.Load() {
		return nil
	}
	e.state = StateFailed
	e.err = unresolved(e.name)
	return e.waiters.Drain()
}

// Reserve records that the parser has seen a unit header.
func (r *Registry) Reserve(name string, span source.Span) error {
	e := r.get(name)
	e.mu.Lock()
	if e.state != StateUnparsed {
		prev := e.span
		e.mu.Unlock()
		return duplicate(name, span, prev)
	}
	e.state = StateParsing
	e.span = span
	ws := e.waiters.Drain()
	e.mu.Unlock()
	asyncrt.WakeAll(ws)
	return nil
}

// Register stores the unit's raw syntax and makes it finalizable.
func (r *Registry) Register(name string, raw *ast.Unit) error {
	e := r.get(name)
	e.mu.Lock()
	if e.state >= StateUnfinalized {
		prev := e.span
		e.mu.Unlock()
		return duplicate(name, raw.NameSpan, prev)
	}
	if e.state == StateUnparsed {
		e.span = raw.NameSpan
	}
	e.state = StateUnfinalized
	e.raw = raw
	ws := e.waiters.Drain()
	e.mu.Unlock()
	asyncrt.WakeAll(ws)
	return nil
}

func duplicate(name string, span, prev source.Span) *diag.Error {
	err := &diag.Error{
		Code:    diag.SemaDuplicateDefinition,
		Unit:    name,
		Message: fmt.Sprintf("`%s` is defined more than once", name),
		Span:    span,
	}
	if !prev.Empty() {
		err.WithNote(prev, "previous definition here")
	}
	return err
}

// Lookup returns the entry's state without waiting.
func (r *Registry) Lookup(name string) (Snapshot, bool) {
	e, ok := r.entries.Load(name)
	if !ok {
		return Snapshot{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), true
}

// AwaitDeclared returns once name has raw syntax (or has failed). It
// parks w and returns asyncrt.ErrPending otherwise. After Seal a name that
// was never registered fails with UnresolvedName.
func (r *Registry) AwaitDeclared(name string, w asyncrt.Waker) (Snapshot, error) {
	e := r.get(name)
	e.mu.Lock()
	ws := r.failIfSealed(e)
	if e.state.Declared() && e.raw != nil {
		s := e.snapshot()
		e.mu.Unlock()
		asyncrt.WakeAll(ws)
		return s, nil
	}
	if e.state == StateFailed {
		err := e.err
		e.mu.Unlock()
		asyncrt.WakeAll(ws)
		return Snapshot{Name: name, State: StateFailed, Err: err}, err
	}
	e.waiters.Add(w)
	e.mu.Unlock()
	return Snapshot{}, asyncrt.ErrPending
}

// AwaitFinalized returns the terminal snapshot of name, or parks w and
// returns asyncrt.ErrPending.
func (r *Registry) AwaitFinalized(name string, w asyncrt.Waker) (Snapshot, error) {
	e := r.get(name)
	e.mu.Lock()
	ws := r.failIfSealed(e)
	if e.state.Terminal() {
		s := e.snapshot()
		e.mu.Unlock()
		asyncrt.WakeAll(ws)
		return s, nil
	}
	e.waiters.Add(w)
	e.mu.Unlock()
	return Snapshot{}, asyncrt.ErrPending
}

// MarkFinalizing claims the unit for owner. A resumed job re-claiming its
// own unit succeeds; any other claimant gets ErrAlreadyInProgress.
func (r *Registry) MarkFinalizing(name string, owner asyncrt.TaskID) error {
	e := r.get(name)
	e.mu.Lock()
	switch {
	case e.state == StateFinalizing && e.owner == owner:
		e.mu.Unlock()
		return nil
	case e.state == StateFinalizing:
		e.mu.Unlock()
		return ErrAlreadyInProgress
	case e.state != StateUnfinalized:
		st := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: %s %s -> finalizing", ErrInvalidTransition, name, st)
	}
	e.state = StateFinalizing
	e.owner = owner
	ws := e.waiters.Drain()
	e.mu.Unlock()
	asyncrt.WakeAll(ws)
	return nil
}

// Complete stores the finalized unit.
func (r *Registry) Complete(name string, u *hir.Unit) error {
	e := r.get(name)
	e.mu.Lock()
	if e.state != StateFinalizing {
		st := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: %s %s -> finalized", ErrInvalidTransition, name, st)
	}
	e.state = StateFinalized
	e.unit = u
	ws := e.waiters.Drain()
	e.mu.Unlock()
	asyncrt.WakeAll(ws)
	return nil
}

// Fail stores a terminal failure. Any non-terminal state may fail.
func (r *Registry) Fail(name string, err error) error {
	e := r.get(name)
	e.mu.Lock()
	if e.state.Terminal() {
		st := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: %s %s -> failed", ErrInvalidTransition, name, st)
	}
	e.state = StateFailed
	e.err = err
	ws := e.waiters.Drain()
	e.mu.Unlock()
	asyncrt.WakeAll(ws)
	return nil
}

// Seal declares that every parse job has finished. Placeholders still
// unparsed fail with UnresolvedName and seal waiters are woken.
func (r *Registry) Seal() {
	r.sealMu.Lock()
	if r.sealed.Load() {
		r.sealMu.Unlock()
		return
	}
	r.sealed.Store(true)
	ws := r.sealWaiters.Drain()
	r.sealMu.Unlock()

	for _, name := range r.entries.Keys() {
		e, _ := r.entries.Load(name)
		e.mu.Lock()
		ws = append(ws, r.failIfSealed(e)...)
		e.mu.Unlock()
	}
	asyncrt.WakeAll(ws)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// AwaitSealed returns nil once sealed, otherwise parks w.
func (r *Registry) AwaitSealed(w asyncrt.Waker) error {
	if r.sealed.Load() {
		return nil
	}
	r.sealMu.Lock()
	defer r.sealMu.Unlock()
	if r.sealed.Load() {
		return nil
	}
	r.sealWaiters.Add(w)
	return asyncrt.ErrPending
}

// Names returns all entry names in sorted order.
func (r *Registry) Names() []string {
	names := r.entries.Keys()
	slices.Sort(names)
	return names
}

// Range calls fn for each entry in name order until fn returns false.
func (r *Registry) Range(fn func(Snapshot) bool) {
	for _, name := range r.Names() {
		s, ok := r.Lookup(name)
		if ok && !fn(s) {
			return
		}
	}
}

// Counts tallies entries per state.
func (r *Registry) Counts() map[State]int {
	out := make(map[State]int)
	r.Range(func(s Snapshot) bool {
		out[s.State]++
		return true
	})
	return out
}
