package mono

import (
	"fmt"
	"slices"
	"strings"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/shard"
	"raven/internal/symbols"
	"raven/internal/trace"
	"raven/internal/traits"
	"raven/internal/types"
)

// DefaultMaxDepth bounds the nesting depth of instance type arguments.
const DefaultMaxDepth = 64

// JobPrefix starts the task name of every instance job.
const JobPrefix = "instantiate "

// Spawner starts instance jobs. *asyncrt.Executor satisfies it.
type Spawner interface {
	Spawn(name string, job asyncrt.Job) asyncrt.TaskID
}

// Options configures a Cache.
type Options struct {
	Registry *symbols.Registry
	Engine   *traits.Engine
	Spawner  Spawner
	// MaxDepth <= 0 means DefaultMaxDepth.
	MaxDepth int
	Tracer   trace.Tracer
}

// Cache owns every degenericed instance of the build.
type Cache struct {
	reg      *symbols.Registry
	engine   *traits.Engine
	spawner  Spawner
	maxDepth int
	tracer   trace.Tracer

	entries *shard.Map[InstantiationKey, *InstEntry]
	byName  *shard.Map[string, *InstEntry]
}

// New creates an empty cache.
func New(opts Options) *Cache {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	return &Cache{
		reg:      opts.Registry,
		engine:   opts.Engine,
		spawner:  opts.Spawner,
		maxDepth: opts.MaxDepth,
		tracer:   tr,
		entries:  shard.New[InstantiationKey, *InstEntry](0),
		byName:   shard.New[string, *InstEntry](0),
	}
}

// MaxDepth reports the configured recursion limit.
func (c *Cache) MaxDepth() int { return c.maxDepth }

// InstantiateFunc returns the name of generic<args>, spawning the job that
// builds it on first request.
func (c *Cache) InstantiateFunc(owner, generic string, args []types.Type) (string, error) {
	return c.instantiate(InstFn, owner, generic, args)
}

// InstantiateStruct is InstantiateFunc for generic structs.
func (c *Cache) InstantiateStruct(owner, generic string, args []types.Type) (string, error) {
	return c.instantiate(InstType, owner, generic, args)
}

func (c *Cache) instantiate(kind InstantiationKind, owner, generic string, args []types.Type) (string, error) {
	name := types.InstanceName(generic, args)
	if !types.AllConcrete(args) {
		return "", fmt.Errorf("mono: %s requested with non-concrete arguments", name)
	}
	if depth := types.MaxDepth(args); depth > c.maxDepth {
		return "", &diag.Error{
			Code:    diag.SemaGenericRecursionLimit,
			Unit:    owner,
			Message: fmt.Sprintf("instantiating `%s` exceeds the depth limit of %d", shorten(name), c.maxDepth),
		}
	}
	key := keyOf(generic, args)
	// byName заполняется вместе с entries: имя видно сразу после выдачи
	e, loaded := c.entries.LoadOrStore(key, func() *InstEntry {
		e := &InstEntry{Kind: kind, Key: key, Name: name, TypeArgs: slices.Clone(args)}
		c.byName.Store(name, e)
		return e
	})
	e.addRequester(owner)
	if loaded {
		if e.Kind != kind {
			return "", &diag.Error{
				Code:    diag.SemaKindMismatch,
				Unit:    owner,
				Message: fmt.Sprintf("`%s` requested as both %s and %s", name, e.Kind, kind),
			}
		}
		return name, nil
	}
	trace.Point(c.tracer, trace.ScopeUnit, "instance", fmt.Sprintf("%s for %s", name, owner))
	if c.spawner == nil {
		return "", fmt.Errorf("mono: no spawner for %s", name)
	}
	c.spawner.Spawn(JobPrefix+name, &instanceJob{cache: c, entry: e})
	return name, nil
}

// shorten keeps runaway names readable in diagnostics.
func shorten(name string) string {
	const limit = 120
	if len(name) <= limit {
		return name
	}
	return name[:limit] + "..."
}

func (c *Cache) commit(e *InstEntry, u *hir.Unit, err error) {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return
	}
	e.done, e.unit, e.err = true, u, err
	ws := e.waiters.Drain()
	e.mu.Unlock()
	asyncrt.WakeAll(ws)
}

// Abort commits err for an instance whose job will never finish. It reports
// false when the instance is unknown or already done.
func (c *Cache) Abort(name string, err error) bool {
	e, ok := c.byName.Load(name)
	if !ok {
		return false
	}
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done {
		return false
	}
	c.commit(e, nil, err)
	return true
}

// Await returns the finished instance called name, or parks w and returns
// asyncrt.ErrPending. A nil w only polls.
func (c *Cache) Await(name string, w asyncrt.Waker) (Instance, error) {
	e, ok := c.byName.Load(name)
	if !ok {
		return Instance{}, &diag.Error{Code: diag.SemaUnresolvedName, Unit: name, Message: fmt.Sprintf("no instance `%s`", name)}
	}
	e.mu.Lock()
	if !e.done {
		if w != nil {
			e.waiters.Add(w)
		}
		e.mu.Unlock()
		return Instance{}, asyncrt.ErrPending
	}
	e.mu.Unlock()
	return e.snapshot(), nil
}

// Lookup returns the instance called name without waiting.
func (c *Cache) Lookup(name string) (Instance, bool) {
	e, ok := c.byName.Load(name)
	if !ok {
		return Instance{}, false
	}
	return e.snapshot(), true
}

// Len reports the number of distinct instances requested.
func (c *Cache) Len() int { return c.entries.Len() }

// Instances lists every instance sorted by name.
func (c *Cache) Instances() []Instance {
	names := c.byName.Keys()
	slices.Sort(names)
	out := make([]Instance, 0, len(names))
	for _, n := range names {
		if e, ok := c.byName.Load(n); ok {
			out = append(out, e.snapshot())
		}
	}
	return out
}

// Failed lists instances that finished with an error.
func (c *Cache) Failed() []Instance {
	var out []Instance
	for _, inst := range c.Instances() {
		if inst.Done && inst.Err != nil {
			out = append(out, inst)
		}
	}
	return out
}

// Summary renders instances per generic, for --trace output.
func (c *Cache) Summary() string {
	counts := map[string]int{}
	for _, inst := range c.Instances() {
		counts[inst.Generic]++
	}
	generics := make([]string, 0, len(counts))
	for g := range counts {
		generics = append(generics, g)
	}
	slices.Sort(generics)
	var sb strings.Builder
	for _, g := range generics {
		fmt.Fprintf(&sb, "%s: %d\n", g, counts[g])
	}
	return sb.String()
}
