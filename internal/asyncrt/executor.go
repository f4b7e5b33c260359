package asyncrt

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"raven/internal/trace"
)

// TaskID identifies a spawned task. IDs start at 1.
type TaskID uint64

// TaskStatus describes task scheduling state.
type TaskStatus uint8

const (
	TaskReady TaskStatus = iota
	TaskRunning
	TaskWaiting
	TaskDone
)

func (s TaskStatus) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskWaiting:
		return "waiting"
	case TaskDone:
		return "done"
	}
	return "unknown"
}

// Task stores executor-visible task state.
type Task struct {
	ID     TaskID
	Name   string
	Parent TaskID
	Status TaskStatus
	Polls  int
	Err    error

	job      Job
	waker    *taskWaker
	notified bool // woken while running
}

// TaskInfo is a copy of a task's public state.
type TaskInfo struct {
	ID     TaskID
	Name   string
	Parent TaskID
	Status TaskStatus
	Polls  int
	Err    error
}

// Config configures executor scheduling behavior.
type Config struct {
	Workers int // <= 0 means GOMAXPROCS
	Fuzz    bool
	Seed    uint64
	Tracer  trace.Tracer
}

// Stats are cumulative counters.
type Stats struct {
	Spawned uint64
	Polls   uint64
	Parks   uint64
	Wakes   uint64
}

// Executor polls jobs on a pool of worker goroutines. Ready jobs are taken
// in FIFO order, or in seeded random order when fuzzing.
type Executor struct {
	cfg    Config
	tracer trace.Tracer

	mu      sync.Mutex
	cond    *sync.Cond
	nextID  TaskID
	tasks   map[TaskID]*Task
	ready   []TaskID
	running int
	rng     *rand.Rand

	spawned atomic.Uint64
	polls   atomic.Uint64
	parks   atomic.Uint64
	wakes   atomic.Uint64
}

// NewExecutor constructs an executor with the provided configuration.
func NewExecutor(cfg Config) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	tr := cfg.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	e := &Executor{
		cfg:    cfg,
		tracer: tr,
		nextID: 1,
		tasks:  make(map[TaskID]*Task),
	}
	e.cond = sync.NewCond(&e.mu)
	if cfg.Fuzz {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		e.rng = rand.New(rand.NewSource(int64(seed))) //nolint:gosec // deterministic scheduler seed
	}
	return e
}

// Workers reports the size of the worker pool.
func (e *Executor) Workers() int { return e.cfg.Workers }

// Spawn registers a root task and enqueues it.
func (e *Executor) Spawn(name string, job Job) TaskID {
	return e.spawn(name, job, 0)
}

func (e *Executor) spawn(name string, job Job, parent TaskID) TaskID {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	task := &Task{
		ID:     id,
		Name:   name,
		Parent: parent,
		Status: TaskReady,
		job:    job,
	}
	task.waker = &taskWaker{exec: e, id: id}
	e.tasks[id] = task
	e.ready = append(e.ready, id)
	e.cond.Signal()
	e.mu.Unlock()

	e.spawned.Add(1)
	trace.Point(e.tracer, trace.ScopeJob, "spawn", fmt.Sprintf("#%d %s", id, name))
	return id
}

func (e *Executor) wake(id TaskID) {
	e.mu.Lock()
	task := e.tasks[id]
	if task == nil {
		e.mu.Unlock()
		return
	}
	woke := false
	switch task.Status {
	case TaskWaiting:
		task.Status = TaskReady
		e.ready = append(e.ready, id)
		e.cond.Signal()
		woke = true
	case TaskRunning:
		task.notified = true
		woke = true
	}
	e.mu.Unlock()

	if woke {
		e.wakes.Add(1)
		trace.Point(e.tracer, trace.ScopeJob, "wake", fmt.Sprintf("#%d %s", id, task.Name))
	}
}

// Run polls jobs until quiescence: nothing ready and nothing running. It
// returns ctx's error if ctx is cancelled first. Job errors do not stop the
// run; they are recorded on the task.
func (e *Executor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() {
		e.mu.Lock()
		e.cond.Broadcast()
		e.mu.Unlock()
	})
	defer stop()

	for range e.cfg.Workers {
		g.Go(func() error { return e.worker(gctx) })
	}
	err := g.Wait()
	if err == nil {
		// errgroup cancels gctx on return; only the caller's ctx matters here
		err = ctx.Err()
	}
	return err
}

func (e *Executor) worker(ctx context.Context) error {
	for {
		task, err := e.next(ctx)
		if err != nil || task == nil {
			return err
		}
		jc := &JobContext{exec: e, task: task, ctx: ctx}
		res := e.poll(jc)
		e.finish(task, res)
	}
}

// next blocks until a task is ready, returning nil at quiescence.
func (e *Executor) next(ctx context.Context) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(e.ready) > 0 {
			break
		}
		if e.running == 0 {
			e.cond.Broadcast()
			return nil, nil
		}
		e.cond.Wait()
	}
	idx := 0
	if e.rng != nil {
		idx = e.rng.Intn(len(e.ready))
	}
	id := e.ready[idx]
	e.ready = slices.Delete(e.ready, idx, idx+1)
	task := e.tasks[id]
	task.Status = TaskRunning
	task.Polls++
	e.running++
	return task, nil
}

func (e *Executor) poll(jc *JobContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", jc.task.Name, r)
		}
	}()
	e.polls.Add(1)
	return jc.task.job.Poll(jc)
}

func (e *Executor) finish(task *Task, res error) {
	parked := false
	e.mu.Lock()
	e.running--
	switch {
	case errors.Is(res, ErrPending) && task.notified:
		task.notified = false
		task.Status = TaskReady
		e.ready = append(e.ready, task.ID)
	case errors.Is(res, ErrPending):
		task.Status = TaskWaiting
		parked = true
	default:
		task.Status = TaskDone
		task.Err = res
		task.notified = false
	}
	if len(e.ready) > 0 || e.running == 0 {
		e.cond.Broadcast()
	}
	e.mu.Unlock()

	if parked {
		e.parks.Add(1)
		trace.Point(e.tracer, trace.ScopeJob, "park", fmt.Sprintf("#%d %s", task.ID, task.Name))
	}
}

// Stalled lists tasks still parked, in spawn order. After Run returns nil
// these can never be woken by another job.
func (e *Executor) Stalled() []TaskInfo {
	return e.collect(func(t *Task) bool { return t.Status == TaskWaiting })
}

// Failed lists finished tasks whose last poll returned an error.
func (e *Executor) Failed() []TaskInfo {
	return e.collect(func(t *Task) bool { return t.Status == TaskDone && t.Err != nil })
}

// Tasks lists every task, in spawn order.
func (e *Executor) Tasks() []TaskInfo {
	return e.collect(func(*Task) bool { return true })
}

func (e *Executor) collect(keep func(*Task) bool) []TaskInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []TaskInfo
	for _, t := range e.tasks {
		if keep(t) {
			out = append(out, t.info())
		}
	}
	slices.SortFunc(out, func(a, b TaskInfo) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (t *Task) info() TaskInfo {
	return TaskInfo{ID: t.ID, Name: t.Name, Parent: t.Parent, Status: t.Status, Polls: t.Polls, Err: t.Err}
}

// Abort finishes a parked task without polling it again and returns its
// job so the caller can release whatever the job held. Later wakes are
// ignored.
func (e *Executor) Abort(id TaskID, err error) (Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	task := e.tasks[id]
	if task == nil || task.Status != TaskWaiting {
		return nil, false
	}
	task.Status = TaskDone
	task.Err = err
	return task.job, true
}

// Task returns a copy of the task's state.
func (e *Executor) Task(id TaskID) (TaskInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tasks[id]
	if t == nil {
		return TaskInfo{}, false
	}
	return t.info(), true
}

// Stats returns cumulative counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Spawned: e.spawned.Load(),
		Polls:   e.polls.Load(),
		Parks:   e.parks.Load(),
		Wakes:   e.wakes.Load(),
	}
}

// Status is a one-line summary for heartbeats.
func (e *Executor) Status() string {
	e.mu.Lock()
	ready, running := len(e.ready), e.running
	e.mu.Unlock()
	s := e.Stats()
	return fmt.Sprintf("ready=%d running=%d spawned=%d polls=%d parks=%d", ready, running, s.Spawned, s.Polls, s.Parks)
}
