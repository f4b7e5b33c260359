package asyncrt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// latch is a one-shot condition jobs can wait on.
type latch struct {
	mu    sync.Mutex
	set   bool
	waits WaitList
}

func (l *latch) await(w Waker) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set {
		return nil
	}
	l.waits.Add(w)
	return ErrPending
}

func (l *latch) open() {
	l.mu.Lock()
	l.set = true
	ws := l.waits.Drain()
	l.mu.Unlock()
	WakeAll(ws)
}

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.order = append(r.order, s)
	r.mu.Unlock()
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.order, ",")
}

func TestFIFOOrderSingleWorker(t *testing.T) {
	exec := NewExecutor(Config{Workers: 1})
	var rec recorder
	for _, name := range []string{"a", "b", "c"} {
		exec.Spawn(name, JobFunc(func(jc *JobContext) error {
			rec.add(jc.Name())
			return nil
		}))
	}
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := rec.String(); got != "a,b,c" {
		t.Fatalf("order = %s", got)
	}
}

func TestParkAndWake(t *testing.T) {
	exec := NewExecutor(Config{Workers: 2})
	var l latch
	var rec recorder
	exec.Spawn("waiter", JobFunc(func(jc *JobContext) error {
		if err := l.await(jc.Waker()); err != nil {
			return err
		}
		rec.add("waiter")
		return nil
	}))
	exec.Spawn("opener", JobFunc(func(jc *JobContext) error {
		rec.add("opener")
		l.open()
		return nil
	}))
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := rec.String(); got != "opener,waiter" {
		t.Fatalf("order = %s", got)
	}
	if st := exec.Stalled(); len(st) != 0 {
		t.Fatalf("unexpected stalled tasks %+v", st)
	}
}

func TestWakeDuringPollRepolls(t *testing.T) {
	exec := NewExecutor(Config{Workers: 1})
	polls := 0
	id := exec.Spawn("self", JobFunc(func(jc *JobContext) error {
		polls++
		if polls == 1 {
			jc.Waker().Wake()
			return ErrPending
		}
		return nil
	}))
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	info, _ := exec.Task(id)
	if polls != 2 || info.Status != TaskDone || info.Polls != 2 {
		t.Fatalf("polls=%d info=%+v", polls, info)
	}
}

func TestStalledAndAbort(t *testing.T) {
	exec := NewExecutor(Config{Workers: 3})
	var never latch
	var after latch
	stuck := JobFunc(func(jc *JobContext) error { return never.await(jc.Waker()) })
	exec.Spawn("stuck-1", stuck)
	exec.Spawn("stuck-2", stuck)
	exec.Spawn("dependent", JobFunc(func(jc *JobContext) error { return after.await(jc.Waker()) }))

	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	stalled := exec.Stalled()
	if len(stalled) != 3 || stalled[0].Name != "stuck-1" {
		t.Fatalf("stalled = %+v", stalled)
	}

	errStall := errors.New("stalled")
	if _, ok := exec.Abort(stalled[0].ID, errStall); !ok {
		t.Fatalf("abort failed")
	}
	if _, ok := exec.Abort(stalled[0].ID, errStall); ok {
		t.Fatalf("second abort should fail")
	}
	after.open()
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if st := exec.Stalled(); len(st) != 1 || st[0].Name != "stuck-2" {
		t.Fatalf("stalled after abort = %+v", st)
	}
	failed := exec.Failed()
	if len(failed) != 1 || !errors.Is(failed[0].Err, errStall) {
		t.Fatalf("failed = %+v", failed)
	}
}

func TestSpawnFromJobAndPanics(t *testing.T) {
	exec := NewExecutor(Config{Workers: 4})
	var rec recorder
	exec.Spawn("parent", JobFunc(func(jc *JobContext) error {
		for range 10 {
			jc.Spawn("child", JobFunc(func(*JobContext) error {
				rec.add("c")
				return nil
			}))
		}
		return nil
	}))
	exec.Spawn("bad", JobFunc(func(*JobContext) error { panic("boom") }))
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Count(rec.String(), "c"); got != 10 {
		t.Fatalf("children ran %d times", got)
	}
	failed := exec.Failed()
	if len(failed) != 1 || !strings.Contains(failed[0].Err.Error(), "panicked: boom") {
		t.Fatalf("failed = %+v", failed)
	}
	for _, info := range exec.Tasks() {
		if info.Name == "child" && info.Parent != 1 {
			t.Fatalf("child parent = %d", info.Parent)
		}
	}
}

func TestFuzzSeedReproducible(t *testing.T) {
	run := func(seed uint64) string {
		exec := NewExecutor(Config{Workers: 1, Fuzz: true, Seed: seed})
		var rec recorder
		for _, name := range strings.Split("a b c d e f g h", " ") {
			exec.Spawn(name, JobFunc(func(jc *JobContext) error {
				rec.add(jc.Name())
				return nil
			}))
		}
		if err := exec.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		return rec.String()
	}
	if a, b := run(7), run(7); a != b {
		t.Fatalf("same seed gave %s and %s", a, b)
	}
}

func TestManyWaitersOnOneLatch(t *testing.T) {
	exec := NewExecutor(Config{Workers: 8})
	var l latch
	var mu sync.Mutex
	done := 0
	for range 200 {
		exec.Spawn("w", JobFunc(func(jc *JobContext) error {
			if err := l.await(jc.Waker()); err != nil {
				return err
			}
			mu.Lock()
			done++
			mu.Unlock()
			return nil
		}))
	}
	exec.Spawn("open", JobFunc(func(*JobContext) error {
		l.open()
		return nil
	}))
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if done != 200 {
		t.Fatalf("done = %d", done)
	}
	if s := exec.Stats(); s.Spawned != 201 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestRunCancelled(t *testing.T) {
	exec := NewExecutor(Config{Workers: 2})
	exec.Spawn("noop", JobFunc(func(*JobContext) error { return nil }))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := exec.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestWaitListDedups(t *testing.T) {
	exec := NewExecutor(Config{Workers: 1})
	var wl WaitList
	exec.Spawn("x", JobFunc(func(jc *JobContext) error {
		wl.Add(jc.Waker())
		wl.Add(jc.Waker())
		return nil
	}))
	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if wl.Len() != 1 {
		t.Fatalf("len = %d", wl.Len())
	}
	if ws := wl.Drain(); len(ws) != 1 || wl.Len() != 0 {
		t.Fatalf("drain mismatch")
	}
}
